package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salehero-chat/internal/client"
	"salehero-chat/internal/mocks"
	"salehero-chat/internal/models"
	"salehero-chat/internal/session"
	"salehero-chat/internal/store"
)

func TestClientEndToEnd(t *testing.T) {
	historySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"CHAT","sender":"B","content":"earlier"}],"totalPages":1}`))
	}))
	defer historySrv.Close()

	conn := mocks.NewScriptedConn()
	chat := client.New(client.Options{
		BrokerURL:  "ws://broker.test/ws/chat",
		HistoryURL: historySrv.URL,
		Dialer: mocks.DialerFunc(func(ctx context.Context, url string, header http.Header) (session.Conn, *http.Response, error) {
			return conn, nil, nil
		}),
	})
	defer chat.Close()

	chat.Start(context.Background())
	require.Eventually(t, func() bool { return chat.Store.Status() == store.StatusConnected },
		time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return chat.Store.Len() == 1 },
		time.Second, time.Millisecond)
	assert.Equal(t, "earlier", chat.Store.Messages()[0].Content)

	require.True(t, chat.Send("hello"))
	assert.False(t, chat.Send("too fast"), "second send must wait for the echo")

	writes := conn.Writes()
	require.Len(t, writes, 1)
	var out models.Message
	require.NoError(t, json.Unmarshal(writes[0], &out))
	token := chat.Session.CorrelationToken()
	require.Equal(t, "hello::"+token, out.Content)

	echo, _ := json.Marshal(models.Message{Type: models.KindChat, Sender: "Guest-9", Content: out.Content})
	conn.Deliver(echo)

	require.Eventually(t, func() bool { return chat.Store.LocalIdentity() == "Guest-9" },
		time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !chat.Limiter.InFlight() },
		time.Second, time.Millisecond)

	msgs := chat.Store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[1].Content, "echoed message lands cleaned at the tail")

	assert.True(t, chat.Send("follow-up"))
}
