package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salehero-chat/internal/models"
	"salehero-chat/internal/store"
)

func historyServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	captured := &http.Request{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestLoadInitialReversesAndStripsMarkers(t *testing.T) {
	// Newest-first API order: "c" is the most recent message and carries a
	// leftover correlation marker.
	body := `{"content":[
		{"type":"CHAT","sender":"A","content":"c::a1b2c3","createdAt":"2026-08-28T10:00:02Z"},
		{"type":"CHAT","sender":"B","content":"b","createdAt":"2026-08-28T10:00:01Z"}
	],"totalPages":3}`
	server, captured := historyServer(t, http.StatusOK, body)

	st := store.New()
	st.Append(models.Message{Type: models.KindChat, Sender: "X", Content: "live"})

	loader := New(server.URL, "token-123", 20)
	require.NoError(t, loader.LoadInitial(context.Background(), st))

	msgs := st.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].Content, "history must be chronological, oldest first")
	assert.Equal(t, "c", msgs[1].Content, "marker must be stripped unconditionally")
	assert.Equal(t, "live", msgs[2].Content, "live tail stays after history")

	assert.False(t, st.HistoryLoading())
	assert.Equal(t, "0", captured.URL.Query().Get("page"))
	assert.Equal(t, "20", captured.URL.Query().Get("size"))
	assert.Equal(t, "Bearer token-123", captured.Header.Get("Authorization"))
}

func TestLoadInitialSurfacesServerError(t *testing.T) {
	server, _ := historyServer(t, http.StatusInternalServerError, `{"error":"boom"}`)

	st := store.New()
	loader := New(server.URL, "", 20)

	err := loader.LoadInitial(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
	assert.Zero(t, st.Len())
	assert.False(t, st.HistoryLoading(), "loading flag must clear on failure too")
}

func TestLoadInitialSurfacesDecodeError(t *testing.T) {
	server, _ := historyServer(t, http.StatusOK, `not json`)

	st := store.New()
	loader := New(server.URL, "", 20)

	require.Error(t, loader.LoadInitial(context.Background(), st))
	assert.Zero(t, st.Len())
}
