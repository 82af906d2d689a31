package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salehero-chat/internal/models"
)

func msg(content string) models.Message {
	return models.Message{Type: models.KindChat, Sender: "someone", Content: content}
}

func TestAppendKeepsArrivalOrder(t *testing.T) {
	st := New()

	st.Append(msg("first"))
	st.Append(msg("second"))
	st.Append(msg("first")) // duplicates are kept

	msgs := st.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "first", msgs[2].Content)
}

func TestPrependHistoryGoesBeforeLiveTail(t *testing.T) {
	st := New()
	st.Append(msg("live"))

	st.PrependHistory([]models.Message{msg("b"), msg("c")})

	msgs := st.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].Content)
	assert.Equal(t, "c", msgs[1].Content)
	assert.Equal(t, "live", msgs[2].Content)
}

func TestListenersFireOnGrowth(t *testing.T) {
	st := New()
	calls := 0
	st.Subscribe(func() { calls++ })

	st.Append(msg("a"))
	st.PrependHistory([]models.Message{msg("h")})

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, st.Len())
}

func TestScalarFields(t *testing.T) {
	st := New()
	assert.Equal(t, StatusDisconnected, st.Status())
	assert.Empty(t, st.LocalIdentity())
	assert.False(t, st.HistoryLoading())

	st.SetStatus(StatusConnected)
	st.SetLocalIdentity("Guest-7")
	st.SetHistoryLoading(true)

	assert.Equal(t, StatusConnected, st.Status())
	assert.Equal(t, "Guest-7", st.LocalIdentity())
	assert.True(t, st.HistoryLoading())
}
