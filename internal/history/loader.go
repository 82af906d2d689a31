package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"salehero-chat/internal/models"
	"salehero-chat/internal/session"
	"salehero-chat/internal/store"
)

// Loader fetches one backward page of prior messages from the history
// endpoint and splices it ahead of the live log. Runs once per session, at
// startup, before live traffic has had a chance to arrive.
type Loader struct {
	baseURL  string
	token    string
	pageSize int
	client   *http.Client
}

// New builds a Loader for the given history endpoint.
func New(baseURL, token string, pageSize int) *Loader {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Loader{
		baseURL:  baseURL,
		token:    token,
		pageSize: pageSize,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// LoadInitial requests the newest page, strips correlation markers, reverses
// the page to chronological order and prepends it to the store. Historical
// messages never resolve the local identity, so markers are removed
// unconditionally.
func (l *Loader) LoadInitial(ctx context.Context, st *store.Store) error {
	st.SetHistoryLoading(true)
	defer st.SetHistoryLoading(false)

	url := fmt.Sprintf("%s?page=0&size=%d", l.baseURL, l.pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("history request: %w", err)
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("history fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history fetch: unexpected status %d", resp.StatusCode)
	}

	var page models.MessagePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return fmt.Errorf("history decode: %w", err)
	}

	msgs := page.Content
	for i := range msgs {
		msgs[i].Content = session.StripMarker(msgs[i].Content)
	}
	// The endpoint pages newest-first, the log reads oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	st.PrependHistory(msgs)
	return nil
}
