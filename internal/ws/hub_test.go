package ws

import (
	"testing"
	"time"

	"salehero-chat/internal/models"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(nil, ConnInfo{ConnID: "c1", ConnectedAt: time.Now()})
	if hub.ClientCount() != 1 {
		t.Fatalf("expected client to be registered")
	}

	hub.RemoveClient(nil)
	if hub.ClientCount() != 0 {
		t.Fatalf("expected client to be removed")
	}
}

func TestHubGuestNamesAreSequential(t *testing.T) {
	hub := NewHub()

	if got := hub.NextGuestName(); got != "Guest-1" {
		t.Fatalf("unexpected guest name %q", got)
	}
	if got := hub.NextGuestName(); got != "Guest-2" {
		t.Fatalf("unexpected guest name %q", got)
	}
}

func TestBroadcastWithNoClients(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(models.Message{Type: models.KindChat, Sender: "a", Content: "b"})
}
