package models

import "time"

// MessageKind tags the variant of a chat frame.
type MessageKind string

const (
	KindChat  MessageKind = "CHAT"
	KindJoin  MessageKind = "JOIN"
	KindLeave MessageKind = "LEAVE"
)

// Message is the wire shape broadcast on the chat topic and returned by the
// history endpoint. CreatedAt is server-assigned and absent on freshly
// composed outbound frames.
type Message struct {
	Type      MessageKind `json:"type"`
	Sender    string      `json:"sender"`
	Content   string      `json:"content"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
}

// StoredMessage is the persisted form of a chat frame. Content is stored
// verbatim as it arrived, correlation marker included.
type StoredMessage struct {
	ID        int       `db:"id" json:"id"`
	Kind      string    `db:"kind" json:"kind"`
	Sender    string    `db:"sender" json:"sender"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Wire converts a stored row back to the broadcast shape.
func (m StoredMessage) Wire() Message {
	created := m.CreatedAt
	return Message{
		Type:      MessageKind(m.Kind),
		Sender:    m.Sender,
		Content:   m.Content,
		CreatedAt: &created,
	}
}

// MessagePage is the history endpoint response, newest page first.
type MessagePage struct {
	Content    []Message `json:"content"`
	TotalPages int       `json:"totalPages"`
}
