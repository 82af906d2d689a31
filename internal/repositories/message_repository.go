package repositories

import (
	"context"
	"errors"
	"math"

	"github.com/jmoiron/sqlx"

	"salehero-chat/internal/models"
)

var ErrInvalidPage = errors.New("invalid page index")

// MessageRepository defines persistence for chat topic traffic.
type MessageRepository interface {
	InsertMessage(ctx context.Context, kind, sender, content string) (models.StoredMessage, error)
	ListPage(ctx context.Context, page, size int) ([]models.StoredMessage, error)
	CountMessages(ctx context.Context) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// InsertMessage stores one frame as it arrived on the topic, correlation
// marker and all.
func (r *MessageRepo) InsertMessage(ctx context.Context, kind, sender, content string) (models.StoredMessage, error) {
	var msg models.StoredMessage
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_messages (kind, sender, content) VALUES ($1, $2, $3)
         RETURNING id, kind, sender, content, created_at`,
		kind, sender, content).
		Scan(&msg.ID, &msg.Kind, &msg.Sender, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// ListPage returns one zero-indexed page of chat messages, newest first.
func (r *MessageRepo) ListPage(ctx context.Context, page, size int) ([]models.StoredMessage, error) {
	if page < 0 || size <= 0 {
		return nil, ErrInvalidPage
	}
	query := `SELECT id, kind, sender, content, created_at
        FROM chat_messages
        WHERE kind = 'CHAT'
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2`
	var msgs []models.StoredMessage
	err := r.db.SelectContext(ctx, &msgs, query, size, page*size)
	return msgs, err
}

// CountMessages returns the number of persisted chat messages.
func (r *MessageRepo) CountMessages(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chat_messages WHERE kind = 'CHAT'`)
	return count, err
}

// TotalPages derives the page count for a given page size.
func TotalPages(count, size int) int {
	if size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(count) / float64(size)))
}
