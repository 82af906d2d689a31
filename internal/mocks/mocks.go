package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salehero-chat/internal/models"
	"salehero-chat/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) InsertMessage(ctx context.Context, kind, sender, content string) (models.StoredMessage, error) {
	args := m.Called(ctx, kind, sender, content)
	var msg models.StoredMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.StoredMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListPage(ctx context.Context, page, size int) ([]models.StoredMessage, error) {
	args := m.Called(ctx, page, size)
	var msgs []models.StoredMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.StoredMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountMessages(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
