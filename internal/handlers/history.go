package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salehero-chat/internal/models"
	"salehero-chat/internal/repositories"
	"salehero-chat/internal/telemetry"
)

const maxPageSize = 100

// HistoryHandler serves the backward-paginated message history consumed by
// chat clients at mount time.
type HistoryHandler struct {
	messageRepo     repositories.MessageRepository
	defaultPageSize int
	emitter         *telemetry.AuditEmitter
}

// NewHistoryHandler builds a HistoryHandler.
func NewHistoryHandler(messageRepo repositories.MessageRepository, defaultPageSize int, emitter *telemetry.AuditEmitter) *HistoryHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	return &HistoryHandler{messageRepo: messageRepo, defaultPageSize: defaultPageSize, emitter: emitter}
}

// GetMessages returns one zero-indexed page of chat messages, newest page
// first, newest message first within the page. Clients reverse the page to
// chronological order themselves.
func (h *HistoryHandler) GetMessages(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page index"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(h.defaultPageSize)))
	if err != nil || size < 1 || size > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page size"})
		return
	}

	msgs, err := h.messageRepo.ListPage(c.Request.Context(), page, size)
	if err != nil {
		h.emitter.Emit(c.Request.Context(), "ERROR", "history page query failed", requestIDFromContext(c), nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	count, err := h.messageRepo.CountMessages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	content := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		content = append(content, m.Wire())
	}

	c.JSON(http.StatusOK, models.MessagePage{
		Content:    content,
		TotalPages: repositories.TotalPages(count, size),
	})
}
