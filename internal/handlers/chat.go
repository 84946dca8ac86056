package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/handlers/dto"
	"github.com/thereayou/vibelink/internal/middleware"
	"github.com/thereayou/vibelink/internal/services"
)

type ChatHandler struct {
	messages *services.MessageService
}

func NewChatHandler(messages *services.MessageService) *ChatHandler {
	return &ChatHandler{messages: messages}
}

// SendMessage отправляет личное сообщение через HTTP
// (альтернатива WebSocket)
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messages.SendDirect(c.Request.Context(), userID, req.ReceiverID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "message sent", "id": message.ID})
}

// GetHistory получает страницу переписки с пользователем
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)

	messages, hasMore, err := h.messages.History(c.Request.Context(), userID, otherID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"hasMore":  hasMore,
	})
}

// GetLatest получает сообщения новее отметки времени
func (h *ChatHandler) GetLatest(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	since, err := time.Parse(time.RFC3339, c.Query("since"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
		return
	}

	limit := queryInt(c, "limit", 20)

	messages, err := h.messages.LatestSince(c.Request.Context(), userID, otherID, since, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkAsRead помечает сообщение прочитанным
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("messageId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), uint(messageID)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
