package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/middleware"
	"github.com/thereayou/vibelink/internal/services"
)

type FriendshipHandler struct {
	friendships *services.FriendshipService
}

func NewFriendshipHandler(friendships *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendships: friendships}
}

// SendRequest отправляет заявку в друзья
func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		ReceiverID uuid.UUID `json:"receiverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	friendship, err := h.friendships.SendRequest(c.Request.Context(), userID, req.ReceiverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "friend request sent",
		"friendshipId": friendship.ID,
	})
}

// GetPending возвращает входящие заявки
func (h *FriendshipHandler) GetPending(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	requests, err := h.friendships.ListPending(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Accept принимает заявку
func (h *FriendshipHandler) Accept(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	friendshipID, ok := parseFriendshipID(c)
	if !ok {
		return
	}

	if err := h.friendships.Accept(c.Request.Context(), friendshipID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted"})
}

// Reject отклоняет входящую заявку
func (h *FriendshipHandler) Reject(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	friendshipID, ok := parseFriendshipID(c)
	if !ok {
		return
	}

	if err := h.friendships.Reject(c.Request.Context(), friendshipID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request rejected"})
}

// Cancel отзывает собственную исходящую заявку
func (h *FriendshipHandler) Cancel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	friendshipID, ok := parseFriendshipID(c)
	if !ok {
		return
	}

	if err := h.friendships.Cancel(c.Request.Context(), friendshipID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request cancelled"})
}

// GetFriends возвращает список друзей
func (h *FriendshipHandler) GetFriends(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	friends, err := h.friendships.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// Unfriend разрывает дружбу
func (h *FriendshipHandler) Unfriend(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	friendID, err := uuid.Parse(c.Param("friendId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return
	}

	if err := h.friendships.Unfriend(c.Request.Context(), friendID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Search ищет пользователей с аннотацией состояния отношений
func (h *FriendshipHandler) Search(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	results, err := h.friendships.Search(c.Request.Context(), c.Query("query"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func parseFriendshipID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("friendshipId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friendship id"})
		return 0, false
	}
	return uint(id), true
}
