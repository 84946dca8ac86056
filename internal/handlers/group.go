package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/handlers/dto"
	"github.com/thereayou/vibelink/internal/middleware"
	"github.com/thereayou/vibelink/internal/services"
)

type GroupHandler struct {
	groups   *services.GroupService
	messages *services.MessageService
}

func NewGroupHandler(groups *services.GroupService, messages *services.MessageService) *GroupHandler {
	return &GroupHandler{groups: groups, messages: messages}
}

// CreateGroup создает групповой чат
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name      string      `json:"name" binding:"required"`
		AvatarURL string      `json:"avatarUrl"`
		MemberIDs []uuid.UUID `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), userID, req.Name, req.AvatarURL, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        group.ID,
		"name":      group.Name,
		"avatarUrl": group.AvatarURL,
		"createdAt": group.CreatedAt,
	})
}

// GetMyGroups возвращает группы текущего пользователя
func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groups, err := h.groups.ListGroups(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetMembers возвращает участников группы
func (h *GroupHandler) GetMembers(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	members, err := h.groups.Members(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMember добавляет пользователя в группу
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req struct {
		UserID uuid.UUID `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), groupID, userID, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member added"})
}

// Rename переименовывает группу
func (h *GroupHandler) Rename(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.Rename(c.Request.Context(), groupID, userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": group.ID, "name": group.Name})
}

// ChangeAvatar меняет аватар группы
func (h *GroupHandler) ChangeAvatar(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req struct {
		AvatarURL string `json:"avatarUrl" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.ChangeAvatar(c.Request.Context(), groupID, userID, req.AvatarURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": group.ID, "avatarUrl": group.AvatarURL})
}

// SendMessage отправляет сообщение в группу через HTTP
func (h *GroupHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req dto.MessagePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messages.SendGroup(c.Request.Context(), userID, groupID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "group message sent", "id": message.ID})
}

// GetMessages получает страницу истории группы
func (h *GroupHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	// История доступна только участникам
	if _, err := h.groups.Members(c.Request.Context(), groupID, userID); err != nil {
		respondError(c, err)
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)

	messages, hasMore, err := h.messages.HistoryGroup(c.Request.Context(), groupID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"hasMore":  hasMore,
	})
}

func parseGroupID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("groupId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return 0, false
	}
	return uint(id), true
}
