package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/middleware"
	"github.com/thereayou/vibelink/internal/services"
	"github.com/thereayou/vibelink/pkg/upload"
)

// UploadHandler принимает картинку, сохраняет через Store и отправляет
// получившийся URL обычным image-сообщением, чтобы запись и fan-out
// прошли стандартным путем
type UploadHandler struct {
	store    upload.Store
	messages *services.MessageService
}

func NewUploadHandler(store upload.Store, messages *services.MessageService) *UploadHandler {
	return &UploadHandler{store: store, messages: messages}
}

// UploadImage загружает картинку для личного сообщения
func (h *UploadHandler) UploadImage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	receiverID, err := uuid.Parse(c.PostForm("receiverId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receiver id"})
		return
	}

	imageURL, ok := h.saveFile(c)
	if !ok {
		return
	}

	message, err := h.messages.SendDirectImage(c.Request.Context(), userID, receiverID, imageURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "upload successful",
		"id":       message.ID,
		"imageUrl": imageURL,
	})
}

// UploadGroupImage загружает картинку для группового сообщения
func (h *UploadHandler) UploadGroupImage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, err := strconv.ParseUint(c.PostForm("groupId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	imageURL, ok := h.saveFile(c)
	if !ok {
		return
	}

	message, err := h.messages.SendGroupImage(c.Request.Context(), userID, uint(groupID), imageURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "upload successful",
		"id":       message.ID,
		"imageUrl": imageURL,
	})
}

func (h *UploadHandler) saveFile(c *gin.Context) (string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return "", false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return "", false
	}
	defer f.Close()

	imageURL, err := h.store.Save(fileHeader.Filename, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return "", false
	}

	return imageURL, true
}
