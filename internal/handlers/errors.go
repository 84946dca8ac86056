package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/vibelink/pkg/apperrors"
)

// respondError переводит типизированную ошибку сервиса в HTTP-ответ.
// Внутренние причины не утекают клиенту, только код и сообщение.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == apperrors.CodeInternal {
			log.Printf("Internal error on %s: %v", c.FullPath(), err)
		}
		c.JSON(appErr.Code.HTTPStatus(), gin.H{
			"code":  appErr.Code,
			"error": appErr.Message,
		})
		return
	}

	log.Printf("Unexpected error on %s: %v", c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":  apperrors.CodeInternal,
		"error": "internal server error",
	})
}
