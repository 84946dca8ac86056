package dto

import "github.com/google/uuid"

// MessagePayload - тело входящего события с сообщением
type MessagePayload struct {
	Content string `json:"content"`
}

// TypingPayload - тело события "печатает"
type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

// SendMessageRequest - HTTP-вариант отправки личного сообщения
type SendMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiverId" binding:"required"`
	Content    string    `json:"content" binding:"required"`
}
