package models

import (
	"github.com/google/uuid"
	"time"
)

// Типы содержимого сообщения
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// ChatMessage - личное сообщение между двумя пользователями.
// ID монотонно растет, порядок по ID - авторитетный порядок истории.
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"size:1000;not null"`
	Type       string    `gorm:"default:'text'"`
	ImageURL   string
	SentAt     time.Time `gorm:"index"`
	IsRead     bool      `gorm:"default:false"`

	// Связи
	Sender   User `gorm:"foreignKey:SenderID"`
	Receiver User `gorm:"foreignKey:ReceiverID"`
}

// GroupMessage - сообщение в групповом чате. Статус прочтения
// для групповых сообщений не отслеживается.
type GroupMessage struct {
	ID       uint      `gorm:"primaryKey"`
	GroupID  uint      `gorm:"not null;index"`
	SenderID uuid.UUID `gorm:"type:uuid;not null"`
	Content  string    `gorm:"size:1000;not null"`
	Type     string    `gorm:"default:'text'"`
	ImageURL string
	SentAt   time.Time `gorm:"index"`

	// Связи
	Sender User      `gorm:"foreignKey:SenderID"`
	Group  GroupChat `gorm:"foreignKey:GroupID"`
}
