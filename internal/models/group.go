package models

import (
	"github.com/google/uuid"
	"time"
)

type GroupChat struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	AvatarURL string
	CreatedAt time.Time

	// Связи
	Members  []GroupMember  `gorm:"foreignKey:GroupID"`
	Messages []GroupMessage `gorm:"foreignKey:GroupID"`
}

// GroupMember - членство пользователя в группе.
// Пара (group_id, user_id) уникальна, создатель группы всегда админ.
type GroupMember struct {
	ID       uint      `gorm:"primaryKey"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_member"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member"`
	IsAdmin  bool      `gorm:"default:false"`
	JoinedAt time.Time

	// Связи
	User  User      `gorm:"foreignKey:UserID"`
	Group GroupChat `gorm:"foreignKey:GroupID"`
}
