package models

import (
	"github.com/google/uuid"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship - направленная заявка в друзья и её итоговый статус.
// Для неупорядоченной пары пользователей существует максимум одна запись:
// уникальный индекс держит направление (requester, receiver), обратное
// направление проверяется на уровне сервиса перед вставкой.
type Friendship struct {
	ID          uint             `gorm:"primaryKey"`
	RequesterID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friend_pair"`
	ReceiverID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friend_pair"`
	Status      FriendshipStatus `gorm:"not null;default:'pending'"`
	RequestedAt time.Time
	RespondedAt *time.Time

	// Связи
	Requester User `gorm:"foreignKey:RequesterID"`
	Receiver  User `gorm:"foreignKey:ReceiverID"`
}
