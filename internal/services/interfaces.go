package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"github.com/thereayou/vibelink/internal/websocket"
)

// Узкие контракты хранилищ, которые потребляют сервисы.
// Реализует их *database.Database, в тестах - фейки.

type UserStore interface {
	GetUser(id uuid.UUID) (*models.User, error)
	UserExists(id uuid.UUID) (bool, error)
	SearchUsers(query string, excludeID uuid.UUID, limit int) ([]models.User, error)
}

type MessageStore interface {
	SaveDirectMessage(message *models.ChatMessage) error
	GetDirectMessage(id uint) (*models.ChatMessage, error)
	MarkMessageRead(id uint) error
	GetDirectHistory(userA, userB uuid.UUID, page, pageSize int) ([]models.ChatMessage, error)
	CountDirectHistory(userA, userB uuid.UUID) (int64, error)
	GetDirectSince(userA, userB uuid.UUID, since time.Time, limit int) ([]models.ChatMessage, error)
	SaveGroupMessage(message *models.GroupMessage) error
	GetGroupHistory(groupID uint, page, pageSize int) ([]models.GroupMessage, error)
	CountGroupHistory(groupID uint) (int64, error)
}

type FriendshipStore interface {
	CreateFriendship(f *models.Friendship) error
	GetFriendship(id uint) (*models.Friendship, error)
	FindFriendshipBetween(userA, userB uuid.UUID) (*models.Friendship, error)
	UpdateFriendship(f *models.Friendship) error
	DeleteFriendship(id uint) error
	ReplaceFriendship(oldID uint, f *models.Friendship) error
	ListPendingFor(receiverID uuid.UUID) ([]models.Friendship, error)
	ListAcceptedFor(userID uuid.UUID) ([]models.Friendship, error)
	ListFriendshipsWith(userID uuid.UUID, otherIDs []uuid.UUID) ([]models.Friendship, error)
}

type GroupStore interface {
	CreateGroupWithMembers(group *models.GroupChat, members []models.GroupMember) error
	GetGroup(id uint) (*models.GroupChat, error)
	UpdateGroup(group *models.GroupChat) error
	AddGroupMember(member *models.GroupMember) error
	IsGroupMember(groupID uint, userID uuid.UUID) (bool, error)
	IsGroupAdmin(groupID uint, userID uuid.UUID) (bool, error)
	GetUserGroups(userID uuid.UUID) ([]models.GroupChat, error)
	ListGroupMembers(groupID uint) ([]models.GroupMember, error)
}

// Notifier - выход сервисов в fan-out. Доставка best-effort и не
// возвращает ошибок: провал доставки не должен откатывать успешную
// запись в хранилище.
type Notifier interface {
	DeliverToUser(userID uuid.UUID, event websocket.EventType, payload interface{})
	DeliverToGroup(groupID uint, event websocket.EventType, payload interface{})
}

// NameResolver отдает отображаемое имя пользователя. За ним живет
// read-through кэш, чтобы сборка уведомлений не ходила в базу на
// каждого получателя.
type NameResolver interface {
	DisplayName(ctx context.Context, id uuid.UUID) (string, error)
}
