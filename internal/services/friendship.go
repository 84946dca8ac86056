package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"github.com/thereayou/vibelink/internal/websocket"
	"github.com/thereayou/vibelink/pkg/apperrors"
	"gorm.io/gorm"
)

const searchResultLimit = 20

// FriendshipService - машина состояний дружбы поверх хранилища.
// Переходы: нет записи -> pending -> accepted/rejected, accepted
// удаляется целиком при разрыве. Уведомления уходят через Notifier
// после успешной записи и никогда не откатывают её.
type FriendshipService struct {
	users       UserStore
	friendships FriendshipStore
	names       NameResolver
	notifier    Notifier
}

func NewFriendshipService(users UserStore, friendships FriendshipStore, names NameResolver, notifier Notifier) *FriendshipService {
	return &FriendshipService{
		users:       users,
		friendships: friendships,
		names:       names,
		notifier:    notifier,
	}
}

type FriendRequest struct {
	FriendshipID  uint      `json:"friendshipId"`
	RequesterID   uuid.UUID `json:"requesterId"`
	RequesterName string    `json:"requesterName"`
	RequestedAt   time.Time `json:"requestedAt"`
}

type Friend struct {
	FriendshipID uint      `json:"friendshipId"`
	FriendID     uuid.UUID `json:"friendId"`
	FriendName   string    `json:"friendName"`
}

type SearchResult struct {
	ID                         uuid.UUID                `json:"id"`
	Username                   string                   `json:"username"`
	Email                      string                   `json:"email"`
	AvatarURL                  string                   `json:"avatarUrl,omitempty"`
	FriendshipStatus           *models.FriendshipStatus `json:"friendshipStatus,omitempty"`
	IsRequestSentByCurrentUser *bool                    `json:"isRequestSentByCurrentUser,omitempty"`
}

// SendRequest создает заявку в друзья и уведомляет получателя
func (s *FriendshipService) SendRequest(ctx context.Context, requesterID, receiverID uuid.UUID) (*models.Friendship, error) {
	if requesterID == receiverID {
		return nil, apperrors.InvalidArg("cannot send a friend request to yourself")
	}

	exists, err := s.users.UserExists(receiverID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check receiver", err)
	}
	if !exists {
		return nil, apperrors.NotFound("receiver user not found")
	}

	newFriendship := &models.Friendship{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.FriendshipPending,
		RequestedAt: time.Now(),
	}

	existing, err := s.friendships.FindFriendshipBetween(requesterID, receiverID)
	switch {
	case err == nil:
		switch existing.Status {
		case models.FriendshipAccepted:
			return nil, apperrors.Conflict("you are already friends with this user")
		case models.FriendshipPending:
			if existing.RequesterID == requesterID {
				return nil, apperrors.Conflict("friend request already sent")
			}
			return nil, apperrors.Conflict("this user has already sent you a friend request")
		case models.FriendshipBlocked:
			return nil, apperrors.Conflict("cannot send a friend request to this user")
		case models.FriendshipRejected:
			// Отказ не блокирует пару навсегда: старая запись
			// заменяется свежей заявкой
			if err := s.friendships.ReplaceFriendship(existing.ID, newFriendship); err != nil {
				return nil, translateFriendshipErr(err)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Проверка существования и вставка не атомарны; гонку двух
		// одновременных заявок ловит уникальный индекс пары
		if err := s.friendships.CreateFriendship(newFriendship); err != nil {
			return nil, translateFriendshipErr(err)
		}
	default:
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to look up friendship", err)
	}

	requesterName := s.displayName(ctx, requesterID)
	s.notifier.DeliverToUser(receiverID, websocket.EventFriendNotification, map[string]interface{}{
		"type":          websocket.FriendRequestReceived,
		"friendshipId":  newFriendship.ID,
		"requesterId":   requesterID,
		"requesterName": requesterName,
		"requestedAt":   newFriendship.RequestedAt,
	})

	return newFriendship, nil
}

// Accept принимает заявку. Валиден только для получателя pending-записи.
func (s *FriendshipService) Accept(ctx context.Context, friendshipID uint, actingUserID uuid.UUID) error {
	f, err := s.friendships.GetFriendship(friendshipID)
	if err != nil || f.ReceiverID != actingUserID {
		return apperrors.NotFound("friendship not found")
	}
	if f.Status != models.FriendshipPending {
		return apperrors.New(apperrors.CodeFailedPrecondition, "friendship status is not pending")
	}

	now := time.Now()
	f.Status = models.FriendshipAccepted
	f.RespondedAt = &now
	if err := s.friendships.UpdateFriendship(f); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to accept friend request", err)
	}

	// Каждая сторона получает в payload данные другой стороны,
	// чтобы клиент обновил список друзей без лишнего запроса
	s.notifier.DeliverToUser(f.ReceiverID, websocket.EventFriendNotification, map[string]interface{}{
		"type":         websocket.FriendRequestAccepted,
		"friendshipId": f.ID,
		"friendId":     f.RequesterID,
		"friendName":   s.displayName(ctx, f.RequesterID),
		"respondedAt":  f.RespondedAt,
	})
	s.notifier.DeliverToUser(f.RequesterID, websocket.EventFriendNotification, map[string]interface{}{
		"type":         websocket.FriendRequestAccepted,
		"friendshipId": f.ID,
		"friendId":     f.ReceiverID,
		"friendName":   s.displayName(ctx, f.ReceiverID),
		"respondedAt":  f.RespondedAt,
	})

	return nil
}

// Reject отклоняет заявку. Валиден только для получателя; отзыв
// собственной заявки - отдельная операция Cancel.
func (s *FriendshipService) Reject(ctx context.Context, friendshipID uint, actingUserID uuid.UUID) error {
	f, err := s.friendships.GetFriendship(friendshipID)
	if err != nil || f.ReceiverID != actingUserID {
		return apperrors.NotFound("friendship not found")
	}
	if f.Status != models.FriendshipPending {
		return apperrors.New(apperrors.CodeFailedPrecondition, "friendship status is not pending")
	}

	now := time.Now()
	f.Status = models.FriendshipRejected
	f.RespondedAt = &now
	if err := s.friendships.UpdateFriendship(f); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to reject friend request", err)
	}

	s.notifier.DeliverToUser(f.RequesterID, websocket.EventFriendNotification, map[string]interface{}{
		"type":         websocket.FriendRequestRejected,
		"friendshipId": f.ID,
		"actorId":      actingUserID,
	})

	return nil
}

// Cancel отзывает собственную pending-заявку. Запись удаляется:
// отмененная заявка не должна оставлять rejected-надгробие, на которое
// получатель так и не ответил.
func (s *FriendshipService) Cancel(ctx context.Context, friendshipID uint, actingUserID uuid.UUID) error {
	f, err := s.friendships.GetFriendship(friendshipID)
	if err != nil || f.RequesterID != actingUserID {
		return apperrors.NotFound("friendship not found")
	}
	if f.Status != models.FriendshipPending {
		return apperrors.New(apperrors.CodeFailedPrecondition, "friendship status is not pending")
	}

	if err := s.friendships.DeleteFriendship(f.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to cancel friend request", err)
	}

	s.notifier.DeliverToUser(f.ReceiverID, websocket.EventFriendNotification, map[string]interface{}{
		"type":         websocket.FriendRequestCancelled,
		"friendshipId": f.ID,
		"actorId":      actingUserID,
	})

	return nil
}

// Unfriend разрывает дружбу: accepted-запись удаляется целиком,
// а не помечается статусом
func (s *FriendshipService) Unfriend(ctx context.Context, friendID, actingUserID uuid.UUID) error {
	f, err := s.friendships.FindFriendshipBetween(actingUserID, friendID)
	if err != nil || f.Status != models.FriendshipAccepted {
		return apperrors.NotFound("friendship not found")
	}

	if err := s.friendships.DeleteFriendship(f.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to unfriend", err)
	}

	s.notifier.DeliverToUser(friendID, websocket.EventFriendNotification, map[string]interface{}{
		"type":         websocket.FriendshipRemoved,
		"friendshipId": f.ID,
		"actorId":      actingUserID,
	})

	return nil
}

// ListPending возвращает входящие заявки с именами отправителей
func (s *FriendshipService) ListPending(ctx context.Context, userID uuid.UUID) ([]FriendRequest, error) {
	rows, err := s.friendships.ListPendingFor(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list pending requests", err)
	}

	requests := make([]FriendRequest, len(rows))
	for i, f := range rows {
		requests[i] = FriendRequest{
			FriendshipID:  f.ID,
			RequesterID:   f.RequesterID,
			RequesterName: f.Requester.Username,
			RequestedAt:   f.RequestedAt,
		}
	}
	return requests, nil
}

// ListFriends возвращает друзей, проецируя данные другой стороны
func (s *FriendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]Friend, error) {
	rows, err := s.friendships.ListAcceptedFor(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list friends", err)
	}

	friends := make([]Friend, len(rows))
	for i, f := range rows {
		if f.RequesterID == userID {
			friends[i] = Friend{FriendshipID: f.ID, FriendID: f.ReceiverID, FriendName: f.Receiver.Username}
		} else {
			friends[i] = Friend{FriendshipID: f.ID, FriendID: f.RequesterID, FriendName: f.Requester.Username}
		}
	}
	return friends, nil
}

// Search ищет пользователей и аннотирует каждого состоянием отношений,
// чтобы клиент сразу отрисовал нужную кнопку без второго запроса
func (s *FriendshipService) Search(ctx context.Context, query string, currentUserID uuid.UUID) ([]SearchResult, error) {
	if query == "" {
		return []SearchResult{}, nil
	}

	users, err := s.users.SearchUsers(query, currentUserID, searchResultLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to search users", err)
	}
	if len(users) == 0 {
		return []SearchResult{}, nil
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	related, err := s.friendships.ListFriendshipsWith(currentUserID, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load friendships", err)
	}

	byOther := make(map[uuid.UUID]*models.Friendship, len(related))
	for i := range related {
		f := &related[i]
		if f.RequesterID == currentUserID {
			byOther[f.ReceiverID] = f
		} else {
			byOther[f.RequesterID] = f
		}
	}

	results := make([]SearchResult, len(users))
	for i, u := range users {
		result := SearchResult{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			AvatarURL: u.AvatarURL,
		}
		if f, ok := byOther[u.ID]; ok {
			status := f.Status
			result.FriendshipStatus = &status
			if status == models.FriendshipPending {
				sentByMe := f.RequesterID == currentUserID
				result.IsRequestSentByCurrentUser = &sentByMe
			}
		}
		results[i] = result
	}
	return results, nil
}

func (s *FriendshipService) displayName(ctx context.Context, id uuid.UUID) string {
	name, err := s.names.DisplayName(ctx, id)
	if err != nil {
		log.Printf("Failed to resolve display name for %s: %v", id, err)
		return "N/A"
	}
	return name
}

func translateFriendshipErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("friend request already exists")
	}
	return apperrors.Wrap(apperrors.CodeInternal, "failed to save friend request", err)
}
