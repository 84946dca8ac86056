package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"github.com/thereayou/vibelink/internal/websocket"
	"github.com/thereayou/vibelink/pkg/apperrors"
)

const (
	maxContentLength = 1000

	// Плейсхолдер содержимого для сообщений-картинок
	imagePlaceholder = "[Image]"

	defaultPageSize = 20
	maxPageSize     = 100
)

// MessageService валидирует и сохраняет сообщения, затем отдает их в
// fan-out. Сохранение и доставка развязаны: упавшая доставка не
// откатывает запись, упавшая запись ничего не доставляет.
type MessageService struct {
	users    UserStore
	messages MessageStore
	groups   GroupStore
	notifier Notifier
}

func NewMessageService(users UserStore, messages MessageStore, groups GroupStore, notifier Notifier) *MessageService {
	return &MessageService{
		users:    users,
		messages: messages,
		groups:   groups,
		notifier: notifier,
	}
}

type DirectMessageDTO struct {
	ID         uint      `json:"id"`
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
	IsRead     bool      `json:"isRead"`
	Type       string    `json:"type"`
	ImageURL   string    `json:"imageUrl,omitempty"`
}

type GroupMessageDTO struct {
	ID       uint      `json:"id"`
	GroupID  uint      `json:"groupId"`
	SenderID uuid.UUID `json:"senderId"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sentAt"`
	Type     string    `json:"type"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

// detectImageContent распознает вложенную картинку по префиксу
// содержимого. Это удобство отображения, не граница безопасности:
// валидация файла - забота загрузчика.
func detectImageContent(content string) (msgType, body, imageURL string) {
	if strings.HasPrefix(content, "data:image") {
		return models.MessageTypeImage, imagePlaceholder, content
	}
	return models.MessageTypeText, content, ""
}

// SendDirect сохраняет личное сообщение и доставляет его в каналы
// обеих сторон - отправителю тоже, чтобы все его сессии были в синхроне
func (s *MessageService) SendDirect(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*models.ChatMessage, error) {
	if content == "" {
		return nil, apperrors.InvalidArg("message content must not be empty")
	}

	exists, err := s.users.UserExists(receiverID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check receiver", err)
	}
	if !exists {
		return nil, apperrors.NotFound("receiver user not found")
	}

	msgType, body, imageURL := detectImageContent(content)
	if msgType == models.MessageTypeText && len([]rune(body)) > maxContentLength {
		return nil, apperrors.InvalidArg("message content is too long")
	}

	message := &models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    body,
		Type:       msgType,
		ImageURL:   imageURL,
		SentAt:     time.Now(),
	}

	if err := s.messages.SaveDirectMessage(message); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to save message", err)
	}

	payload := directMessageDTO(message)
	s.notifier.DeliverToUser(receiverID, websocket.EventReceiveMessage, payload)
	s.notifier.DeliverToUser(senderID, websocket.EventReceiveMessage, payload)

	return message, nil
}

// SendGroup сохраняет групповое сообщение и раздает его в канал группы
func (s *MessageService) SendGroup(ctx context.Context, senderID uuid.UUID, groupID uint, content string) (*models.GroupMessage, error) {
	if content == "" {
		return nil, apperrors.InvalidArg("message content must not be empty")
	}

	isMember, err := s.groups.IsGroupMember(groupID, senderID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check group membership", err)
	}
	if !isMember {
		return nil, apperrors.Forbidden("you are not a member of this group")
	}

	msgType, body, imageURL := detectImageContent(content)
	if msgType == models.MessageTypeText && len([]rune(body)) > maxContentLength {
		return nil, apperrors.InvalidArg("message content is too long")
	}

	message := &models.GroupMessage{
		GroupID:  groupID,
		SenderID: senderID,
		Content:  body,
		Type:     msgType,
		ImageURL: imageURL,
		SentAt:   time.Now(),
	}

	if err := s.messages.SaveGroupMessage(message); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to save group message", err)
	}

	s.notifier.DeliverToGroup(groupID, websocket.EventReceiveGroupMessage, groupMessageDTO(message))

	return message, nil
}

// SendDirectImage сохраняет сообщение-картинку с уже загруженным URL.
// Приходит из загрузчика файлов, дальше путь тот же, что у SendDirect.
func (s *MessageService) SendDirectImage(ctx context.Context, senderID, receiverID uuid.UUID, imageURL string) (*models.ChatMessage, error) {
	if imageURL == "" {
		return nil, apperrors.InvalidArg("image url must not be empty")
	}

	exists, err := s.users.UserExists(receiverID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check receiver", err)
	}
	if !exists {
		return nil, apperrors.NotFound("receiver user not found")
	}

	message := &models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    imagePlaceholder,
		Type:       models.MessageTypeImage,
		ImageURL:   imageURL,
		SentAt:     time.Now(),
	}

	if err := s.messages.SaveDirectMessage(message); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to save message", err)
	}

	payload := directMessageDTO(message)
	s.notifier.DeliverToUser(receiverID, websocket.EventReceiveMessage, payload)
	s.notifier.DeliverToUser(senderID, websocket.EventReceiveMessage, payload)

	return message, nil
}

// SendGroupImage - то же для группового чата
func (s *MessageService) SendGroupImage(ctx context.Context, senderID uuid.UUID, groupID uint, imageURL string) (*models.GroupMessage, error) {
	if imageURL == "" {
		return nil, apperrors.InvalidArg("image url must not be empty")
	}

	isMember, err := s.groups.IsGroupMember(groupID, senderID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check group membership", err)
	}
	if !isMember {
		return nil, apperrors.Forbidden("you are not a member of this group")
	}

	message := &models.GroupMessage{
		GroupID:  groupID,
		SenderID: senderID,
		Content:  imagePlaceholder,
		Type:     models.MessageTypeImage,
		ImageURL: imageURL,
		SentAt:   time.Now(),
	}

	if err := s.messages.SaveGroupMessage(message); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to save group message", err)
	}

	s.notifier.DeliverToGroup(groupID, websocket.EventReceiveGroupMessage, groupMessageDTO(message))

	return message, nil
}

// History получает страницу переписки, новые первыми.
// hasMore считается по полному количеству, а не по размеру страницы.
func (s *MessageService) History(ctx context.Context, userA, userB uuid.UUID, page, pageSize int) ([]DirectMessageDTO, bool, error) {
	page, pageSize = clampPaging(page, pageSize)

	messages, err := s.messages.GetDirectHistory(userA, userB, page, pageSize)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.CodeInternal, "failed to load history", err)
	}

	total, err := s.messages.CountDirectHistory(userA, userB)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.CodeInternal, "failed to count history", err)
	}

	result := make([]DirectMessageDTO, len(messages))
	for i := range messages {
		result[i] = directMessageDTO(&messages[i])
	}
	return result, int64(page*pageSize) < total, nil
}

// HistoryGroup - то же для группового чата
func (s *MessageService) HistoryGroup(ctx context.Context, groupID uint, page, pageSize int) ([]GroupMessageDTO, bool, error) {
	page, pageSize = clampPaging(page, pageSize)

	messages, err := s.messages.GetGroupHistory(groupID, page, pageSize)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.CodeInternal, "failed to load group history", err)
	}

	total, err := s.messages.CountGroupHistory(groupID)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.CodeInternal, "failed to count group history", err)
	}

	result := make([]GroupMessageDTO, len(messages))
	for i := range messages {
		result[i] = groupMessageDTO(&messages[i])
	}
	return result, int64(page*pageSize) < total, nil
}

// LatestSince получает сообщения строго новее отметки - инкрементальная
// синхронизация клиента вместо полной пагинации
func (s *MessageService) LatestSince(ctx context.Context, userA, userB uuid.UUID, since time.Time, limit int) ([]DirectMessageDTO, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	messages, err := s.messages.GetDirectSince(userA, userB, since, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load latest messages", err)
	}

	result := make([]DirectMessageDTO, len(messages))
	for i := range messages {
		result[i] = directMessageDTO(&messages[i])
	}
	return result, nil
}

// MarkRead идемпотентно помечает сообщение прочитанным
func (s *MessageService) MarkRead(ctx context.Context, messageID uint) error {
	if _, err := s.messages.GetDirectMessage(messageID); err != nil {
		return apperrors.NotFound("message not found")
	}
	if err := s.messages.MarkMessageRead(messageID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to mark message as read", err)
	}
	return nil
}

func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

func directMessageDTO(m *models.ChatMessage) DirectMessageDTO {
	return DirectMessageDTO{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		SentAt:     m.SentAt,
		IsRead:     m.IsRead,
		Type:       m.Type,
		ImageURL:   m.ImageURL,
	}
}

func groupMessageDTO(m *models.GroupMessage) GroupMessageDTO {
	return GroupMessageDTO{
		ID:       m.ID,
		GroupID:  m.GroupID,
		SenderID: m.SenderID,
		Content:  m.Content,
		SentAt:   m.SentAt,
		Type:     m.Type,
		ImageURL: m.ImageURL,
	}
}
