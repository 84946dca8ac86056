package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType определяет типы событий
type EventType string

const (
	// Системные типы
	TypePing EventType = "ping"
	TypePong EventType = "pong"

	// Входящие от клиента
	TypeDirectMessage EventType = "direct_message"
	TypeGroupMessage  EventType = "group_message"
	TypeTyping        EventType = "typing"
	TypeJoinGroup     EventType = "join_group"

	// Исходящие к клиенту - стабильный контракт
	EventReceiveMessage      EventType = "ReceiveMessage"
	EventReceiveGroupMessage EventType = "ReceiveGroupMessage"
	EventReceiveTyping       EventType = "ReceiveTypingStatus"
	EventFriendNotification  EventType = "ReceiveFriendNotification"
	EventGroupNameUpdated    EventType = "GroupNameUpdated"
	EventGroupImageUpdated   EventType = "GroupImageUpdated"
)

// Типы уведомлений внутри ReceiveFriendNotification
const (
	FriendRequestReceived  = "FriendRequestReceived"
	FriendRequestAccepted  = "FriendRequestAccepted"
	FriendRequestRejected  = "FriendRequestRejected"
	FriendRequestCancelled = "FriendRequestCancelled"
	FriendshipRemoved      = "FriendshipRemoved"
)

// Event - закрытая схема кадра на проводе. Неизвестные типы и кадры
// без обязательных полей отбрасываются на границе, а не извлекаются
// по ключам как попало.
type Event struct {
	Type       EventType       `json:"type"`
	GroupID    *uint           `json:"group_id,omitempty"`
	ReceiverID *uuid.UUID      `json:"receiver_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// GroupSource - доступ хаба к хранилищу членств в группах
type GroupSource interface {
	GetUserGroupIDs(userID uuid.UUID) ([]uint, error)
	IsGroupMember(groupID uint, userID uuid.UUID) (bool, error)
}

// Hub держит реестр подписок и живые соединения, раздает события
// в каналы. Создается явно при старте процесса (пустым) и один на
// процесс; остановка снимает все подписки.
type Hub struct {
	registry *Registry
	clients  map[uuid.UUID]*Client
	groups   GroupSource

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(groups GroupSource) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   NewRegistry(),
		clients:    make(map[uuid.UUID]*Client),
		groups:     groups,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub и снимает все подписки
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		h.registry.UnsubscribeAll(client.ID)
		close(client.Send)
		client.Conn.Close()
	}
	h.clients = make(map[uuid.UUID]*Client)
}

// Register регистрирует нового клиента. После остановки хаба
// возвращается сразу, чтобы не подвесить горутину соединения.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister отменяет регистрацию клиента. Не блокируется после
// остановки хаба: цикл Run уже никого не слушает.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	// Персональный канал - для личных сообщений и уведомлений
	h.registry.Subscribe(client.ID, UserChannel(client.UserID))

	// Подписываем на каналы всех групп пользователя. Членство
	// перечитывается из хранилища при каждом подключении.
	groupIDs, err := h.groups.GetUserGroupIDs(client.UserID)
	if err != nil {
		log.Printf("Failed to load groups for user %s: %v", client.UserID, err)
	} else {
		for _, groupID := range groupIDs {
			h.registry.Subscribe(client.ID, GroupChannel(groupID))
		}
	}

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

// unregisterClient снимает все подписки соединения. Идемпотентна и не
// падает, если соединение так и не было зарегистрировано до конца.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	h.registry.UnsubscribeAll(client.ID)
	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// JoinGroup подписывает соединение на канал группы по запросу клиента,
// когда его добавили в новую группу без переподключения.
// Членство перепроверяется по хранилищу.
func (h *Hub) JoinGroup(client *Client, groupID uint) error {
	isMember, err := h.groups.IsGroupMember(groupID, client.UserID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotGroupMember
	}

	h.registry.Subscribe(client.ID, GroupChannel(groupID))
	log.Printf("Client %s joined group channel %s", client.ID, GroupChannel(groupID))
	return nil
}

// DeliverToUser раздает событие всем живым соединениям пользователя.
// Ноль подписчиков - не ошибка: получатель оффлайн, сообщение уже
// сохранено, очередь доставки не нужна.
func (h *Hub) DeliverToUser(userID uuid.UUID, event EventType, payload interface{}) {
	h.deliver(UserChannel(userID), event, payload)
}

// DeliverToGroup раздает событие всем подписчикам канала группы
func (h *Hub) DeliverToGroup(groupID uint, event EventType, payload interface{}) {
	h.deliver(GroupChannel(groupID), event, payload)
}

// RelayTypingSignal передает статус набора текста. Никогда не
// персистится: если получатель оффлайн, сигнал просто теряется.
func (h *Hub) RelayTypingSignal(senderID, receiverID uuid.UUID, isTyping bool) {
	h.deliver(UserChannel(receiverID), EventReceiveTyping, map[string]interface{}{
		"senderId": senderID,
		"isTyping": isTyping,
	})
}

func (h *Hub) deliver(channel string, event EventType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal payload for %s: %v", event, err)
		return
	}

	frame, err := json.Marshal(Event{
		Type:      event,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("Failed to marshal frame for %s: %v", event, err)
		return
	}

	members := h.registry.MembersOf(channel)

	h.mu.RLock()
	defer h.mu.RUnlock()

	// Отказ одного подписчика не прерывает раздачу остальным
	for _, connID := range members {
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		select {
		case client.Send <- frame:
		default:
			log.Printf("Client %s send channel full, dropping %s", connID, event)
		}
	}
}

func (h *Hub) ping() {
	frame, err := json.Marshal(Event{Type: TypePing, Timestamp: time.Now()})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- frame:
		default:
		}
	}
}

// OnlineUsers возвращает пользователей, имеющих хотя бы одно живое соединение
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	users := make([]uuid.UUID, 0, len(h.clients))
	for _, client := range h.clients {
		if !seen[client.UserID] {
			seen[client.UserID] = true
			users = append(users, client.UserID)
		}
	}
	return users
}

// IsUserOnline проверяет присутствие по живым подпискам, а не по флагу в базе
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	return len(h.registry.MembersOf(UserChannel(userID))) > 0
}
