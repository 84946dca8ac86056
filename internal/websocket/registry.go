package websocket

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// UserChannel - персональный канал пользователя, ключ - сырой ID
func UserChannel(userID uuid.UUID) string {
	return userID.String()
}

// GroupChannel - канал группы, префикс отделяет его от каналов пользователей
func GroupChannel(groupID uint) string {
	return fmt.Sprintf("group_%d", groupID)
}

// Registry - реестр подписок: имя канала -> множество живых соединений.
// Чисто in-memory, ничего не персистится; при переподключении подписки
// восстанавливаются заново из хранилища членств. Безопасен для
// одновременных вызовов из множества соединений.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[uuid.UUID]struct{}
	byConn   map[uuid.UUID]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]map[uuid.UUID]struct{}),
		byConn:   make(map[uuid.UUID]map[string]struct{}),
	}
}

func (r *Registry) Subscribe(connID uuid.UUID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channel]; !ok {
		r.channels[channel] = make(map[uuid.UUID]struct{})
	}
	r.channels[channel][connID] = struct{}{}

	if _, ok := r.byConn[connID]; !ok {
		r.byConn[connID] = make(map[string]struct{})
	}
	r.byConn[connID][channel] = struct{}{}
}

func (r *Registry) Unsubscribe(connID uuid.UUID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeUnsafe(connID, channel)

	if chans, ok := r.byConn[connID]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// UnsubscribeAll снимает соединение со всех каналов. Идемпотентна:
// вызов для соединения, которое ни на что не подписано, безопасен.
func (r *Registry) UnsubscribeAll(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channel := range r.byConn[connID] {
		r.removeUnsafe(connID, channel)
	}
	delete(r.byConn, connID)
}

func (r *Registry) removeUnsafe(connID uuid.UUID, channel string) {
	if members, ok := r.channels[channel]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.channels, channel)
		}
	}
}

// MembersOf возвращает копию множества подписчиков канала.
// Пустой канал - не ошибка: получатель просто оффлайн.
func (r *Registry) MembersOf(channel string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]uuid.UUID, 0, len(r.channels[channel]))
	for connID := range r.channels[channel] {
		members = append(members, connID)
	}
	return members
}

// channelsOf возвращает каналы, на которые подписано соединение
func (r *Registry) channelsOf(connID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]string, 0, len(r.byConn[connID]))
	for channel := range r.byConn[connID] {
		channels = append(channels, channel)
	}
	return channels
}
