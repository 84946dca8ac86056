package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"github.com/thereayou/vibelink/internal/websocket"
	"gorm.io/gorm"
)

// Фейки хранилищ для тестов сервисов. Поведение повторяет контракт
// реальной реализации: gorm.ErrRecordNotFound на отсутствующих записях,
// gorm.ErrDuplicatedKey на нарушении уникальности пары.

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetUser(id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UserExists(id uuid.UUID) (bool, error) {
	_, ok := s.users[id]
	return ok, nil
}

func (s *fakeUserStore) SearchUsers(query string, excludeID uuid.UUID, limit int) ([]models.User, error) {
	var result []models.User
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(u.Email), strings.ToLower(query)) {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type fakeFriendshipStore struct {
	rows   map[uint]*models.Friendship
	nextID uint

	// Имитация гонки: вставка падает с нарушением уникального
	// индекса, хотя предварительный поиск ничего не нашел
	failCreateWithDup bool
}

func newFakeFriendshipStore() *fakeFriendshipStore {
	return &fakeFriendshipStore{rows: make(map[uint]*models.Friendship), nextID: 1}
}

func (s *fakeFriendshipStore) add(f models.Friendship) *models.Friendship {
	f.ID = s.nextID
	s.nextID++
	stored := f
	s.rows[stored.ID] = &stored
	return &stored
}

func (s *fakeFriendshipStore) CreateFriendship(f *models.Friendship) error {
	if s.failCreateWithDup {
		return gorm.ErrDuplicatedKey
	}
	for _, row := range s.rows {
		if row.RequesterID == f.RequesterID && row.ReceiverID == f.ReceiverID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.ID = s.nextID
	s.nextID++
	stored := *f
	s.rows[f.ID] = &stored
	return nil
}

func (s *fakeFriendshipStore) GetFriendship(id uint) (*models.Friendship, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *fakeFriendshipStore) FindFriendshipBetween(userA, userB uuid.UUID) (*models.Friendship, error) {
	for _, row := range s.rows {
		if (row.RequesterID == userA && row.ReceiverID == userB) ||
			(row.RequesterID == userB && row.ReceiverID == userA) {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeFriendshipStore) UpdateFriendship(f *models.Friendship) error {
	if _, ok := s.rows[f.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *f
	s.rows[f.ID] = &stored
	return nil
}

func (s *fakeFriendshipStore) DeleteFriendship(id uint) error {
	delete(s.rows, id)
	return nil
}

func (s *fakeFriendshipStore) ReplaceFriendship(oldID uint, f *models.Friendship) error {
	delete(s.rows, oldID)
	return s.CreateFriendship(f)
}

func (s *fakeFriendshipStore) ListPendingFor(receiverID uuid.UUID) ([]models.Friendship, error) {
	var result []models.Friendship
	for _, row := range s.rows {
		if row.ReceiverID == receiverID && row.Status == models.FriendshipPending {
			result = append(result, *row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *fakeFriendshipStore) ListAcceptedFor(userID uuid.UUID) ([]models.Friendship, error) {
	var result []models.Friendship
	for _, row := range s.rows {
		if row.Status == models.FriendshipAccepted &&
			(row.RequesterID == userID || row.ReceiverID == userID) {
			result = append(result, *row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *fakeFriendshipStore) ListFriendshipsWith(userID uuid.UUID, otherIDs []uuid.UUID) ([]models.Friendship, error) {
	wanted := make(map[uuid.UUID]bool, len(otherIDs))
	for _, id := range otherIDs {
		wanted[id] = true
	}
	var result []models.Friendship
	for _, row := range s.rows {
		if row.RequesterID == userID && wanted[row.ReceiverID] {
			result = append(result, *row)
		}
		if row.ReceiverID == userID && wanted[row.RequesterID] {
			result = append(result, *row)
		}
	}
	return result, nil
}

type fakeMessageStore struct {
	direct     []models.ChatMessage
	group      []models.GroupMessage
	nextDirect uint
	nextGroup  uint

	// Имитация отказа хранилища при записи
	saveDirectErr error
	saveGroupErr  error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{nextDirect: 1, nextGroup: 1}
}

func (s *fakeMessageStore) SaveDirectMessage(m *models.ChatMessage) error {
	if s.saveDirectErr != nil {
		return s.saveDirectErr
	}
	m.ID = s.nextDirect
	s.nextDirect++
	s.direct = append(s.direct, *m)
	return nil
}

func (s *fakeMessageStore) GetDirectMessage(id uint) (*models.ChatMessage, error) {
	for i := range s.direct {
		if s.direct[i].ID == id {
			copied := s.direct[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeMessageStore) MarkMessageRead(id uint) error {
	for i := range s.direct {
		if s.direct[i].ID == id {
			s.direct[i].IsRead = true
			return nil
		}
	}
	return nil
}

func (s *fakeMessageStore) betweenUsers(userA, userB uuid.UUID) []models.ChatMessage {
	var result []models.ChatMessage
	for _, m := range s.direct {
		if (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA) {
			result = append(result, m)
		}
	}
	return result
}

func (s *fakeMessageStore) GetDirectHistory(userA, userB uuid.UUID, page, pageSize int) ([]models.ChatMessage, error) {
	all := s.betweenUsers(userA, userB)
	sort.Slice(all, func(i, j int) bool {
		if !all[i].SentAt.Equal(all[j].SentAt) {
			return all[i].SentAt.After(all[j].SentAt)
		}
		return all[i].ID > all[j].ID
	})
	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *fakeMessageStore) CountDirectHistory(userA, userB uuid.UUID) (int64, error) {
	return int64(len(s.betweenUsers(userA, userB))), nil
}

func (s *fakeMessageStore) GetDirectSince(userA, userB uuid.UUID, since time.Time, limit int) ([]models.ChatMessage, error) {
	var result []models.ChatMessage
	for _, m := range s.betweenUsers(userA, userB) {
		if m.SentAt.After(since) {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *fakeMessageStore) SaveGroupMessage(m *models.GroupMessage) error {
	if s.saveGroupErr != nil {
		return s.saveGroupErr
	}
	m.ID = s.nextGroup
	s.nextGroup++
	s.group = append(s.group, *m)
	return nil
}

func (s *fakeMessageStore) GetGroupHistory(groupID uint, page, pageSize int) ([]models.GroupMessage, error) {
	var all []models.GroupMessage
	for _, m := range s.group {
		if m.GroupID == groupID {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].SentAt.Equal(all[j].SentAt) {
			return all[i].SentAt.After(all[j].SentAt)
		}
		return all[i].ID > all[j].ID
	})
	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *fakeMessageStore) CountGroupHistory(groupID uint) (int64, error) {
	var n int64
	for _, m := range s.group {
		if m.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

type fakeGroupStore struct {
	groups  map[uint]*models.GroupChat
	members []models.GroupMember
	nextID  uint
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[uint]*models.GroupChat), nextID: 1}
}

func (s *fakeGroupStore) CreateGroupWithMembers(group *models.GroupChat, members []models.GroupMember) error {
	group.ID = s.nextID
	s.nextID++
	stored := *group
	s.groups[group.ID] = &stored
	for _, m := range members {
		m.GroupID = group.ID
		s.members = append(s.members, m)
	}
	return nil
}

func (s *fakeGroupStore) GetGroup(id uint) (*models.GroupChat, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *g
	return &copied, nil
}

func (s *fakeGroupStore) UpdateGroup(group *models.GroupChat) error {
	if _, ok := s.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *group
	s.groups[group.ID] = &stored
	return nil
}

func (s *fakeGroupStore) AddGroupMember(member *models.GroupMember) error {
	s.members = append(s.members, *member)
	return nil
}

func (s *fakeGroupStore) IsGroupMember(groupID uint, userID uuid.UUID) (bool, error) {
	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeGroupStore) IsGroupAdmin(groupID uint, userID uuid.UUID) (bool, error) {
	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID && m.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeGroupStore) GetUserGroups(userID uuid.UUID) ([]models.GroupChat, error) {
	var result []models.GroupChat
	for _, m := range s.members {
		if m.UserID == userID {
			if g, ok := s.groups[m.GroupID]; ok {
				result = append(result, *g)
			}
		}
	}
	return result, nil
}

func (s *fakeGroupStore) ListGroupMembers(groupID uint) ([]models.GroupMember, error) {
	var result []models.GroupMember
	for _, m := range s.members {
		if m.GroupID == groupID {
			result = append(result, m)
		}
	}
	return result, nil
}

// delivered - одно зафиксированное событие фейкового Notifier
type delivered struct {
	UserID  *uuid.UUID
	GroupID *uint
	Event   websocket.EventType
	Payload interface{}
}

type fakeNotifier struct {
	events []delivered
}

func (n *fakeNotifier) DeliverToUser(userID uuid.UUID, event websocket.EventType, payload interface{}) {
	id := userID
	n.events = append(n.events, delivered{UserID: &id, Event: event, Payload: payload})
}

func (n *fakeNotifier) DeliverToGroup(groupID uint, event websocket.EventType, payload interface{}) {
	id := groupID
	n.events = append(n.events, delivered{GroupID: &id, Event: event, Payload: payload})
}

func (n *fakeNotifier) toUser(userID uuid.UUID) []delivered {
	var result []delivered
	for _, e := range n.events {
		if e.UserID != nil && *e.UserID == userID {
			result = append(result, e)
		}
	}
	return result
}

func (n *fakeNotifier) toGroup(groupID uint) []delivered {
	var result []delivered
	for _, e := range n.events {
		if e.GroupID != nil && *e.GroupID == groupID {
			result = append(result, e)
		}
	}
	return result
}

type fakeNames map[uuid.UUID]string

func (n fakeNames) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	name, ok := n[id]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return name, nil
}
