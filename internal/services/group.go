package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"github.com/thereayou/vibelink/internal/websocket"
	"github.com/thereayou/vibelink/pkg/apperrors"
)

const maxGroupNameLength = 100

// GroupService управляет группами и членством в них
type GroupService struct {
	users    UserStore
	groups   GroupStore
	notifier Notifier
}

func NewGroupService(users UserStore, groups GroupStore, notifier Notifier) *GroupService {
	return &GroupService{users: users, groups: groups, notifier: notifier}
}

type GroupMemberDTO struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"isAdmin"`
	JoinedAt time.Time `json:"joinedAt"`
}

// CreateGroup создает группу: создатель всегда админ, дубликаты в
// списке участников схлопываются в одну запись членства
func (s *GroupService) CreateGroup(ctx context.Context, creatorID uuid.UUID, name, avatarURL string, memberIDs []uuid.UUID) (*models.GroupChat, error) {
	if name == "" {
		return nil, apperrors.InvalidArg("group name must not be empty")
	}
	if len([]rune(name)) > maxGroupNameLength {
		return nil, apperrors.InvalidArg("group name is too long")
	}

	now := time.Now()
	members := []models.GroupMember{
		{UserID: creatorID, IsAdmin: true, JoinedAt: now},
	}
	seen := map[uuid.UUID]bool{creatorID: true}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.GroupMember{UserID: id, IsAdmin: false, JoinedAt: now})
	}

	group := &models.GroupChat{
		Name:      name,
		AvatarURL: avatarURL,
		CreatedAt: now,
	}

	if err := s.groups.CreateGroupWithMembers(group, members); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create group", err)
	}

	return group, nil
}

// Rename меняет имя группы. Только для админов; остальным участникам
// уходит событие в канал группы.
func (s *GroupService) Rename(ctx context.Context, groupID uint, actingUserID uuid.UUID, name string) (*models.GroupChat, error) {
	if name == "" {
		return nil, apperrors.InvalidArg("group name must not be empty")
	}
	if len([]rune(name)) > maxGroupNameLength {
		return nil, apperrors.InvalidArg("group name is too long")
	}

	group, err := s.adminGate(groupID, actingUserID)
	if err != nil {
		return nil, err
	}

	group.Name = name
	if err := s.groups.UpdateGroup(group); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to rename group", err)
	}

	s.notifier.DeliverToGroup(groupID, websocket.EventGroupNameUpdated, map[string]interface{}{
		"groupId": groupID,
		"name":    group.Name,
		"actorId": actingUserID,
	})

	return group, nil
}

// ChangeAvatar меняет аватар группы, только для админов
func (s *GroupService) ChangeAvatar(ctx context.Context, groupID uint, actingUserID uuid.UUID, avatarURL string) (*models.GroupChat, error) {
	group, err := s.adminGate(groupID, actingUserID)
	if err != nil {
		return nil, err
	}

	group.AvatarURL = avatarURL
	if err := s.groups.UpdateGroup(group); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to change group avatar", err)
	}

	s.notifier.DeliverToGroup(groupID, websocket.EventGroupImageUpdated, map[string]interface{}{
		"groupId":   groupID,
		"avatarUrl": group.AvatarURL,
		"actorId":   actingUserID,
	})

	return group, nil
}

// AddMember добавляет пользователя в группу. После этого клиент
// добавленного шлет join_group, чтобы подписаться без переподключения.
func (s *GroupService) AddMember(ctx context.Context, groupID uint, actingUserID, newMemberID uuid.UUID) error {
	if _, err := s.adminGate(groupID, actingUserID); err != nil {
		return err
	}

	exists, err := s.users.UserExists(newMemberID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to check user", err)
	}
	if !exists {
		return apperrors.NotFound("user not found")
	}

	alreadyIn, err := s.groups.IsGroupMember(groupID, newMemberID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to check membership", err)
	}
	if alreadyIn {
		return apperrors.Conflict("user is already a member of this group")
	}

	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   newMemberID,
		IsAdmin:  false,
		JoinedAt: time.Now(),
	}
	if err := s.groups.AddGroupMember(member); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to add group member", err)
	}

	return nil
}

// ListGroups возвращает группы пользователя
func (s *GroupService) ListGroups(ctx context.Context, userID uuid.UUID) ([]models.GroupChat, error) {
	groups, err := s.groups.GetUserGroups(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list groups", err)
	}
	return groups, nil
}

// Members возвращает участников группы, только для её членов
func (s *GroupService) Members(ctx context.Context, groupID uint, requesterID uuid.UUID) ([]GroupMemberDTO, error) {
	isMember, err := s.groups.IsGroupMember(groupID, requesterID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check membership", err)
	}
	if !isMember {
		return nil, apperrors.Forbidden("you are not a member of this group")
	}

	members, err := s.groups.ListGroupMembers(groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list group members", err)
	}

	result := make([]GroupMemberDTO, len(members))
	for i, m := range members {
		result[i] = GroupMemberDTO{
			UserID:   m.UserID,
			Username: m.User.Username,
			IsAdmin:  m.IsAdmin,
			JoinedAt: m.JoinedAt,
		}
	}
	return result, nil
}

func (s *GroupService) adminGate(groupID uint, actingUserID uuid.UUID) (*models.GroupChat, error) {
	group, err := s.groups.GetGroup(groupID)
	if err != nil {
		return nil, apperrors.NotFound("group not found")
	}

	isAdmin, err := s.groups.IsGroupAdmin(groupID, actingUserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check admin rights", err)
	}
	if !isAdmin {
		return nil, apperrors.Forbidden("only group admins can do this")
	}

	return group, nil
}
