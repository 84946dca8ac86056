package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"gorm.io/gorm"
)

// CreateGroupWithMembers создает группу и все записи членства одной транзакцией
func (d *Database) CreateGroupWithMembers(group *models.GroupChat, members []models.GroupMember) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		for i := range members {
			members[i].GroupID = group.ID
		}
		return tx.Create(&members).Error
	})
}

func (d *Database) GetGroup(id uint) (*models.GroupChat, error) {
	var group models.GroupChat
	if err := d.db.Preload("Members").First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (d *Database) UpdateGroup(group *models.GroupChat) error {
	return d.db.Save(group).Error
}

func (d *Database) AddGroupMember(member *models.GroupMember) error {
	return d.db.Create(member).Error
}

func (d *Database) IsGroupMember(groupID uint, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (d *Database) IsGroupAdmin(groupID uint, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ? AND is_admin = true", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetUserGroupIDs получает ID всех групп, где состоит пользователь.
// Вызывается хабом при каждом подключении для подписки на каналы групп.
func (d *Database) GetUserGroupIDs(userID uuid.UUID) ([]uint, error) {
	var ids []uint
	err := d.db.Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *Database) GetUserGroups(userID uuid.UUID) ([]models.GroupChat, error) {
	var groups []models.GroupChat
	err := d.db.
		Joins("JOIN group_members ON group_members.group_id = group_chats.id").
		Where("group_members.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (d *Database) ListGroupMembers(groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := d.db.
		Preload("User").
		Where("group_id = ?", groupID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
