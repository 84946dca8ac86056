package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"gorm.io/gorm"
	"time"
)

func (d *Database) SaveDirectMessage(message *models.ChatMessage) error {
	return d.db.Create(message).Error
}

func (d *Database) GetDirectMessage(id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkMessageRead идемпотентно помечает сообщение прочитанным
func (d *Database) MarkMessageRead(id uint) error {
	return d.db.Model(&models.ChatMessage{}).Where("id = ?", id).Update("is_read", true).Error
}

// GetDirectHistory получает страницу переписки между двумя пользователями.
// Порядок: новые первыми, при равном sent_at решает ID.
func (d *Database) GetDirectHistory(userA, userB uuid.UUID, page, pageSize int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := d.betweenUsers(userA, userB).
		Order("sent_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *Database) CountDirectHistory(userA, userB uuid.UUID) (int64, error) {
	var count int64
	err := d.betweenUsers(userA, userB).Count(&count).Error
	return count, err
}

// GetDirectSince получает сообщения строго новее заданного момента
func (d *Database) GetDirectSince(userA, userB uuid.UUID, since time.Time, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := d.betweenUsers(userA, userB).
		Where("sent_at > ?", since).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *Database) betweenUsers(userA, userB uuid.UUID) *gorm.DB {
	return d.db.Model(&models.ChatMessage{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA)
}

func (d *Database) SaveGroupMessage(message *models.GroupMessage) error {
	return d.db.Create(message).Error
}

func (d *Database) GetGroupHistory(groupID uint, page, pageSize int) ([]models.GroupMessage, error) {
	var messages []models.GroupMessage
	err := d.db.
		Where("group_id = ?", groupID).
		Order("sent_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *Database) CountGroupHistory(groupID uint) (int64, error) {
	var count int64
	err := d.db.Model(&models.GroupMessage{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}
