package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateFriendship(f *models.Friendship) error {
	return d.db.Create(f).Error
}

func (d *Database) GetFriendship(id uint) (*models.Friendship, error) {
	var f models.Friendship
	if err := d.db.First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// FindFriendshipBetween ищет запись для неупорядоченной пары в обоих направлениях
func (d *Database) FindFriendshipBetween(userA, userB uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	err := d.db.
		Where("(requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (d *Database) UpdateFriendship(f *models.Friendship) error {
	return d.db.Save(f).Error
}

func (d *Database) DeleteFriendship(id uint) error {
	return d.db.Delete(&models.Friendship{}, "id = ?", id).Error
}

// ReplaceFriendship атомарно удаляет старую запись пары и вставляет новую.
// Используется для повторной заявки после отказа.
func (d *Database) ReplaceFriendship(oldID uint, f *models.Friendship) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Friendship{}, "id = ?", oldID).Error; err != nil {
			return err
		}
		return tx.Create(f).Error
	})
}

// ListPendingFor получает входящие заявки пользователя вместе с отправителями
func (d *Database) ListPendingFor(receiverID uuid.UUID) ([]models.Friendship, error) {
	var requests []models.Friendship
	err := d.db.
		Preload("Requester").
		Where("receiver_id = ? AND status = ?", receiverID, models.FriendshipPending).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ListAcceptedFor получает все принятые дружбы, затрагивающие пользователя
func (d *Database) ListAcceptedFor(userID uuid.UUID) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := d.db.
		Preload("Requester").
		Preload("Receiver").
		Where("status = ? AND (requester_id = ? OR receiver_id = ?)",
			models.FriendshipAccepted, userID, userID).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	return friendships, nil
}

// ListFriendshipsWith получает записи между пользователем и набором других
func (d *Database) ListFriendshipsWith(userID uuid.UUID, otherIDs []uuid.UUID) ([]models.Friendship, error) {
	if len(otherIDs) == 0 {
		return nil, nil
	}
	var friendships []models.Friendship
	err := d.db.
		Where("(requester_id = ? AND receiver_id IN ?) OR (requester_id IN ? AND receiver_id = ?)",
			userID, otherIDs, otherIDs, userID).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	return friendships, nil
}
