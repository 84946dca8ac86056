package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/vibelink/internal/models"
	"time"
)

func (d *Database) SaveUser(user *models.User) error {
	return d.db.Create(user).Error
}

func (d *Database) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

func (d *Database) GetUser(id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) UserExists(id uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (d *Database) UpdateLastSeen(id uuid.UUID) error {
	return d.db.Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}

// SearchUsers ищет пользователей по подстроке username или email,
// без учета регистра, исключая самого искателя
func (d *Database) SearchUsers(query string, excludeID uuid.UUID, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := d.db.
		Where("id != ?", excludeID).
		Where("username ILIKE ? OR email ILIKE ?", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
