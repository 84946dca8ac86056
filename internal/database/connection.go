package database

import (
	"errors"
	"github.com/thereayou/vibelink/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"os"
)

func (d *Database) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	// TranslateError превращает нарушение уникального индекса в
	// gorm.ErrDuplicatedKey - на нем держится защита от гонки заявок
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ChatMessage{},
		&models.GroupChat{},
		&models.GroupMember{},
		&models.GroupMessage{},
		&models.Friendship{},
	)
	if err != nil {
		return err
	}

	d.db = db

	return nil
}
