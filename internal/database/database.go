package database

import (
	"fmt"

	"github.com/echo88/core/internal/config"
	"github.com/echo88/core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.Database.DSNValue(),
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if autoMigrate {
		if err := migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

// migrate runs GORM auto-migration for all models.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.UserModel{},
		&models.UserSession{},
		&models.AuthToken{},
		&models.FollowModel{},
		&models.PostModel{},
		&models.PostLike{},
		&models.SavedPost{},
		&models.CollectionModel{},
		&models.HashtagModel{},
		&models.CommentModel{},
		&models.CommentLike{},
		&models.StoryModel{},
		&models.StoryView{},
		&models.ConversationModel{},
		&models.MessageModel{},
		&models.NotificationModel{},
	); err != nil {
		return err
	}
	return nil
}
