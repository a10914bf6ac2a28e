package database

import (
	"habitpact/config"
	"habitpact/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open opens a SQLite database at the given path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY from the fire-and-forget activity writes
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto-migrate models
	err = db.AutoMigrate(
		&models.Profile{},
		&models.PhoneChallenge{},
		&models.Group{},
		&models.GroupMember{},
		&models.Invite{},
		&models.Habit{},
		&models.HabitCompletion{},
		&models.ActivityLog{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Connect() error {
	cfg := config.GetConfig()

	var err error
	DB, err = Open(cfg.DatabasePath)
	return err
}
