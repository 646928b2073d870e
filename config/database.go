package config

import (
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kioku-app/kioku-api/models"
	"github.com/kioku-app/kioku-api/scheduler"
)

var Database *gorm.DB

func Connect() error {
	var err error
	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which the review store relies on to detect
	// insert races.
	gormCfg := &gorm.Config{TranslateError: true}

	dbURL := os.Getenv("DB_URL")
	if dbURL != "" {
		Database, err = gorm.Open(postgres.Open(dbURL), gormCfg)
	} else {
		// Local development fallback
		Database, err = gorm.Open(sqlite.Open("kioku.db"), gormCfg)
	}
	if err != nil {
		panic("failed to connect database")
	}

	err = Database.AutoMigrate(
		&models.User{},
		&models.Deck{},
		&models.Card{},
		&models.DeckUnlock{},
		&models.AccountSettings{},
		&scheduler.ReviewRecord{},
	)
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}
