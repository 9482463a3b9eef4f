package db

import (
	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/internal/app/model"
)

// Migrate runs the schema migrations for every model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Store{},
		&model.StoreTag{},
		&model.Heart{},
		&model.Review{},
	)
}
