package database

import (
	"github.com/wayfare/wayfare-backend/internal/config"
	"github.com/wayfare/wayfare-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	// TranslateError maps postgres unique violations to
	// gorm.ErrDuplicatedKey, which the handlers turn into 400 responses.
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Ride{},
		&models.RidePreference{},
		&models.RideBooking{},
	)
}
