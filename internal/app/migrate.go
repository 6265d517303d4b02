package app

import (
	"fmt"

	"realestate_backend/internal/inquiry"
	"realestate_backend/internal/property"
	"realestate_backend/internal/review"
	"realestate_backend/internal/settings"
	"realestate_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table owned by the SQL storage drivers.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&property.Counter{},
		&property.Property{},
		&review.Review{},
		&inquiry.Inquiry{},
		&settings.Settings{},
	}
}

// Migrate creates or updates the SQL schema. It is a no-op when db is nil
// (Firestore storage).
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	logger.Info("Database schema is up to date.", zap.Int("tables", len(Models())))
	return nil
}
