package db

import (
	"parimarket/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.PointsLedgerEntry{},
		&models.Event{},
		&models.Participant{},
		&models.EventOutcome{},
		&models.PlatformFeeRecord{},
		&models.AuditLog{},
		&models.ResolutionState{},
	)
}
