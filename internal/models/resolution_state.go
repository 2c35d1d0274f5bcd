package models

import (
	"time"
)

// ResolutionState persists the scheduler's last attempt per scope so that
// status survives restarts and reads the same from every server instance.
type ResolutionState struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Scope       string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	LastRunAt   time.Time `gorm:"not null"`
	LastEventID *uint64
	LastOutcome *string `gorm:"type:text"`
	LastError   *string `gorm:"type:text"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ResolutionState) TableName() string {
	return "resolution_states"
}
