package models

import (
	"time"
)

// PlatformFeeRecord is the per-stake nominal fee contribution. It is
// informational: the event-level PlatformFee (floor of the whole pool) is
// authoritative, and per-stake floors do not sum to it exactly.
type PlatformFeeRecord struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	EventID       uint64 `gorm:"not null;index"`
	ParticipantID uint64 `gorm:"not null;index"`
	FeeAmount     int64  `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PlatformFeeRecord) TableName() string {
	return "platform_fees"
}
