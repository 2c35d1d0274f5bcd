package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditEventResolution  = "event_resolution"
	AuditManualPayout     = "manual_payout_distribution"
	AuditEventSuspended   = "event_suspended"
	AuditEventUnsuspended = "event_unsuspended"
)

// AuditLog is a write-once snapshot for forensic reconstruction of a
// settlement or admin action.
type AuditLog struct {
	ID      uint64         `gorm:"primaryKey;autoIncrement"`
	EventID uint64         `gorm:"not null;index"`
	Action  string         `gorm:"type:varchar(50);not null;index"`
	Details datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
