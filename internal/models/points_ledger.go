package models

import (
	"time"
)

// Ledger reasons. Every balance mutation carries exactly one of these.
const (
	ReasonEventEntry          = "event_entry"
	ReasonEventWin            = "event_win"
	ReasonRegistration        = "registration"
	ReasonDailyClaim          = "daily_claim"
	ReasonPlatformFeeTransfer = "platform_fee_transfer"
)

// PointsLedgerEntry is an append-only record of a single balance change.
// NewBalance snapshots the post-change balance so that replaying a user's
// entries in creation order reconstructs the balance sequence exactly.
type PointsLedgerEntry struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	UserID       uint64  `gorm:"not null;index:idx_points_ledger_user_created,priority:1"`
	ChangeAmount int64   `gorm:"not null"`
	NewBalance   int64   `gorm:"not null"`
	Reason       string  `gorm:"type:varchar(50);not null;index"`
	EventID      *uint64 `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_points_ledger_user_created,priority:2"`
}

func (PointsLedgerEntry) TableName() string {
	return "points_ledger"
}
