package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	EventStatusActive    = "active"
	EventStatusSuspended = "suspended"
	EventStatusResolved  = "resolved"

	ResolutionPending  = "pending"
	ResolutionResolved = "resolved"
)

const (
	EventKindCryptoPrice = "crypto_price"
	EventKindSportsMatch = "sports_match"
	EventKindCustom      = "custom"
)

type Event struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	Title string `gorm:"type:text;not null"`
	Kind  string `gorm:"type:varchar(20);not null;default:'custom';index"`

	// Options is the canonical ordered list of outcome labels (JSON array of
	// strings). Incoming label/value shapes are normalized before storage;
	// see NormalizeOptions.
	Options datatypes.JSON `gorm:"type:jsonb;not null"`

	// AllowedEntryFees optionally overrides the global entry fee set for this
	// event (JSON array of integers). Empty means use the global set.
	AllowedEntryFees datatypes.JSON `gorm:"type:jsonb"`

	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null;index"`

	Status           string `gorm:"type:varchar(20);not null;default:'active';index"`
	ResolutionStatus string `gorm:"type:varchar(20);not null;default:'pending';index"`
	IsSuspended      bool   `gorm:"not null;default:false"`

	// Price bounds for crypto_price events; unused for other kinds.
	PriceSymbol   *string          `gorm:"type:varchar(20)"`
	InitialPrice  *decimal.Decimal `gorm:"type:numeric(30,10)"`
	FinalPrice    *decimal.Decimal `gorm:"type:numeric(30,10)"`
	CorrectAnswer *string          `gorm:"type:text"`

	// PlatformFee accumulates the pool-level fee taken at settlement.
	PlatformFee int64 `gorm:"not null;default:0"`

	// Cached stats, derived from the participants table and refreshed inside
	// the admission transaction. Recomputable if ever desynchronized.
	ParticipantCount int   `gorm:"not null;default:0"`
	TotalPool        int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

// Open reports whether the event currently admits new bets, given now.
// Resolution state is checked separately under the event row lock.
func (e *Event) Open(now time.Time) bool {
	if e.Status != EventStatusActive || e.IsSuspended {
		return false
	}
	return now.Before(e.EndTime)
}
