package models

import (
	"time"
)

type User struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"type:varchar(100);not null;uniqueIndex"`

	// Points is mutated only through the ledger write; see service.Ledger.
	Points int64 `gorm:"not null;default:0"`

	LastDailyClaimAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
