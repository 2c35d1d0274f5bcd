package models

import (
	"time"
)

const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)

// EventOutcome records the settlement result for one participant.
// Written exactly once, at settlement time.
type EventOutcome struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	ParticipantID uint64 `gorm:"not null;uniqueIndex"`
	EventID       uint64 `gorm:"not null;index"`
	Result        string `gorm:"type:varchar(10);not null"`
	PointsAwarded int64  `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (EventOutcome) TableName() string {
	return "event_outcomes"
}
