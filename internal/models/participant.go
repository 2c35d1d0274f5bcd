package models

import (
	"time"
)

// Participant is a user's stake in an event. The unique index backs up the
// in-transaction duplicate check performed under the event row lock.
type Participant struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	EventID    uint64 `gorm:"not null;uniqueIndex:uniq_participant_event_user,priority:1"`
	UserID     uint64 `gorm:"not null;uniqueIndex:uniq_participant_event_user,priority:2;index"`
	Prediction string `gorm:"type:text;not null"`
	Amount     int64  `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Participant) TableName() string {
	return "participants"
}
