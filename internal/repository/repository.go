package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"parimarket/internal/models"
)

type ListLedgerParams struct {
	UserID  uint64
	Reason  *string
	EventID *uint64
	Limit   int
	Offset  int
	Asc     bool
}

type ListEventsParams struct {
	Status           *string
	ResolutionStatus *string
	Kind             *string
	Limit            int
	Offset           int
}

// Repository is the storage boundary for the settlement core and the HTTP
// layer. Methods suffixed Tx run against a caller-owned transaction; the
// ...ForUpdateTx variants acquire a row lock for the duration of that
// transaction.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	CreateUser(ctx context.Context, user *models.User) error
	CreateUserTx(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.User, error)
	UpdateUserPointsTx(ctx context.Context, tx *gorm.DB, id uint64, points int64) error
	UpdateUserDailyClaimTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time) error

	InsertLedgerEntryTx(ctx context.Context, tx *gorm.DB, entry *models.PointsLedgerEntry) error
	ListLedgerEntries(ctx context.Context, params ListLedgerParams) ([]models.PointsLedgerEntry, error)

	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id uint64) (*models.Event, error)
	GetEventForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Event, error)
	ListEvents(ctx context.Context, params ListEventsParams) ([]models.Event, error)
	ListDueEvents(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
	UpdateEventTx(ctx context.Context, tx *gorm.DB, event *models.Event) error
	SetEventSuspended(ctx context.Context, id uint64, suspended bool) error

	GetParticipantTx(ctx context.Context, tx *gorm.DB, eventID, userID uint64) (*models.Participant, error)
	InsertParticipantTx(ctx context.Context, tx *gorm.DB, p *models.Participant) error
	ListParticipantsByEventTx(ctx context.Context, tx *gorm.DB, eventID uint64) ([]models.Participant, error)
	ListParticipantsByEvent(ctx context.Context, eventID uint64) ([]models.Participant, error)
	ListParticipantsByUser(ctx context.Context, userID uint64) ([]models.Participant, error)

	InsertOutcomesTx(ctx context.Context, tx *gorm.DB, items []models.EventOutcome) error
	ListOutcomesByEvent(ctx context.Context, eventID uint64) ([]models.EventOutcome, error)
	InsertPlatformFeesTx(ctx context.Context, tx *gorm.DB, items []models.PlatformFeeRecord) error
	ListPlatformFeesByEvent(ctx context.Context, eventID uint64) ([]models.PlatformFeeRecord, error)
	InsertAuditLogTx(ctx context.Context, tx *gorm.DB, item *models.AuditLog) error
	ListAuditLogsByEvent(ctx context.Context, eventID uint64) ([]models.AuditLog, error)

	UpsertResolutionState(ctx context.Context, state *models.ResolutionState) error
	GetResolutionState(ctx context.Context, scope string) (*models.ResolutionState, error)
}
