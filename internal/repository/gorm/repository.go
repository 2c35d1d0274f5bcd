package gormrepository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parimarket/internal/models"
	"parimarket/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// lockForUpdate adds SELECT ... FOR UPDATE. SQLite (used by the test suite)
// does not support the clause and serializes writers on its own, so it is
// skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// --- users ------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if s == nil || s.db == nil || user == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) CreateUserTx(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if user == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(user).Error
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.User, error) {
	var user models.User
	if err := lockForUpdate(tx.WithContext(ctx)).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUserPointsTx(ctx context.Context, tx *gorm.DB, id uint64, points int64) error {
	return tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("points", points).Error
}

func (s *Store) UpdateUserDailyClaimTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_daily_claim_at", at).Error
}

// --- points ledger ----------------------------------------------------------

func (s *Store) InsertLedgerEntryTx(ctx context.Context, tx *gorm.DB, entry *models.PointsLedgerEntry) error {
	if entry == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(entry).Error
}

func (s *Store) ListLedgerEntries(ctx context.Context, params repository.ListLedgerParams) ([]models.PointsLedgerEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.PointsLedgerEntry{}).
		Where("user_id = ?", params.UserID)
	if params.Reason != nil && *params.Reason != "" {
		query = query.Where("reason = ?", *params.Reason)
	}
	if params.EventID != nil {
		query = query.Where("event_id = ?", *params.EventID)
	}
	order := "id desc"
	if params.Asc {
		order = "id asc"
	}
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.PointsLedgerEntry
	if err := query.Order(order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- events -----------------------------------------------------------------

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	if s == nil || s.db == nil || event == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *Store) GetEventByID(ctx context.Context, id uint64) (*models.Event, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Store) GetEventForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Event, error) {
	var event models.Event
	if err := lockForUpdate(tx.WithContext(ctx)).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Store) ListEvents(ctx context.Context, params repository.ListEventsParams) ([]models.Event, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Event{})
	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	}
	if params.ResolutionStatus != nil && *params.ResolutionStatus != "" {
		query = query.Where("resolution_status = ?", *params.ResolutionStatus)
	}
	if params.Kind != nil && *params.Kind != "" {
		query = query.Where("kind = ?", *params.Kind)
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Event
	if err := query.Order("end_time asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListDueEvents returns unresolved events whose betting window has closed,
// oldest deadline first.
func (s *Store) ListDueEvents(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 50)
	var items []models.Event
	err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("resolution_status = ?", models.ResolutionPending).
		Where("is_suspended = ?", false).
		Where("end_time <= ?", now).
		Order("end_time asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateEventTx(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	if event == nil {
		return nil
	}
	return tx.WithContext(ctx).Save(event).Error
}

func (s *Store) SetEventSuspended(ctx context.Context, id uint64, suspended bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	status := models.EventStatusActive
	if suspended {
		status = models.EventStatusSuspended
	}
	return s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Where("resolution_status = ?", models.ResolutionPending).
		Updates(map[string]any{
			"is_suspended": suspended,
			"status":       status,
		}).Error
}

// --- participants -----------------------------------------------------------

func (s *Store) GetParticipantTx(ctx context.Context, tx *gorm.DB, eventID, userID uint64) (*models.Participant, error) {
	var p models.Participant
	err := tx.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) InsertParticipantTx(ctx context.Context, tx *gorm.DB, p *models.Participant) error {
	if p == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(p).Error
}

func (s *Store) ListParticipantsByEventTx(ctx context.Context, tx *gorm.DB, eventID uint64) ([]models.Participant, error) {
	var items []models.Participant
	err := tx.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListParticipantsByEvent(ctx context.Context, eventID uint64) ([]models.Participant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	return s.ListParticipantsByEventTx(ctx, s.db, eventID)
}

func (s *Store) ListParticipantsByUser(ctx context.Context, userID uint64) ([]models.Participant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Participant
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- settlement records -----------------------------------------------------

func (s *Store) InsertOutcomesTx(ctx context.Context, tx *gorm.DB, items []models.EventOutcome) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (s *Store) ListOutcomesByEvent(ctx context.Context, eventID uint64) ([]models.EventOutcome, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.EventOutcome
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertPlatformFeesTx(ctx context.Context, tx *gorm.DB, items []models.PlatformFeeRecord) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (s *Store) ListPlatformFeesByEvent(ctx context.Context, eventID uint64) ([]models.PlatformFeeRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PlatformFeeRecord
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertAuditLogTx(ctx context.Context, tx *gorm.DB, item *models.AuditLog) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAuditLogsByEvent(ctx context.Context, eventID uint64) ([]models.AuditLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- resolution state -------------------------------------------------------

func (s *Store) UpsertResolutionState(ctx context.Context, state *models.ResolutionState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_run_at",
			"last_event_id",
			"last_outcome",
			"last_error",
			"updated_at",
		}),
	}).Create(state).Error
}

func (s *Store) GetResolutionState(ctx context.Context, scope string) (*models.ResolutionState, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var state models.ResolutionState
	if err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 || limit > 1000 {
		return fallback
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
