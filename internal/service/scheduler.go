package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"parimarket/internal/config"
	"parimarket/internal/models"
	"parimarket/internal/repository"
)

// SchedulerScope keys the persisted last-attempt record. A row in
// resolution_states replaces the in-process "last resolution attempt" global:
// it survives restarts and reads the same from every instance.
const SchedulerScope = "scheduler"

// Outcome labels the scheduler can derive for crypto_price events. Events
// whose options do not use these labels fall through to manual resolution.
const (
	outcomeUp   = "up"
	outcomeDown = "down"
)

type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

var errManualResolution = errors.New("event requires manual resolution")

// Scheduler scans for events past their betting window and feeds the
// settlement engine. It only derives outcomes for crypto_price events
// (final vs. initial price); sports and custom events are resolved through
// the admin endpoint.
type Scheduler struct {
	Repo       repository.Repository
	Settlement *Settlement
	Prices     PriceSource
	Config     config.ResolutionConfig
	Logger     *zap.Logger

	Now func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// RunOnce performs a single scheduler tick. Failures on one event never stop
// the rest of the batch; every attempt is recorded in resolution_states.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.now()
	events, err := s.Repo.ListDueEvents(ctx, now, s.Config.BatchSize)
	if err != nil {
		return fmt.Errorf("list due events: %w", err)
	}

	for i := range events {
		event := &events[i]
		outcome, finalPrice, err := s.determineOutcome(ctx, event)
		if errors.Is(err, errManualResolution) {
			continue
		}
		if err != nil {
			s.logWarn("outcome determination failed", err, event.ID)
			s.recordAttempt(ctx, now, event.ID, nil, err)
			continue
		}

		_, err = s.Settlement.Resolve(ctx, event.ID, outcome, finalPrice, SchedulerScope)
		switch {
		case errors.Is(err, ErrAlreadyResolved):
			// Duplicate trigger; settled by a concurrent instance. Benign.
		case errors.Is(err, ErrNoBets):
			// Degenerate case: nothing to distribute. The event stays
			// pending for an operator to close explicitly.
			if s.Logger != nil {
				s.Logger.Info("due event has no bets, left pending", zap.Uint64("event_id", event.ID))
			}
			s.recordAttempt(ctx, now, event.ID, nil, err)
		case err != nil:
			// Transient storage failures land here; the transaction rolled
			// back, so retrying on the next tick is safe.
			s.logWarn("settlement failed", err, event.ID)
			s.recordAttempt(ctx, now, event.ID, nil, err)
		default:
			s.recordAttempt(ctx, now, event.ID, &outcome, nil)
		}
	}
	return nil
}

func (s *Scheduler) determineOutcome(ctx context.Context, event *models.Event) (string, *decimal.Decimal, error) {
	if event.Kind != models.EventKindCryptoPrice {
		return "", nil, errManualResolution
	}
	if event.InitialPrice == nil || event.PriceSymbol == nil {
		return "", nil, fmt.Errorf("crypto event %d missing initial price or symbol", event.ID)
	}
	if !event.HasOption(outcomeUp) || !event.HasOption(outcomeDown) {
		// Range-bucketed or otherwise exotic option sets are not derived
		// automatically.
		return "", nil, errManualResolution
	}

	final, err := s.Prices.FetchPrice(ctx, *event.PriceSymbol)
	if err != nil {
		return "", nil, fmt.Errorf("fetch final price for event %d: %w", event.ID, err)
	}

	outcome := outcomeDown
	if final.GreaterThan(*event.InitialPrice) {
		outcome = outcomeUp
	}
	return outcome, &final, nil
}

func (s *Scheduler) recordAttempt(ctx context.Context, at time.Time, eventID uint64, outcome *string, attemptErr error) {
	state := &models.ResolutionState{
		Scope:       SchedulerScope,
		LastRunAt:   at,
		LastEventID: &eventID,
		LastOutcome: outcome,
	}
	if attemptErr != nil {
		msg := attemptErr.Error()
		state.LastError = &msg
	}
	if err := s.Repo.UpsertResolutionState(ctx, state); err != nil {
		s.logWarn("record resolution state failed", err, eventID)
	}
}

func (s *Scheduler) logWarn(msg string, err error, eventID uint64) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, zap.Uint64("event_id", eventID), zap.Error(err))
}
