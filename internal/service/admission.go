package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"parimarket/internal/config"
	"parimarket/internal/models"
	"parimarket/internal/repository"
)

// Admission validates and commits new stakes. All preconditions are checked
// inside one transaction holding the event row lock, then the user row lock,
// so two concurrent bets on the same (event, user) serialize: one inserts,
// the other sees the row and fails with ErrDuplicateEntry.
type Admission struct {
	Repo   repository.Repository
	Ledger *Ledger
	Config config.MarketConfig
	Logger *zap.Logger

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

type PlacedBet struct {
	Participant models.Participant
	NewBalance  int64
}

func (a *Admission) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

// PlaceBet admits a stake of entryFee points on prediction for eventID.
// Any precondition failure rolls the transaction back with zero side effects.
func (a *Admission) PlaceBet(ctx context.Context, eventID, userID uint64, prediction string, entryFee int64) (*PlacedBet, error) {
	var placed PlacedBet
	err := a.Repo.InTx(ctx, func(tx *gorm.DB) error {
		event, err := a.Repo.GetEventForUpdateTx(ctx, tx, eventID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event %d: %w", eventID, err)
		}

		// Status re-checked under the lock: settlement also locks the event
		// row, so a bet can never slip in after resolution began.
		if event.ResolutionStatus != models.ResolutionPending || !event.Open(a.now()) {
			return ErrBettingClosed
		}

		allowed, err := a.allowedFees(event)
		if err != nil {
			return err
		}
		if !containsFee(allowed, entryFee) {
			return ErrInvalidEntryFee
		}

		if !event.HasOption(prediction) {
			return ErrInvalidPrediction
		}

		_, err = a.Repo.GetParticipantTx(ctx, tx, eventID, userID)
		if err == nil {
			return ErrDuplicateEntry
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check existing participant: %w", err)
		}

		user, err := a.Repo.GetUserForUpdateTx(ctx, tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user %d: %w", userID, err)
		}
		if user.Points < entryFee {
			return ErrInsufficientFunds
		}

		participant := models.Participant{
			EventID:    eventID,
			UserID:     userID,
			Prediction: prediction,
			Amount:     entryFee,
		}
		if err := a.Repo.InsertParticipantTx(ctx, tx, &participant); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}

		newBalance, err := a.Ledger.ApplyPointsChange(ctx, tx, userID, -entryFee, models.ReasonEventEntry, &eventID)
		if err != nil {
			return err
		}

		// Cached stats stay consistent with the participants table because
		// they change in the same transaction.
		event.ParticipantCount++
		event.TotalPool += entryFee
		if err := a.Repo.UpdateEventTx(ctx, tx, event); err != nil {
			return fmt.Errorf("update event stats: %w", err)
		}

		placed = PlacedBet{Participant: participant, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.Logger != nil {
		a.Logger.Info("bet placed",
			zap.Uint64("event_id", eventID),
			zap.Uint64("user_id", userID),
			zap.String("prediction", prediction),
			zap.Int64("amount", entryFee),
		)
	}
	return &placed, nil
}

func (a *Admission) allowedFees(event *models.Event) ([]int64, error) {
	fees, err := event.EntryFeeSet()
	if err != nil {
		return nil, err
	}
	if len(fees) > 0 {
		return fees, nil
	}
	return a.Config.AllowedEntryFees, nil
}

func containsFee(fees []int64, fee int64) bool {
	for _, f := range fees {
		if f == fee {
			return true
		}
	}
	return false
}
