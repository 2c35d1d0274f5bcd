package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"parimarket/internal/models"
	"parimarket/internal/repository"
)

// Platform cut: 5% of the total pool, floored. Fixed system constant, not
// configurable per event.
const (
	feeRateNumerator   = 5
	feeRateDenominator = 100
)

// ResolutionNotice is fanned out to subscribers after a settlement commits.
// Delivery is best-effort and never part of the transaction.
type ResolutionNotice struct {
	EventID       uint64           `json:"event_id"`
	CorrectAnswer string           `json:"correct_answer"`
	FinalPrice    *decimal.Decimal `json:"final_price,omitempty"`
	Status        string           `json:"status"`
}

type Broadcaster interface {
	PublishResolution(notice ResolutionNotice)
}

// Settlement converts a resolved event plus its stake pool into a platform
// fee and proportional winner payouts, exactly once, in one transaction.
type Settlement struct {
	Repo        repository.Repository
	Ledger      *Ledger
	Broadcaster Broadcaster
	Logger      *zap.Logger
}

type SettlementResult struct {
	EventID        uint64 `json:"event_id"`
	WinningOutcome string `json:"winning_outcome"`
	Participants   int    `json:"participants"`
	Winners        int    `json:"winners"`
	TotalPool      int64  `json:"total_pool"`
	WinningPool    int64  `json:"winning_pool"`
	PlatformFee    int64  `json:"platform_fee"`
	NetPool        int64  `json:"net_pool"`
	Distributed    int64  `json:"distributed"`
}

// Resolve settles eventID with winningOutcome. finalPrice is recorded for
// audit/display only and plays no part in the payout math. resolver names the
// caller (scheduler identity or admin) for the audit trail.
//
// Re-invoking on a resolved event fails with ErrAlreadyResolved and leaves no
// side effects; this is what makes duplicate scheduler triggers safe.
func (s *Settlement) Resolve(ctx context.Context, eventID uint64, winningOutcome string, finalPrice *decimal.Decimal, resolver string) (*SettlementResult, error) {
	var result SettlementResult
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		event, err := s.Repo.GetEventForUpdateTx(ctx, tx, eventID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event %d: %w", eventID, err)
		}
		if event.ResolutionStatus == models.ResolutionResolved {
			return ErrAlreadyResolved
		}
		if !event.HasOption(winningOutcome) {
			return ErrInvalidOutcome
		}

		participants, err := s.Repo.ListParticipantsByEventTx(ctx, tx, eventID)
		if err != nil {
			return fmt.Errorf("load participants for event %d: %w", eventID, err)
		}
		if len(participants) == 0 {
			return ErrNoBets
		}

		var totalPool, winningPool int64
		for _, p := range participants {
			totalPool += p.Amount
			if p.Prediction == winningOutcome {
				winningPool += p.Amount
			}
		}

		// Integer parimutuel math. The pool-level fee is authoritative; the
		// per-stake fee rows written below are informational and do not sum
		// to it exactly (floor rounding is applied independently).
		platformFee := totalPool * feeRateNumerator / feeRateDenominator
		netPool := totalPool - platformFee

		outcomes := make([]models.EventOutcome, 0, len(participants))
		fees := make([]models.PlatformFeeRecord, 0, len(participants))
		var distributed int64
		winners := 0

		for _, p := range participants {
			if winningPool > 0 && p.Prediction == winningOutcome {
				// floor((amount/winningPool) * netPool), computed exactly in
				// integers. Rounding residue stays in the pool.
				payout := p.Amount * netPool / winningPool
				if _, err := s.Ledger.ApplyPointsChange(ctx, tx, p.UserID, payout, models.ReasonEventWin, &eventID); err != nil {
					return fmt.Errorf("pay winner %d: %w", p.UserID, err)
				}
				outcomes = append(outcomes, models.EventOutcome{
					ParticipantID: p.ID,
					EventID:       eventID,
					Result:        models.OutcomeWin,
					PointsAwarded: payout,
				})
				fees = append(fees, models.PlatformFeeRecord{
					EventID:       eventID,
					ParticipantID: p.ID,
					FeeAmount:     p.Amount * feeRateNumerator / feeRateDenominator,
				})
				distributed += payout
				winners++
				continue
			}
			// Losing stakes were debited at admission time; only the outcome
			// record is written here.
			outcomes = append(outcomes, models.EventOutcome{
				ParticipantID: p.ID,
				EventID:       eventID,
				Result:        models.OutcomeLoss,
				PointsAwarded: 0,
			})
		}

		if err := s.Repo.InsertOutcomesTx(ctx, tx, outcomes); err != nil {
			return fmt.Errorf("insert outcomes: %w", err)
		}
		if err := s.Repo.InsertPlatformFeesTx(ctx, tx, fees); err != nil {
			return fmt.Errorf("insert platform fees: %w", err)
		}

		event.PlatformFee += platformFee
		event.ResolutionStatus = models.ResolutionResolved
		event.Status = models.EventStatusResolved
		event.CorrectAnswer = &winningOutcome
		if finalPrice != nil {
			event.FinalPrice = finalPrice
		}
		if err := s.Repo.UpdateEventTx(ctx, tx, event); err != nil {
			return fmt.Errorf("mark event resolved: %w", err)
		}

		audit := &models.AuditLog{
			EventID: eventID,
			Action:  models.AuditEventResolution,
			Details: models.MustJSON(map[string]any{
				"winning_outcome":   winningOutcome,
				"participant_count": len(participants),
				"winner_count":      winners,
				"total_pool":        totalPool,
				"winning_pool":      winningPool,
				"platform_fee":      platformFee,
				"net_pool":          netPool,
				"distributed":       distributed,
				"resolver":          resolver,
				"resolved_at":       time.Now().UTC().Format(time.RFC3339),
			}),
		}
		if err := s.Repo.InsertAuditLogTx(ctx, tx, audit); err != nil {
			return fmt.Errorf("write audit log: %w", err)
		}

		result = SettlementResult{
			EventID:        eventID,
			WinningOutcome: winningOutcome,
			Participants:   len(participants),
			Winners:        winners,
			TotalPool:      totalPool,
			WinningPool:    winningPool,
			PlatformFee:    platformFee,
			NetPool:        netPool,
			Distributed:    distributed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("event settled",
			zap.Uint64("event_id", result.EventID),
			zap.String("winning_outcome", result.WinningOutcome),
			zap.Int("participants", result.Participants),
			zap.Int("winners", result.Winners),
			zap.Int64("total_pool", result.TotalPool),
			zap.Int64("platform_fee", result.PlatformFee),
			zap.Int64("distributed", result.Distributed),
		)
	}

	// Outside the transaction boundary: a failed notification must not roll
	// back settlement.
	if s.Broadcaster != nil {
		s.Broadcaster.PublishResolution(ResolutionNotice{
			EventID:       eventID,
			CorrectAnswer: winningOutcome,
			FinalPrice:    finalPrice,
			Status:        models.EventStatusResolved,
		})
	}

	return &result, nil
}
