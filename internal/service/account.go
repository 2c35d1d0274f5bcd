package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"parimarket/internal/config"
	"parimarket/internal/models"
	"parimarket/internal/repository"
)

// Account handles the two non-betting balance grants: the registration bonus
// and the once-per-UTC-day claim. Both go through the ledger like everything
// else.
type Account struct {
	Repo   repository.Repository
	Ledger *Ledger
	Config config.AccountConfig
	Logger *zap.Logger

	Now func() time.Time
}

func (a *Account) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

// Register creates a user and grants the registration bonus in one
// transaction.
func (a *Account) Register(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	if _, err := a.Repo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	user := &models.User{Username: username}
	err := a.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := a.Repo.CreateUserTx(ctx, tx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if a.Config.RegistrationBonus > 0 {
			balance, err := a.Ledger.ApplyPointsChange(ctx, tx, user.ID, a.Config.RegistrationBonus, models.ReasonRegistration, nil)
			if err != nil {
				return err
			}
			user.Points = balance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.Logger != nil {
		a.Logger.Info("user registered",
			zap.Uint64("user_id", user.ID),
			zap.String("username", username),
			zap.Int64("bonus", a.Config.RegistrationBonus),
		)
	}
	return user, nil
}

// DailyClaim grants the daily allowance once per UTC day. The user row stays
// locked from the eligibility check through the ledger write.
func (a *Account) DailyClaim(ctx context.Context, userID uint64) (int64, error) {
	now := a.now()
	var balance int64
	err := a.Repo.InTx(ctx, func(tx *gorm.DB) error {
		user, err := a.Repo.GetUserForUpdateTx(ctx, tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user %d: %w", userID, err)
		}
		if user.LastDailyClaimAt != nil && sameUTCDay(*user.LastDailyClaimAt, now) {
			return ErrAlreadyClaimed
		}

		balance, err = a.Ledger.ApplyPointsChange(ctx, tx, userID, a.Config.DailyClaimAmount, models.ReasonDailyClaim, nil)
		if err != nil {
			return err
		}
		return a.Repo.UpdateUserDailyClaimTx(ctx, tx, userID, now)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
