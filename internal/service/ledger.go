package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"parimarket/internal/models"
	"parimarket/internal/repository"
)

// Ledger is the single write path for point balances. Every mutation locks
// the user row, writes the new balance, and appends one ledger entry carrying
// the post-change snapshot, inside the caller's transaction.
type Ledger struct {
	Repo repository.Repository
}

// ApplyPointsChange credits (amount > 0) or debits (amount < 0) a user and
// appends the matching ledger entry. It must run inside tx; the enclosing
// transaction must roll back if it returns an error, so a partial transfer is
// never observed.
//
// There is no floor at zero here: admission checks sufficiency under the same
// lock before debiting.
func (l *Ledger) ApplyPointsChange(ctx context.Context, tx *gorm.DB, userID uint64, amount int64, reason string, eventID *uint64) (int64, error) {
	user, err := l.Repo.GetUserForUpdateTx(ctx, tx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock user %d: %w", userID, err)
	}

	newBalance := user.Points + amount
	if err := l.Repo.UpdateUserPointsTx(ctx, tx, userID, newBalance); err != nil {
		return 0, fmt.Errorf("update balance for user %d: %w", userID, err)
	}

	entry := &models.PointsLedgerEntry{
		UserID:       userID,
		ChangeAmount: amount,
		NewBalance:   newBalance,
		Reason:       reason,
		EventID:      eventID,
	}
	if err := l.Repo.InsertLedgerEntryTx(ctx, tx, entry); err != nil {
		return 0, fmt.Errorf("append ledger entry for user %d: %w", userID, err)
	}

	return newBalance, nil
}
