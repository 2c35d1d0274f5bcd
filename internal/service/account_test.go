package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"parimarket/internal/config"
	"parimarket/internal/models"
	"parimarket/internal/repository"
)

func newAccount(t *testing.T) *Account {
	t.Helper()
	repo := newTestRepo(t)
	return &Account{
		Repo:   repo,
		Ledger: &Ledger{Repo: repo},
		Config: config.AccountConfig{RegistrationBonus: 1000, DailyClaimAmount: 100},
	}
}

func TestRegister(t *testing.T) {
	a := newAccount(t)
	ctx := context.Background()

	user, err := a.Register(ctx, "alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("user id not assigned")
	}
	if user.Points != 1000 {
		t.Fatalf("points=%d want 1000", user.Points)
	}

	entries, err := a.Repo.ListLedgerEntries(ctx, repository.ListLedgerParams{UserID: user.ID})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 1 || entries[0].Reason != models.ReasonRegistration {
		t.Fatalf("ledger entries=%+v want one registration entry", entries)
	}

	if _, err := a.Register(ctx, "alice"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate register err=%v want ErrUsernameTaken", err)
	}
}

func TestDailyClaim(t *testing.T) {
	a := newAccount(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a.Now = func() time.Time { return day1 }

	user, err := a.Register(ctx, "bob")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	balance, err := a.DailyClaim(ctx, user.ID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if balance != 1100 {
		t.Fatalf("balance=%d want 1100", balance)
	}

	// Same UTC day, later hour.
	a.Now = func() time.Time { return day1.Add(10 * time.Hour) }
	if _, err := a.DailyClaim(ctx, user.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("second claim err=%v want ErrAlreadyClaimed", err)
	}

	a.Now = func() time.Time { return day1.AddDate(0, 0, 1) }
	balance, err = a.DailyClaim(ctx, user.ID)
	if err != nil {
		t.Fatalf("next-day claim: %v", err)
	}
	if balance != 1200 {
		t.Fatalf("balance=%d want 1200", balance)
	}

	if _, err := a.DailyClaim(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user err=%v want ErrUserNotFound", err)
	}
}
