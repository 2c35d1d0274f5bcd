package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"parimarket/internal/models"
)

type captureBroadcaster struct {
	notices []ResolutionNotice
}

func (b *captureBroadcaster) PublishResolution(notice ResolutionNotice) {
	b.notices = append(b.notices, notice)
}

func newSettlement(t *testing.T) (*Settlement, *captureBroadcaster) {
	t.Helper()
	repo := newTestRepo(t)
	bc := &captureBroadcaster{}
	s := &Settlement{
		Repo:        repo,
		Ledger:      &Ledger{Repo: repo},
		Broadcaster: bc,
	}
	return s, bc
}

func TestResolveProportionalPayouts(t *testing.T) {
	s, bc := newSettlement(t)
	ctx := context.Background()

	event := createTestEvent(t, s.Repo, []string{"up", "down"}, time.Now().UTC().Add(-time.Hour))
	w1 := createTestUser(t, s.Repo, "w1", 0)
	w2 := createTestUser(t, s.Repo, "w2", 0)
	w3 := createTestUser(t, s.Repo, "w3", 0)
	l1 := createTestUser(t, s.Repo, "l1", 0)
	l2 := createTestUser(t, s.Repo, "l2", 0)

	addStake(t, s.Repo, event.ID, w1.ID, "up", 100)
	addStake(t, s.Repo, event.ID, w2.ID, "up", 200)
	addStake(t, s.Repo, event.ID, w3.ID, "up", 300)
	addStake(t, s.Repo, event.ID, l1.ID, "down", 250)
	addStake(t, s.Repo, event.ID, l2.ID, "down", 150)

	result, err := s.Resolve(ctx, event.ID, "up", nil, "admin")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if result.TotalPool != 1000 {
		t.Fatalf("total pool=%d want 1000", result.TotalPool)
	}
	if result.WinningPool != 600 {
		t.Fatalf("winning pool=%d want 600", result.WinningPool)
	}
	if result.PlatformFee != 50 {
		t.Fatalf("platform fee=%d want 50", result.PlatformFee)
	}
	if result.NetPool != 950 {
		t.Fatalf("net pool=%d want 950", result.NetPool)
	}
	if result.Winners != 3 {
		t.Fatalf("winners=%d want 3", result.Winners)
	}

	// floor(stake * 950 / 600) for 100, 200, 300.
	if got := userBalance(t, s.Repo, w1.ID); got != 158 {
		t.Fatalf("w1 balance=%d want 158", got)
	}
	if got := userBalance(t, s.Repo, w2.ID); got != 316 {
		t.Fatalf("w2 balance=%d want 316", got)
	}
	if got := userBalance(t, s.Repo, w3.ID); got != 475 {
		t.Fatalf("w3 balance=%d want 475", got)
	}
	if got := userBalance(t, s.Repo, l1.ID); got != 0 {
		t.Fatalf("l1 balance=%d want 0", got)
	}

	if result.Distributed != 949 {
		t.Fatalf("distributed=%d want 949", result.Distributed)
	}
	if result.Distributed+result.PlatformFee > result.TotalPool {
		t.Fatalf("distributed %d + fee %d exceeds pool %d",
			result.Distributed, result.PlatformFee, result.TotalPool)
	}

	updated, err := s.Repo.GetEventByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if updated.ResolutionStatus != models.ResolutionResolved {
		t.Fatalf("resolution status=%q want resolved", updated.ResolutionStatus)
	}
	if updated.Status != models.EventStatusResolved {
		t.Fatalf("status=%q want resolved", updated.Status)
	}
	if updated.CorrectAnswer == nil || *updated.CorrectAnswer != "up" {
		t.Fatalf("correct answer=%v want up", updated.CorrectAnswer)
	}
	if updated.PlatformFee != 50 {
		t.Fatalf("event platform fee=%d want 50", updated.PlatformFee)
	}

	outcomes, err := s.Repo.ListOutcomesByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 5 {
		t.Fatalf("outcomes=%d want 5", len(outcomes))
	}
	wins, losses := 0, 0
	for _, o := range outcomes {
		switch o.Result {
		case models.OutcomeWin:
			wins++
			if o.PointsAwarded <= 0 {
				t.Fatalf("winner outcome has award %d", o.PointsAwarded)
			}
		case models.OutcomeLoss:
			losses++
			if o.PointsAwarded != 0 {
				t.Fatalf("loser outcome has award %d", o.PointsAwarded)
			}
		}
	}
	if wins != 3 || losses != 2 {
		t.Fatalf("wins=%d losses=%d want 3/2", wins, losses)
	}

	fees, err := s.Repo.ListPlatformFeesByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("list fees: %v", err)
	}
	if len(fees) != 3 {
		t.Fatalf("fee rows=%d want 3 (winners only)", len(fees))
	}

	audits, err := s.Repo.ListAuditLogsByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(audits) != 1 || audits[0].Action != models.AuditEventResolution {
		t.Fatalf("audit logs=%v want one resolution entry", audits)
	}

	if len(bc.notices) != 1 {
		t.Fatalf("notices=%d want 1", len(bc.notices))
	}
	if bc.notices[0].EventID != event.ID || bc.notices[0].CorrectAnswer != "up" {
		t.Fatalf("notice=%+v", bc.notices[0])
	}
}

func TestResolveSingleWinnerTakesNetPool(t *testing.T) {
	s, _ := newSettlement(t)
	ctx := context.Background()

	event := createTestEvent(t, s.Repo, []string{"up", "down"}, time.Now().UTC().Add(-time.Hour))
	winner := createTestUser(t, s.Repo, "solo", 0)
	addStake(t, s.Repo, event.ID, winner.ID, "up", 2000)

	result, err := s.Resolve(ctx, event.ID, "up", nil, "admin")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.PlatformFee != 100 {
		t.Fatalf("platform fee=%d want 100", result.PlatformFee)
	}
	if got := userBalance(t, s.Repo, winner.ID); got != 1900 {
		t.Fatalf("winner balance=%d want 1900", got)
	}
	if result.Distributed != 1900 {
		t.Fatalf("distributed=%d want 1900", result.Distributed)
	}
}

func TestResolveZeroWinners(t *testing.T) {
	s, _ := newSettlement(t)
	ctx := context.Background()

	event := createTestEvent(t, s.Repo, []string{"up", "down"}, time.Now().UTC().Add(-time.Hour))
	u1 := createTestUser(t, s.Repo, "all1", 0)
	u2 := createTestUser(t, s.Repo, "all2", 0)
	addStake(t, s.Repo, event.ID, u1.ID, "down", 300)
	addStake(t, s.Repo, event.ID, u2.ID, "down", 200)

	result, err := s.Resolve(ctx, event.ID, "up", nil, "admin")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Winners != 0 || result.Distributed != 0 {
		t.Fatalf("winners=%d distributed=%d want 0/0", result.Winners, result.Distributed)
	}
	if result.PlatformFee != 25 {
		t.Fatalf("platform fee=%d want 25", result.PlatformFee)
	}
	if got := userBalance(t, s.Repo, u1.ID); got != 0 {
		t.Fatalf("u1 balance=%d want 0", got)
	}

	outcomes, err := s.Repo.ListOutcomesByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes=%d want 2", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Result != models.OutcomeLoss {
			t.Fatalf("outcome=%q want loss", o.Result)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	s, bc := newSettlement(t)
	ctx := context.Background()

	event := createTestEvent(t, s.Repo, []string{"up", "down"}, time.Now().UTC().Add(-time.Hour))
	winner := createTestUser(t, s.Repo, "once", 0)
	addStake(t, s.Repo, event.ID, winner.ID, "up", 1000)

	if _, err := s.Resolve(ctx, event.ID, "up", nil, "admin"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	balance := userBalance(t, s.Repo, winner.ID)

	_, err := s.Resolve(ctx, event.ID, "up", nil, "admin")
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second resolve err=%v want ErrAlreadyResolved", err)
	}
	if got := userBalance(t, s.Repo, winner.ID); got != balance {
		t.Fatalf("balance changed on duplicate resolve: %d -> %d", balance, got)
	}

	outcomes, err := s.Repo.ListOutcomesByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("outcomes=%d want 1", len(outcomes))
	}
	if len(bc.notices) != 1 {
		t.Fatalf("notices=%d want 1", len(bc.notices))
	}
}

func TestResolveRejections(t *testing.T) {
	s, _ := newSettlement(t)
	ctx := context.Background()

	if _, err := s.Resolve(ctx, 9999, "up", nil, "admin"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("missing event err=%v want ErrEventNotFound", err)
	}

	event := createTestEvent(t, s.Repo, []string{"up", "down"}, time.Now().UTC().Add(-time.Hour))
	user := createTestUser(t, s.Repo, "rej", 0)
	addStake(t, s.Repo, event.ID, user.ID, "up", 100)

	if _, err := s.Resolve(ctx, event.ID, "sideways", nil, "admin"); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("bad outcome err=%v want ErrInvalidOutcome", err)
	}

	empty := createTestEvent(t, s.Repo, []string{"up", "down"}, time.Now().UTC().Add(-time.Hour))
	if _, err := s.Resolve(ctx, empty.ID, "up", nil, "admin"); !errors.Is(err, ErrNoBets) {
		t.Fatalf("empty event err=%v want ErrNoBets", err)
	}

	// Failed attempts leave the events untouched.
	reloaded, err := s.Repo.GetEventByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if reloaded.ResolutionStatus != models.ResolutionPending {
		t.Fatalf("resolution status=%q want pending", reloaded.ResolutionStatus)
	}
}
