package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parimarket/internal/models"
	"parimarket/internal/repository"
	gormrepository "parimarket/internal/repository/gorm"
)

var testDBSeq atomic.Int64

// newTestRepo opens a fresh in-memory database per test. The DSN carries a
// sequence number so parallel tests never share state through the shared
// cache, and a single connection keeps the in-memory database alive.
func newTestRepo(t *testing.T) repository.Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = gdb.AutoMigrate(
		&models.User{},
		&models.PointsLedgerEntry{},
		&models.Event{},
		&models.Participant{},
		&models.EventOutcome{},
		&models.PlatformFeeRecord{},
		&models.AuditLog{},
		&models.ResolutionState{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return gormrepository.New(gdb)
}

func createTestUser(t *testing.T, repo repository.Repository, username string, points int64) *models.User {
	t.Helper()
	user := &models.User{Username: username, Points: points}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createTestEvent(t *testing.T, repo repository.Repository, options []string, endTime time.Time) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:            "test event",
		Kind:             models.EventKindCustom,
		Options:          models.MustJSON(options),
		StartTime:        endTime.Add(-24 * time.Hour),
		EndTime:          endTime,
		Status:           models.EventStatusActive,
		ResolutionStatus: models.ResolutionPending,
	}
	if err := repo.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func addStake(t *testing.T, repo repository.Repository, eventID, userID uint64, prediction string, amount int64) {
	t.Helper()
	err := repo.InTx(context.Background(), func(tx *gorm.DB) error {
		return repo.InsertParticipantTx(context.Background(), tx, &models.Participant{
			EventID:    eventID,
			UserID:     userID,
			Prediction: prediction,
			Amount:     amount,
		})
	})
	if err != nil {
		t.Fatalf("add stake event=%d user=%d: %v", eventID, userID, err)
	}
}

func userBalance(t *testing.T, repo repository.Repository, userID uint64) int64 {
	t.Helper()
	user, err := repo.GetUserByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user %d: %v", userID, err)
	}
	return user.Points
}
