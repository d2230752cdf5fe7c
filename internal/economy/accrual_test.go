package economy

import (
	"context"
	"testing"
	"time"

	"github.com/Request804/DiscordbotReque/internal/storage"
)

func testRates() Rates {
	return Rates{
		MessageCoins:        0.05,
		MessageMinWords:     5,
		MessageXP:           1,
		VoiceCoinsPerMinute: 1,
		VoiceXPPerMinute:    5,
		MilestoneStep:       100,
	}
}

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(store, testRates()), store
}

func TestRecordMessageCountsRegardlessOfLength(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordMessage(ctx, "g1", "u1", 2); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.RecordMessage(ctx, "g1", "u1", 8); err != nil {
		t.Fatalf("record: %v", err)
	}

	count, err := store.GetMessageCount(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 messages, got %d", count)
	}

	// Only the 8-word message paid coins.
	balance, err := store.GetBalance(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance < 0.049 || balance > 0.051 {
		t.Fatalf("expected balance near 0.05, got %f", balance)
	}
}

func TestRecordMessageGrantsXPEvenWhenShort(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordMessage(ctx, "g1", "u1", 1); err != nil {
		t.Fatalf("record: %v", err)
	}

	xp, level, err := store.GetXP(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("xp: %v", err)
	}
	if xp != 1 || level != 1 {
		t.Fatalf("expected (1, 1), got (%d, %d)", xp, level)
	}
}

func TestGrantXPCarriesOverLevels(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// From (xp 0, level 1), 250 XP crosses level 1 (100) and level 2
	// (200), landing at level 3 with 50 left over.
	levelUps, newLevel, err := svc.grantXP(ctx, "g1", "u1", 250)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if levelUps != 2 || newLevel != 3 {
		t.Fatalf("expected 2 level ups to level 3, got %d to %d", levelUps, newLevel)
	}

	xp, level, err := store.GetXP(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("xp: %v", err)
	}
	if xp != 50 || level != 3 {
		t.Fatalf("expected (50, 3), got (%d, %d)", xp, level)
	}
}

func TestMilestoneFiresOncePerStep(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := store.AddCoins(ctx, "g1", "u1", 95); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := svc.RecordVoice(ctx, "g1", "u1", 10)
	if err != nil {
		t.Fatalf("record voice: %v", err)
	}
	if result.Milestone != 100 {
		t.Fatalf("expected milestone 100, got %d", result.Milestone)
	}

	// 105 -> 115 stays inside the same step.
	result, err = svc.RecordVoice(ctx, "g1", "u1", 10)
	if err != nil {
		t.Fatalf("record voice: %v", err)
	}
	if result.Milestone != 0 {
		t.Fatalf("expected no milestone, got %d", result.Milestone)
	}
}

func TestRecordVoiceAccrues(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordVoice(ctx, "g1", "u1", 3)
	if err != nil {
		t.Fatalf("record voice: %v", err)
	}
	if result.Coins != 3 || result.XP != 15 {
		t.Fatalf("expected 3 coins and 15 xp, got %f and %d", result.Coins, result.XP)
	}

	minutes, err := store.GetVoiceMinutes(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("minutes: %v", err)
	}
	if minutes != 3 {
		t.Fatalf("expected 3 minutes, got %d", minutes)
	}
}

func TestRecordVoiceIgnoresNonPositiveMinutes(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordVoice(ctx, "g1", "u1", 0); err != nil {
		t.Fatalf("record voice: %v", err)
	}
	if _, err := svc.RecordVoice(ctx, "g1", "u1", -5); err != nil {
		t.Fatalf("record voice: %v", err)
	}

	minutes, err := store.GetVoiceMinutes(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("minutes: %v", err)
	}
	if minutes != 0 {
		t.Fatalf("expected 0 minutes, got %d", minutes)
	}
}

func TestSessionTracker(t *testing.T) {
	tracker := NewSessionTracker()
	start := time.Now()

	if tracker.Active("g1", "u1") {
		t.Fatalf("expected no active session")
	}

	tracker.Start("g1", "u1", start)
	if !tracker.Active("g1", "u1") {
		t.Fatalf("expected active session")
	}

	elapsed, ok := tracker.Stop("g1", "u1", start.Add(5*time.Minute))
	if !ok {
		t.Fatalf("expected tracked session")
	}
	if elapsed != 5*time.Minute {
		t.Fatalf("expected 5m, got %v", elapsed)
	}

	if _, ok := tracker.Stop("g1", "u1", start.Add(6*time.Minute)); ok {
		t.Fatalf("second stop must report no session")
	}
}
