package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/Request804/DiscordbotReque/internal/storage"

	"go.uber.org/zap"
)

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
	return New(store, DefaultPolicy(), zap.NewNop()), store
}

func TestIssueWarnAutobanThreshold(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		result, err := svc.IssueWarn(ctx, "g1", "u1", "mod", "spam")
		if err != nil {
			t.Fatalf("warn %d: %v", i+1, err)
		}
		if result.Autoban {
			t.Fatalf("autoban must not trigger at %d warns", result.ActiveCount)
		}
	}

	result, err := svc.IssueWarn(ctx, "g1", "u1", "mod", "spam")
	if err != nil {
		t.Fatalf("fifth warn: %v", err)
	}
	if result.ActiveCount != 5 || !result.Autoban {
		t.Fatalf("expected autoban at 5 active warns, got %+v", result)
	}
}

func TestExpiredWarnsDoNotCountTowardAutoban(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	// Four stale warns outside the window plus one fresh.
	for i := 0; i < 4; i++ {
		warn := storage.Warn{
			GuildID:     "g1",
			UserID:      "u1",
			ModeratorID: "mod",
			Reason:      "stale",
			CreatedAt:   now.Add(-10 * 24 * time.Hour),
		}
		if err := store.AddWarn(ctx, warn); err != nil {
			t.Fatalf("seed warn: %v", err)
		}
	}

	result, err := svc.IssueWarn(ctx, "g1", "u1", "mod", "fresh")
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	if result.ActiveCount != 1 || result.Autoban {
		t.Fatalf("expected 1 active and no autoban, got %+v", result)
	}
}

func TestStartSweeperSweepsImmediately(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A long interval so only the startup sweep can fire.
	svc := New(store, Policy{SweepInterval: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	warn := storage.Warn{
		GuildID:     "g1",
		UserID:      "u1",
		ModeratorID: "mod",
		Reason:      "stale",
		CreatedAt:   time.Now().Add(-10 * 24 * time.Hour),
	}
	if err := store.AddWarn(ctx, warn); err != nil {
		t.Fatalf("seed warn: %v", err)
	}

	svc.StartSweeper(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		active, err := store.CountActiveWarns(ctx, "g1", "u1", time.Now().Add(-30*24*time.Hour))
		if err != nil {
			t.Fatalf("count active: %v", err)
		}
		if active == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("startup sweep did not expire the stale warn")
}

func TestRunExpirySweepIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	warn := storage.Warn{
		GuildID:     "g1",
		UserID:      "u1",
		ModeratorID: "mod",
		Reason:      "stale",
		CreatedAt:   time.Now().Add(-10 * 24 * time.Hour),
	}
	if err := store.AddWarn(ctx, warn); err != nil {
		t.Fatalf("seed warn: %v", err)
	}

	expired, err := svc.RunExpirySweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired, got %d", expired)
	}

	expired, err = svc.RunExpirySweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if expired != 0 {
		t.Fatalf("expected 0 on repeat sweep, got %d", expired)
	}
}
