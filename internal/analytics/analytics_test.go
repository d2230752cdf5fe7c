package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/Request804/DiscordbotReque/internal/storage"
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
	return New(store, 7*24*time.Hour), store
}

func TestProfileAggregates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := store.AddCoins(ctx, "g1", "u1", 42); err != nil {
		t.Fatalf("seed coins: %v", err)
	}
	if _, err := store.AddCoins(ctx, "g1", "u2", 100); err != nil {
		t.Fatalf("seed coins: %v", err)
	}
	if err := store.SetXP(ctx, "g1", "u1", 30, 2); err != nil {
		t.Fatalf("seed xp: %v", err)
	}
	if err := store.IncrementMessages(ctx, "g1", "u1"); err != nil {
		t.Fatalf("seed messages: %v", err)
	}
	if err := store.AddVoiceMinutes(ctx, "g1", "u1", 12); err != nil {
		t.Fatalf("seed voice: %v", err)
	}

	profile, err := svc.Profile(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Balance != 42 || profile.Rank != 2 {
		t.Fatalf("unexpected balance/rank: %+v", profile)
	}
	if profile.Level != 2 || profile.XP != 30 {
		t.Fatalf("unexpected level/xp: %+v", profile)
	}
	if profile.Messages != 1 || profile.VoiceMinutes != 12 {
		t.Fatalf("unexpected activity: %+v", profile)
	}
}

func TestProfileForUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	profile, err := svc.Profile(context.Background(), "g1", "ghost")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Balance != 0 || profile.Rank != 1 || profile.Level != 1 {
		t.Fatalf("unexpected empty profile: %+v", profile)
	}
}

func TestModeratorView(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	warns := []storage.Warn{
		{GuildID: "g1", UserID: "u1", ModeratorID: "m1", Reason: "recent", CreatedAt: now.Add(-time.Hour)},
		{GuildID: "g1", UserID: "u1", ModeratorID: "m1", Reason: "stale", CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}
	for _, warn := range warns {
		if err := store.AddWarn(ctx, warn); err != nil {
			t.Fatalf("seed warn: %v", err)
		}
	}

	view, err := svc.ModeratorView(ctx, "g1", "u1", 5)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.ActiveWarns != 1 || view.TotalWarns != 2 {
		t.Fatalf("unexpected warn counts: %+v", view)
	}
	if len(view.RecentWarns) != 1 || view.RecentWarns[0].Reason != "recent" {
		t.Fatalf("unexpected recent warns: %+v", view.RecentWarns)
	}
}
