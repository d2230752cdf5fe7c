package bot

import (
	"testing"
	"time"
)

func TestProposalRegistryTake(t *testing.T) {
	registry := newProposalRegistry(time.Minute)
	now := time.Now()

	registry.add("k1", proposal{guildID: "g1", proposerID: "a", targetID: "b", createdAt: now})

	got, ok := registry.take("k1", now.Add(30*time.Second))
	if !ok {
		t.Fatalf("expected pending proposal")
	}
	if got.proposerID != "a" || got.targetID != "b" {
		t.Fatalf("unexpected proposal: %+v", got)
	}

	if _, ok := registry.take("k1", now); ok {
		t.Fatalf("proposal must be single use")
	}
}

func TestProposalRegistryExpires(t *testing.T) {
	registry := newProposalRegistry(time.Minute)
	now := time.Now()

	registry.add("k1", proposal{createdAt: now})

	if _, ok := registry.peek("k1", now.Add(2*time.Minute)); ok {
		t.Fatalf("expired proposal must not peek")
	}
	if _, ok := registry.take("k1", now.Add(2*time.Minute)); ok {
		t.Fatalf("expired proposal must not be taken")
	}
}

func TestProposalRegistryPrunesExpiredOnAdd(t *testing.T) {
	registry := newProposalRegistry(time.Minute)
	now := time.Now()

	registry.add("stale", proposal{createdAt: now.Add(-2 * time.Minute)})
	registry.add("fresh", proposal{createdAt: now})

	registry.mu.Lock()
	size := len(registry.entries)
	_, staleKept := registry.entries["stale"]
	registry.mu.Unlock()

	if staleKept {
		t.Fatalf("stale proposal must be pruned when a new one arrives")
	}
	if size != 1 {
		t.Fatalf("expected 1 entry after pruning, got %d", size)
	}
}

func TestProposalRegistryUnknownKey(t *testing.T) {
	registry := newProposalRegistry(time.Minute)
	if _, ok := registry.peek("missing", time.Now()); ok {
		t.Fatalf("unknown key must not resolve")
	}
}
