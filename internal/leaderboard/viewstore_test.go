package leaderboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestViewStore(t *testing.T) (*ViewStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewViewStore(rdb, time.Minute), mr
}

func TestViewStoreRoundTrip(t *testing.T) {
	store, _ := newTestViewStore(t)
	ctx := context.Background()

	v := testView(23, false)
	v.Period = PeriodWeekly
	id, err := store.Save(ctx, "roomA", "u1", v, 0)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatalf("expected non-empty session id")
	}

	loaded, page, err := store.Load(ctx, "roomA", "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || page != 0 {
		t.Fatalf("loaded=%v page=%d", loaded, page)
	}
	if loaded.Period != PeriodWeekly || len(loaded.Entries) != 23 {
		t.Fatalf("snapshot mismatch: period=%s entries=%d", loaded.Period, len(loaded.Entries))
	}
	if loaded.Entries[11].Rank != v.Entries[11].Rank {
		t.Fatalf("ranks lost in round trip")
	}
}

func TestViewStoreSetPage(t *testing.T) {
	store, _ := newTestViewStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "roomA", "u1", testView(23, false), 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.SetPage(ctx, "roomA", "u1", 2); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	_, page, err := store.Load(ctx, "roomA", "u1")
	if err != nil || page != 2 {
		t.Fatalf("page=%d err=%v", page, err)
	}

	// Flipping pages on a dead session is a no-op, not an error.
	if err := store.SetPage(ctx, "roomB", "nobody", 1); err != nil {
		t.Fatalf("SetPage on missing view: %v", err)
	}
}

func TestViewStoreExpiry(t *testing.T) {
	store, mr := newTestViewStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "roomA", "u1", testView(5, false), 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	v, _, err := store.Load(ctx, "roomA", "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v != nil {
		t.Fatalf("expected expired view, got %+v", v)
	}
}

func TestViewStoreDelete(t *testing.T) {
	store, _ := newTestViewStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "roomA", "u1", testView(5, false), 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "roomA", "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	v, _, err := store.Load(ctx, "roomA", "u1")
	if err != nil || v != nil {
		t.Fatalf("v=%+v err=%v", v, err)
	}
}
