package memory

import (
	"context"
	"testing"
)

func TestLayerCounterStore_IncrementSequence(t *testing.T) {
	store := NewLayerCounterStore()
	ctx := context.Background()

	// Ordinals must be exactly 1,2,3,... with no gaps or repeats
	for want := 1; want <= 5; want++ {
		got, err := store.Increment(ctx, 7, 2)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if got != want {
			t.Errorf("ordinal: got %d, want %d", got, want)
		}
	}
}

func TestLayerCounterStore_KeysIndependent(t *testing.T) {
	store := NewLayerCounterStore()
	ctx := context.Background()

	if _, err := store.Increment(ctx, 7, 2); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if _, err := store.Increment(ctx, 7, 2); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	// Different layer and different upline start fresh
	got, err := store.Increment(ctx, 7, 3)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if got != 1 {
		t.Errorf("(7,3) ordinal: got %d, want 1", got)
	}

	got, err = store.Increment(ctx, 8, 2)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if got != 1 {
		t.Errorf("(8,2) ordinal: got %d, want 1", got)
	}
}

func TestLayerCounterStore_GetZeroWhenMissing(t *testing.T) {
	store := NewLayerCounterStore()
	ctx := context.Background()

	got, err := store.Get(ctx, 42, 5)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 for untouched counter, got %d", got)
	}
}

func TestLayerCounterStore_ListAllOrdered(t *testing.T) {
	store := NewLayerCounterStore()
	ctx := context.Background()

	for _, key := range []struct {
		upline int64
		layer  int
	}{{9, 1}, {7, 3}, {7, 2}} {
		if _, err := store.Increment(ctx, key.upline, key.layer); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	counters, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(counters) != 3 {
		t.Fatalf("expected 3 counters, got %d", len(counters))
	}
	if counters[0].UplineID != 7 || counters[0].Layer != 2 {
		t.Errorf("first counter: got (%d,%d), want (7,2)", counters[0].UplineID, counters[0].Layer)
	}
	if counters[2].UplineID != 9 {
		t.Errorf("last counter: got upline %d, want 9", counters[2].UplineID)
	}
}
