package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"splice/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "splice.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	record := history.Record{
		ID:                    "job-1",
		Status:                "succeeded",
		InputCount:            3,
		InputBytes:            4096,
		OutputBytes:           4000,
		OutputDurationSeconds: 12.5,
		CreatedAt:             time.Now().UTC().Add(-time.Minute),
		CompletedAt:           time.Now().UTC(),
	}
	if err := store.Append(ctx, record); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Status != "succeeded" || got.InputCount != 3 || got.OutputBytes != 4000 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("expected empty error message, got %q", got.ErrorMessage)
	}
	if got.CreatedAt.IsZero() || got.CompletedAt.IsZero() {
		t.Fatalf("expected parsed timestamps, got %+v", got)
	}
}

func TestGetUnknownIDReturnsNil(t *testing.T) {
	store := openStore(t)

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil record, got %+v", got)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, id := range []string{"older", "newer", "newest"} {
		record := history.Record{
			ID:           id,
			Status:       "failed",
			ErrorMessage: "merge error: tool exited 1",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
			CompletedAt:  base.Add(time.Duration(i)*time.Minute + 30*time.Second),
		}
		if err := store.Append(ctx, record); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}

	records, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "newest" || records[1].ID != "newer" {
		t.Fatalf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}
	if records[0].ErrorMessage == "" {
		t.Fatal("expected failure message to round-trip")
	}
}

func TestStatsGroupsByStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i, status := range []string{"succeeded", "succeeded", "failed"} {
		record := history.Record{
			ID:          string(rune('a' + i)),
			Status:      status,
			CompletedAt: time.Now().UTC(),
		}
		if err := store.Append(ctx, record); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["succeeded"] != 2 || stats["failed"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestPruneRemovesOldRecords(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := history.Record{ID: "old", Status: "succeeded", CompletedAt: now.Add(-48 * time.Hour)}
	recent := history.Record{ID: "recent", Status: "succeeded", CompletedAt: now}
	for _, record := range []history.Record{old, recent} {
		if err := store.Append(ctx, record); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	deleted, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted record, got %d", deleted)
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].ID != "recent" {
		t.Fatalf("unexpected survivors: %+v", records)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for empty database path")
	}
}
