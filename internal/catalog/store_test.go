package catalog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gantry/internal/catalog"
	"gantry/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)

	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List on fresh store failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty catalog, got %d records", len(records))
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := catalog.Open(cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	start := time.Now()
	if err := store.RecordStart(ctx, "ep-1", "/data/episode_0000", "pick", "", start); err != nil {
		t.Fatalf("RecordStart failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := catalog.Open(cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("reopen catalog: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].EpisodeID != "ep-1" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestFinalizeUpdatesRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	start := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	if err := store.RecordStart(ctx, "ep-1", "/data/episode_0000", "pick_block", "red block", start); err != nil {
		t.Fatalf("RecordStart failed: %v", err)
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].EndedAt.IsZero() || records[0].StopReason != "" {
		t.Fatalf("unfinished episode must have no end data: %+v", records[0])
	}

	end := start.Add(90 * time.Second)
	if err := store.Finalize(ctx, "ep-1", end, 42, "timeout"); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	records, err = store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	rec := records[0]
	if rec.TotalEvents != 42 || rec.StopReason != "timeout" {
		t.Fatalf("unexpected record after finalize: %+v", rec)
	}
	if !rec.EndedAt.Equal(end) {
		t.Fatalf("expected end time %v, got %v", end, rec.EndedAt)
	}
	if rec.Description != "red block" {
		t.Fatalf("description lost: %+v", rec)
	}
}

func TestListOrdersNewestFirstAndHonorsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("ep-%d", i)
		dir := fmt.Sprintf("/data/episode_%04d", i)
		if err := store.RecordStart(ctx, id, dir, "wave", "", base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("RecordStart %d failed: %v", i, err)
		}
	}

	records, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"ep-4", "ep-3", "ep-2"} {
		if records[i].EpisodeID != want {
			t.Fatalf("record %d: expected %s, got %s", i, want, records[i].EpisodeID)
		}
	}
}

func TestRecordStartRejectsDuplicateEpisodeID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	if err := store.RecordStart(ctx, "ep-1", "/a", "pick", "", time.Now()); err != nil {
		t.Fatalf("RecordStart failed: %v", err)
	}
	if err := store.RecordStart(ctx, "ep-1", "/b", "pick", "", time.Now()); err == nil {
		t.Fatal("expected unique constraint violation for duplicate episode id")
	}
}
