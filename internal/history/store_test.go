package history_test

import (
	"context"
	"testing"
	"time"

	"reshelf/internal/history"
	"reshelf/internal/testsupport"
)

func TestRecordAssignsDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	entry := &history.Entry{
		Source:      "/downloads/Inception.2010.1080p.mkv",
		Destination: "/library/Movies/Inception (2010)/Inception (2010).mkv",
		Mode:        "hardlink",
		Media:       "movie",
		Title:       "Inception",
		Status:      history.StatusSuccess,
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if entry.ID == 0 {
		t.Error("expected entry ID to be assigned")
	}
	if entry.OperationID == "" {
		t.Error("expected operation id to be assigned")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("expected created at to be assigned")
	}

	found, err := store.Find(ctx, entry.OperationID)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if found == nil {
		t.Fatal("expected to find recorded entry")
	}
	if found.Title != "Inception" || found.Status != history.StatusSuccess {
		t.Errorf("unexpected entry: %+v", found)
	}
	if found.Destination != entry.Destination {
		t.Errorf("destination = %q, want %q", found.Destination, entry.Destination)
	}
}

func TestRecordRequiresSourceAndStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, &history.Entry{Status: history.StatusFailed, Mode: "copy"}); err == nil {
		t.Error("expected error for missing source")
	}
	if err := store.Record(ctx, &history.Entry{Source: "/downloads/x.mkv", Mode: "copy"}); err == nil {
		t.Error("expected error for missing status")
	}
}

func TestListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sources := []string{"/downloads/a.mkv", "/downloads/b.mkv", "/downloads/c.mkv"}
	for i, source := range sources {
		entry := &history.Entry{
			Source:    source,
			Mode:      "copy",
			Status:    history.StatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record(%s) error: %v", source, err)
		}
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	if entries[0].Source != "/downloads/c.mkv" || entries[2].Source != "/downloads/a.mkv" {
		t.Errorf("expected newest first, got %s .. %s", entries[0].Source, entries[2].Source)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(limit) error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d entries, want 2", len(limited))
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	records := []struct {
		source string
		status history.Status
	}{
		{"/downloads/good.mkv", history.StatusSuccess},
		{"/downloads/gone.mkv", history.StatusSourceMissing},
		{"/downloads/unknown.mkv", history.StatusMetadataNotFound},
	}
	for _, rec := range records {
		entry := &history.Entry{Source: rec.source, Mode: "copy", Status: rec.status}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record(%s) error: %v", rec.source, err)
		}
	}

	failures, err := store.List(ctx, 0, history.StatusSourceMissing, history.StatusMetadataNotFound)
	if err != nil {
		t.Fatalf("List(statuses) error: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("List(statuses) returned %d entries, want 2", len(failures))
	}
	for _, entry := range failures {
		if entry.Status == history.StatusSuccess {
			t.Errorf("unexpected success entry in filtered list: %s", entry.Source)
		}
	}
}

func TestStatsGroupsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	statuses := []history.Status{
		history.StatusSuccess,
		history.StatusSuccess,
		history.StatusTransferFailed,
	}
	for i, status := range statuses {
		entry := &history.Entry{Source: "/downloads/file.mkv", Mode: "copy", Status: status}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record(%d) error: %v", i, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats[history.StatusSuccess] != 2 {
		t.Errorf("success count = %d, want 2", stats[history.StatusSuccess])
	}
	if stats[history.StatusTransferFailed] != 1 {
		t.Errorf("transfer_failed count = %d, want 1", stats[history.StatusTransferFailed])
	}
}

func TestClearRemovesEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := &history.Entry{Source: "/downloads/file.mkv", Mode: "move", Status: history.StatusSuccess}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if removed != 3 {
		t.Errorf("Clear() removed %d entries, want 3", removed)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() after Clear error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty journal, got %d entries", len(entries))
	}
}

func TestFindMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	entry, err := store.Find(context.Background(), "no-such-operation")
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil entry, got %+v", entry)
	}
}

func TestValidStatus(t *testing.T) {
	for _, status := range history.KnownStatuses() {
		if !history.ValidStatus(string(status)) {
			t.Errorf("ValidStatus(%q) = false, want true", status)
		}
	}
	if history.ValidStatus("pending") {
		t.Error("ValidStatus(pending) = true, want false")
	}
}
