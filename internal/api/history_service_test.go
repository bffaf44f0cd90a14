package api

import (
	"context"
	"testing"
	"time"

	"reshelf/internal/history"
)

type historyReaderStub struct {
	entries []*history.Entry
	stats   map[history.Status]int

	lastLimit    int
	lastStatuses []history.Status
}

func (s *historyReaderStub) List(_ context.Context, limit int, statuses ...history.Status) ([]*history.Entry, error) {
	s.lastLimit = limit
	s.lastStatuses = statuses
	return s.entries, nil
}

func (s *historyReaderStub) Stats(context.Context) (map[history.Status]int, error) {
	return s.stats, nil
}

func (s *historyReaderStub) Find(_ context.Context, operationID string) (*history.Entry, error) {
	for _, entry := range s.entries {
		if entry.OperationID == operationID {
			return entry, nil
		}
	}
	return nil, nil
}

func TestHistoryServiceList(t *testing.T) {
	stub := &historyReaderStub{entries: []*history.Entry{
		{ID: 2, OperationID: "op-2", Source: "/b.mkv", Status: history.StatusSuccess, CreatedAt: time.Now()},
		{ID: 1, OperationID: "op-1", Source: "/a.mkv", Status: history.StatusFailed},
	}}
	svc := NewHistoryService(stub)

	entries, err := svc.List(context.Background(), 25, history.StatusSuccess)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if stub.lastLimit != 25 {
		t.Fatalf("limit not forwarded: %d", stub.lastLimit)
	}
	if len(stub.lastStatuses) != 1 || stub.lastStatuses[0] != history.StatusSuccess {
		t.Fatalf("statuses not forwarded: %v", stub.lastStatuses)
	}
}

func TestHistoryServiceStats(t *testing.T) {
	svc := NewHistoryService(&historyReaderStub{stats: map[history.Status]int{
		history.StatusSuccess: 3,
		history.StatusFailed:  1,
	}})

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["success"] != 3 || stats["failed"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestHistoryServiceDescribe(t *testing.T) {
	svc := NewHistoryService(&historyReaderStub{entries: []*history.Entry{
		{ID: 1, OperationID: "op-1", Source: "/a.mkv", Status: history.StatusSuccess},
	}})

	entry, err := svc.Describe(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if entry == nil || entry.OperationID != "op-1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	missing, err := svc.Describe(context.Background(), "op-404")
	if err != nil {
		t.Fatalf("Describe missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown operation, got %+v", missing)
	}
}

func TestHistoryServiceNilStore(t *testing.T) {
	if svc := NewHistoryService(nil); svc != nil {
		t.Fatalf("expected nil service for nil store")
	}
	var svc *HistoryService
	if entries, err := svc.List(context.Background(), 10); err != nil || entries != nil {
		t.Fatalf("nil service List should be a no-op, got %v %v", entries, err)
	}
}
