package api

import (
	"context"

	"reshelf/internal/history"
)

// HistoryReader abstracts journal persistence interactions needed for API queries.
type HistoryReader interface {
	List(ctx context.Context, limit int, statuses ...history.Status) ([]*history.Entry, error)
	Stats(ctx context.Context) (map[history.Status]int, error)
	Find(ctx context.Context, operationID string) (*history.Entry, error)
}

// HistoryService exposes read-only journal operations returning API DTOs.
type HistoryService struct {
	store HistoryReader
}

// NewHistoryService constructs a HistoryService around the provided reader.
func NewHistoryService(store HistoryReader) *HistoryService {
	if store == nil {
		return nil
	}
	return &HistoryService{store: store}
}

// List returns journal entries filtered by status, newest first.
func (s *HistoryService) List(ctx context.Context, limit int, statuses ...history.Status) ([]HistoryEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entries, err := s.store.List(ctx, limit, statuses...)
	if err != nil {
		return nil, err
	}
	return FromHistoryEntries(entries), nil
}

// Stats returns journal summary counts keyed by status string.
func (s *HistoryService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeHistoryStats(stats), nil
}

// Describe fetches a single journal entry by operation id.
func (s *HistoryService) Describe(ctx context.Context, operationID string) (*HistoryEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entry, err := s.store.Find(ctx, operationID)
	if err != nil || entry == nil {
		return nil, err
	}
	dto := FromHistoryEntry(entry)
	return &dto, nil
}
