package logging

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestStreamHandler_WithAttrs(t *testing.T) {
	hub := NewStreamHub(100)

	// Create a handler that wraps a discard handler
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	// Create logger with operation_id attribute (simulating organizer logger)
	logger := slog.New(handler).With(slog.String(FieldOperationID, "op-42"))

	// Log a message
	logger.Info("test message", slog.String("extra", "value"))

	// Fetch the event from the hub
	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	// Verify the operation id from WithAttrs is included
	if events[0].OperationID != "op-42" {
		t.Errorf("expected operation_id=op-42, got %q", events[0].OperationID)
	}
	if events[0].Message != "test message" {
		t.Errorf("expected message='test message', got %q", events[0].Message)
	}
	if events[0].Fields["extra"] != "value" {
		t.Errorf("expected extra field to survive, got %v", events[0].Fields)
	}
}

func TestStreamHandler_NestedWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	// Create logger with multiple layers of WithAttrs
	logger := slog.New(handler).
		With(slog.String(FieldComponent, "organizer")).
		With(slog.String(FieldOperationID, "op-99")).
		With(slog.String(FieldSourcePath, "/incoming/movie.mkv"))

	logger.Info("organize progress")

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	evt := events[0]
	if evt.OperationID != "op-99" {
		t.Errorf("expected operation_id=op-99, got %q", evt.OperationID)
	}
	if evt.Component != "organizer" {
		t.Errorf("expected component='organizer', got %q", evt.Component)
	}
	if evt.SourcePath != "/incoming/movie.mkv" {
		t.Errorf("expected source_path='/incoming/movie.mkv', got %q", evt.SourcePath)
	}
}

func TestStreamHandler_CallSiteOverridesWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	// Create logger with a component via WithAttrs
	logger := slog.New(handler).With(slog.String(FieldComponent, "original"))

	// Log with a different component at call site - should override
	logger.Info("message", slog.String(FieldComponent, "overridden"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].Component != "overridden" {
		t.Errorf("expected component='overridden', got %q", events[0].Component)
	}
}

func TestStreamHandler_NilHub(t *testing.T) {
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, nil)

	// Should return the base handler when hub is nil
	if handler != base {
		t.Errorf("expected base handler when hub is nil")
	}
}

func TestStreamHandler_Enabled(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := newStreamHandler(base, hub)

	// Should delegate to base handler
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected INFO to be disabled when base level is WARN")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected WARN to be enabled when base level is WARN")
	}
}

func TestStreamHub_EvictsBeyondCapacity(t *testing.T) {
	hub := NewStreamHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(LogEvent{Timestamp: time.Now(), Level: "info", Message: fmt.Sprintf("event-%d", i)})
	}

	events, latest := hub.Tail(10)
	if len(events) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(events))
	}
	if events[0].Message != "event-2" {
		t.Errorf("expected oldest retained event to be event-2, got %q", events[0].Message)
	}
	if latest != events[len(events)-1].Sequence {
		t.Errorf("expected latest sequence %d, got %d", events[len(events)-1].Sequence, latest)
	}
	if hub.FirstSequence() != events[0].Sequence {
		t.Errorf("expected first sequence %d, got %d", events[0].Sequence, hub.FirstSequence())
	}
}

func TestStreamHub_FetchSince(t *testing.T) {
	hub := NewStreamHub(10)
	for i := 0; i < 4; i++ {
		hub.Publish(LogEvent{Timestamp: time.Now(), Level: "info", Message: fmt.Sprintf("event-%d", i)})
	}

	all, latest, err := hub.Fetch(context.Background(), 0, 100, false)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 events, got %d", len(all))
	}

	since := all[1].Sequence
	rest, _, err := hub.Fetch(context.Background(), since, 100, false)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("expected 2 events after sequence %d, got %d", since, len(rest))
	}
	if rest[0].Message != "event-2" {
		t.Errorf("expected first event after cursor to be event-2, got %q", rest[0].Message)
	}

	none, cursor, err := hub.Fetch(context.Background(), latest, 100, false)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no events past latest cursor, got %d", len(none))
	}
	if cursor != latest {
		t.Errorf("expected cursor to stay at %d, got %d", latest, cursor)
	}
}

func TestStreamHub_FetchWaitHonorsContext(t *testing.T) {
	hub := NewStreamHub(10)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, 0, 10, true)
	if err == nil {
		t.Fatal("expected context error from blocked fetch")
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
