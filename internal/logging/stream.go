package logging

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogEvent is one structured record as exposed over the logs API.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	OperationID   string            `json:"operation_id,omitempty"`
	SourcePath    string            `json:"source_path,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// StreamHub is a bounded ring of recent events. The daemon publishes every
// record through it; the logs endpoint reads tails and long-polls for more.
type StreamHub struct {
	mu       sync.Mutex
	more     *sync.Cond
	capacity int
	events   []LogEvent
	lastSeq  uint64
}

func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = 512
	}
	hub := &StreamHub{capacity: capacity}
	hub.more = sync.NewCond(&hub.mu)
	return hub
}

// Publish stamps evt with the next sequence number and appends it, evicting
// the oldest events once the ring is full. Waiting fetches are woken.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.lastSeq++
	evt.Sequence = h.lastSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.events) >= h.capacity {
		drop := len(h.events) - h.capacity + 1
		h.events = append(h.events[:0], h.events[drop:]...)
	}
	h.events = append(h.events, evt)
	h.more.Broadcast()
	h.mu.Unlock()
}

// Fetch returns events with sequence greater than since, oldest first, along
// with the latest sequence for use as the next cursor. With wait set it
// blocks until something arrives past the cursor or ctx ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if wait && ctx != nil && ctx.Done() != nil {
		// Take the lock so cancellation cannot slip between the context
		// check below and the cond registering its waiter.
		stop := context.AfterFunc(ctx, func() {
			h.mu.Lock()
			h.more.Broadcast()
			h.mu.Unlock()
		})
		defer stop()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	for {
		batch := h.afterLocked(since, limit)
		if len(batch) > 0 || !wait {
			return batch, h.lastSeq, ctxErr(ctx)
		}
		if err := ctxErr(ctx); err != nil {
			return nil, h.lastSeq, err
		}
		h.more.Wait()
		if err := ctxErr(ctx); err != nil {
			return nil, h.lastSeq, err
		}
	}
}

// Tail returns up to limit of the newest events plus the latest sequence.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	start := max(0, len(h.events)-limit)
	return append([]LogEvent(nil), h.events[start:]...), h.lastSeq
}

// FirstSequence reports the oldest sequence still buffered, or the latest
// one when the ring is empty. Clients use it to detect cursor gaps.
func (h *StreamHub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return h.lastSeq
	}
	return h.events[0].Sequence
}

// afterLocked binary-searches the ring, which is ordered by sequence, for
// the first event past the cursor.
func (h *StreamHub) afterLocked(since uint64, limit int) []LogEvent {
	first := sort.Search(len(h.events), func(i int) bool {
		return h.events[i].Sequence > since
	})
	if first == len(h.events) {
		return nil
	}
	end := min(first+limit, len(h.events))
	return append([]LogEvent(nil), h.events[first:end]...)
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// streamHandler tees records into the hub before forwarding them to the
// wrapped handler. Attrs bound via With are replayed into each event so
// logger-level context survives the conversion.
type streamHandler struct {
	inner slog.Handler
	hub   *StreamHub
	bound []slog.Attr
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{inner: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	h.hub.Publish(h.eventFor(record))
	return h.inner.Handle(ctx, record.Clone())
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make([]slog.Attr, 0, len(h.bound)+len(attrs))
	bound = append(append(bound, h.bound...), attrs...)
	return &streamHandler{inner: h.inner.WithAttrs(attrs), hub: h.hub, bound: bound}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{inner: h.inner.WithGroup(name), hub: h.hub, bound: h.bound}
}

func (h *streamHandler) eventFor(record slog.Record) LogEvent {
	evt := LogEvent{
		Timestamp: record.Time,
		Level:     strings.ToUpper(record.Level.String()),
		Message:   strings.TrimSpace(record.Message),
		Fields:    make(map[string]string),
	}
	for _, attr := range h.bound {
		applyEventAttr(&evt, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		applyEventAttr(&evt, attr)
		return true
	})
	return evt
}

// applyEventAttr routes the well-known keys onto their LogEvent fields and
// collects everything else into Fields. Later values overwrite earlier ones,
// so call-site attrs win over logger-bound ones.
func applyEventAttr(evt *LogEvent, attr slog.Attr) {
	key := strings.TrimSpace(attr.Key)
	if key == "" {
		return
	}
	text := valueText(attr.Value)
	switch key {
	case FieldComponent:
		evt.Component = text
	case FieldOperationID:
		evt.OperationID = text
	case FieldSourcePath:
		evt.SourcePath = text
	case FieldCorrelationID:
		evt.CorrelationID = text
	default:
		evt.Fields[key] = text
	}
}
