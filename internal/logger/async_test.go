package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// recordingHandler collects slog.Records for test assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
	attrs   []slog.Attr
	delay   time.Duration
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	rec.AddAttrs(h.attrs...)
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &shared{parent: h, attrs: attrs}
}
func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// shared records into its parent with extra attrs.
type shared struct {
	parent *recordingHandler
	attrs  []slog.Attr
}

func (s *shared) Enabled(context.Context, slog.Level) bool { return true }
func (s *shared) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	rec.AddAttrs(s.attrs...)
	return s.parent.Handle(ctx, rec)
}
func (s *shared) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &shared{parent: s.parent, attrs: append(append([]slog.Attr{}, s.attrs...), attrs...)}
}
func (s *shared) WithGroup(string) slog.Handler { return s }

func attrValue(rec slog.Record, key string) string {
	var v string
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value.String()
			return false
		}
		return true
	})
	return v
}

func TestAsyncHandler_BasicWrite(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 100, 1)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	if err := ah.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	ah.Close()

	if got := inner.count(); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
}

func TestAsyncHandler_ConcurrentWrites(t *testing.T) {
	const goroutines, perGoroutine = 50, 20
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, goroutines*perGoroutine, 4)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "concurrent", 0))
			}
		}()
	}
	wg.Wait()
	ah.Close()

	if got := inner.count(); got != goroutines*perGoroutine {
		t.Fatalf("expected %d records, got %d", goroutines*perGoroutine, got)
	}
}

func TestAsyncHandler_ChannelFullDrops(t *testing.T) {
	inner := &recordingHandler{delay: 10 * time.Millisecond}
	ah := NewAsyncHandler(inner, 1, 1)

	for range 50 {
		_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "flood", 0))
	}
	ah.Close()

	if ah.DroppedCount() == 0 {
		t.Fatal("expected some records to be dropped, got 0")
	}
	if int64(inner.count())+ah.DroppedCount() != 50 {
		t.Errorf("written %d + dropped %d != 50", inner.count(), ah.DroppedCount())
	}
}

func TestAsyncHandler_DerivedKeepsAttrsAndQueue(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 10, 1)
	derived := ah.WithAttrs([]slog.Attr{slog.String("component", "swarm")})

	ctx := WithRunID(context.Background(), "run-1")
	_ = derived.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelInfo, "step", 0))
	ah.Close()

	if inner.count() != 1 {
		t.Fatalf("expected 1 record, got %d", inner.count())
	}
	rec := inner.records[0]
	if attrValue(rec, "component") != "swarm" {
		t.Error("derived handler lost its attrs")
	}
	if attrValue(rec, "run_id") != "run-1" {
		t.Error("run id from context not captured before enqueue")
	}
}

func TestAsyncHandler_CloseIdempotent(t *testing.T) {
	ah := NewAsyncHandler(&recordingHandler{}, 10, 2)
	ah.Close()
	ah.Close()
}
