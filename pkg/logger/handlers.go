package logger

import (
	"context"
	"log/slog"
	"math/rand"
	"regexp"
	"sync"
)

// AsyncHandler buffers records on a channel and writes them from a single
// background goroutine, so callers never block on the underlying sink.
type AsyncHandler struct {
	next    slog.Handler
	records chan slog.Record
	drop    bool
}

// NewAsyncHandler wraps next with a bounded buffer of the given size. When
// drop is true, records are discarded under backpressure instead of
// blocking the caller; when false, Handle blocks until buffer space frees.
func NewAsyncHandler(next slog.Handler, bufferSize int, drop bool) *AsyncHandler {
	h := &AsyncHandler{
		next:    next,
		records: make(chan slog.Record, bufferSize),
		drop:    drop,
	}
	go h.loop()
	return h
}

func (h *AsyncHandler) loop() {
	for r := range h.records {
		_ = h.next.Handle(context.Background(), r)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.drop {
		select {
		case h.records <- r:
		default:
			// buffer full, drop rather than block the caller
		}
		return nil
	}
	h.records <- r
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), records: h.records, drop: h.drop}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), records: h.records, drop: h.drop}
}

// SamplingHandler drops a fraction of records before they reach next.
type SamplingHandler struct {
	next slog.Handler
	rate float64
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewSamplingHandler keeps roughly `rate` (0.0-1.0) of records.
func NewSamplingHandler(next slog.Handler, rate float64) *SamplingHandler {
	return &SamplingHandler{next: next, rate: rate, rng: rand.New(rand.NewSource(1))}
}

func (h *SamplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SamplingHandler) Handle(ctx context.Context, r slog.Record) error {
	// Errors are never sampled away; only lower-severity noise is.
	if r.Level >= slog.LevelError {
		return h.next.Handle(ctx, r)
	}
	h.mu.Lock()
	keep := h.rng.Float64() < h.rate
	h.mu.Unlock()
	if !keep {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SamplingHandler{next: h.next.WithAttrs(attrs), rate: h.rate, rng: h.rng}
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	return &SamplingHandler{next: h.next.WithGroup(name), rate: h.rate, rng: h.rng}
}

// RedactHandler scrubs string attribute values that look like email
// addresses or credit card numbers before they reach the sink.
type RedactHandler struct {
	next slog.Handler
}

func NewRedactHandler(next slog.Handler) *RedactHandler {
	return &RedactHandler{next: next}
}

var (
	emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.-]+$`)
	ccPattern    = regexp.MustCompile(`^[\d][\d \-]{12,18}[\d]$`)
)

func redactValue(key string, v slog.Value) slog.Value {
	if v.Kind() != slog.KindString {
		return v
	}
	s := v.String()
	if emailPattern.MatchString(s) || ccPattern.MatchString(s) {
		return slog.StringValue("[REDACTED]")
	}
	return v
}

func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	nr := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		a.Value = redactValue(a.Key, a.Value)
		nr.AddAttrs(a)
		return true
	})
	return h.next.Handle(ctx, nr)
}

func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RedactHandler{next: h.next.WithAttrs(attrs)}
}

func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{next: h.next.WithGroup(name)}
}
