package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is a captured log entry.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Recorder is a slog.Handler that keeps every record it handles, so tests can
// assert on what was logged.
type Recorder struct {
	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, records: &[]Record{}}
}

// Logger returns a logger backed by r.
func (r *Recorder) Logger() *slog.Logger { return slog.New(r) }

// Enabled implements slog.Handler.
func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]string, rec.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.String()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.records = append(*r.records, Record{Level: rec.Level, Message: rec.Message, Attrs: attrs})
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Recorder{mu: r.mu, records: r.records, attrs: append(append([]slog.Attr{}, r.attrs...), attrs...)}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of everything recorded at or above level.
func (r *Recorder) Records(level slog.Level) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range *r.records {
		if rec.Level >= level {
			out = append(out, rec)
		}
	}
	return out
}

// Messages returns the messages recorded at exactly level.
func (r *Recorder) Messages(level slog.Level) []string {
	var out []string
	for _, rec := range r.Records(level) {
		if rec.Level == level {
			out = append(out, rec.Message)
		}
	}
	return out
}
