package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// LogRecord is one captured log record
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is an slog.Handler that keeps every record in memory.
// Handlers derived with WithAttrs share the parent's buffer.
type LogCapture struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
	t       *testing.T
}

// NewLogCapture returns a debug-level logger writing into a new capture
func NewLogCapture(t *testing.T) (*slog.Logger, *LogCapture) {
	c := &LogCapture{mu: &sync.Mutex{}, records: &[]LogRecord{}, t: t}
	return slog.New(c), c
}

// Enabled implements slog.Handler
func (c *LogCapture) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(c.attrs)+r.NumAttrs())
	for _, a := range c.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	*c.records = append(*c.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	c.mu.Unlock()

	if c.t != nil {
		c.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = append(append([]slog.Attr{}, c.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler. Groups are flattened.
func (c *LogCapture) WithGroup(string) slog.Handler {
	return c
}

// Records returns a copy of the captured records
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogRecord(nil), *c.records...)
}

// Find returns the records at level with the given message
func (c *LogCapture) Find(level slog.Level, message string) []LogRecord {
	var out []LogRecord
	for _, r := range c.Records() {
		if r.Level == level && r.Message == message {
			out = append(out, r)
		}
	}
	return out
}

// AssertLogged fails the test unless a record at level with message exists
func AssertLogged(t *testing.T, c *LogCapture, level slog.Level, message string) LogRecord {
	t.Helper()
	found := c.Find(level, message)
	if !assert.NotEmpty(t, found, "no %s record %q", level, message) {
		return LogRecord{}
	}
	return found[0]
}

// AssertNoErrors fails the test if anything was logged at error level
func AssertNoErrors(t *testing.T, c *LogCapture) {
	t.Helper()
	for _, r := range c.Records() {
		assert.NotEqual(t, slog.LevelError, r.Level, "unexpected error log: %s %v", r.Message, r.Attrs)
	}
}
