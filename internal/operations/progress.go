package operations

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints human-readable progress lines for a run and keeps
// a counter that the HTTP layer can poll.
type ProgressTracker struct {
	Step      string
	Total     int
	Current   int
	StartTime time.Time
	Message   string

	out io.Writer
	mu  sync.Mutex
}

// NewProgressTracker creates a tracker for total units of work. A nil writer
// discards the progress lines.
func NewProgressTracker(out io.Writer, total int) *ProgressTracker {
	if out == nil {
		out = io.Discard
	}
	return &ProgressTracker{
		Total:     total,
		StartTime: time.Now(),
		out:       out,
	}
}

// Begin switches to a new step and prints its line
func (p *ProgressTracker) Begin(step, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Step = step
	p.Message = message
	fmt.Fprintln(p.out, message)
}

// Increment advances the counter by one and prints message
func (p *ProgressTracker) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current++
	p.Message = message
	fmt.Fprintln(p.out, message)
}

// Printf prints a line without advancing the counter
func (p *ProgressTracker) Printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Snapshot is a point-in-time copy of the tracker
type Snapshot struct {
	Step       string  `json:"step"`
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
	Elapsed    string  `json:"elapsed"`
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	percentage := 0.0
	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}

	return Snapshot{
		Step:       p.Step,
		Current:    p.Current,
		Total:      p.Total,
		Percentage: percentage,
		Message:    p.Message,
		Elapsed:    formatElapsed(time.Since(p.StartTime)),
	}
}

// IsComplete returns true if every unit of work is done
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.Current >= p.Total
}

func formatElapsed(elapsed time.Duration) string {
	switch {
	case elapsed < time.Minute:
		return fmt.Sprintf("%.0f seconds", elapsed.Seconds())
	case elapsed < time.Hour:
		return fmt.Sprintf("%.1f minutes", elapsed.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", elapsed.Hours())
	}
}
