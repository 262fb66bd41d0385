package operations

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 4)

	tracker.Increment("Processing median income data...")
	tracker.Increment("Processing SNAP data...")
	tracker.Begin(StageAssemble, "Creating narrative datasets...")
	tracker.Printf("Processing complete! Files saved to %s", "processed_data")

	assert.Equal(t, "Processing median income data...\n"+
		"Processing SNAP data...\n"+
		"Creating narrative datasets...\n"+
		"Processing complete! Files saved to processed_data\n", out.String())

	snap := tracker.GetProgress()
	assert.Equal(t, 2, snap.Current)
	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 50.0, snap.Percentage)
	assert.Equal(t, StageAssemble, snap.Step)
	assert.False(t, tracker.IsComplete())

	tracker.Increment("x")
	tracker.Increment("y")
	assert.True(t, tracker.IsComplete())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, 0)
	assert.NotPanics(t, func() { tracker.Increment("ignored") })
	assert.Equal(t, 0.0, tracker.GetProgress().Percentage)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "5 seconds", formatElapsed(5e9))
	assert.Equal(t, "1.5 minutes", formatElapsed(90e9))
	assert.Equal(t, "2.0 hours", formatElapsed(7200e9))
}
