// Package stats tracks pipeline throughput for display and metrics.
package stats

import (
	"fmt"
	"strings"
	"time"
)

// Snapshot is a point-in-time view of the pipeline statistics.
// It's meant for display only.
type Snapshot struct {
	Session      string    `json:"session"`
	FPS          float64   `json:"fps"`
	ProcessingMs float64   `json:"processing_ms"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Mode         string    `json:"mode"`
	Processed    uint64    `json:"processed"`
	Dropped      uint64    `json:"dropped"`
	Failed       uint64    `json:"failed"`
	Skipped      uint64    `json:"skipped"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s Snapshot) Resolution() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Lines returns the on-screen statistics text.
func (s Snapshot) Lines() []string {
	return []string{
		fmt.Sprintf("FPS: %.1f", s.FPS),
		fmt.Sprintf("Proc: %.1f ms", s.ProcessingMs),
		"Res: " + s.Resolution(),
		"Mode: " + s.Mode,
	}
}

func (s Snapshot) String() string { return strings.Join(s.Lines(), "\n") }
