// Package config holds the application configuration.
//
// Values are read from config.yaml, then from environment variables with
// the RTEDGE_ prefix (e.g. RTEDGE_CAPTURE_WIDTH=640) and then from command
// line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rtedge/rtedge/pkg/frame"
)

type Config struct {
	Capture    Capture
	Filter     Filter
	Render     Render
	Stats      Stats
	Monitoring Monitoring
	Lock       Lock
	Debug      bool
}

type Capture struct {
	// Source is either camera or pattern.
	Source            string
	Device            string
	Width             int
	Height            int
	Fps               float64
	Padding           int
	ChromaPixelStride int
	// Frames limits the number of captured frames (pattern only).
	Frames int
}

type Filter struct {
	Backend string
	Mode    string
}

type Render struct {
	Title   string
	Width   int
	Height  int
	Overlay bool
	VSync   bool
}

type Stats struct {
	Window int
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool `json:"metric_enabled"`
	ProfilingEnabled bool `json:"profiling_enabled"`
	StatsEnabled     bool `json:"stats_enabled"`
	StatsInterval    time.Duration
	PortRoll         bool
}

func (c *Monitoring) IsEnabled() bool {
	return c.MetricEnabled || c.ProfilingEnabled || c.StatsEnabled
}

type Lock struct {
	Path string
}

const (
	SourceCamera  = "camera"
	SourcePattern = "pattern"
)

// Default returns the configuration used for the values missing
// in the file.
func Default() Config {
	return Config{
		Capture: Capture{
			Source:            SourceCamera,
			Width:             1280,
			Height:            720,
			Fps:               30,
			ChromaPixelStride: 1,
		},
		Filter: Filter{Backend: "opencv", Mode: frame.ModeEdges.String()},
		Render: Render{Title: "rtedge", Width: 1280, Height: 720, VSync: true},
		Stats:  Stats{Window: 30},
		Monitoring: Monitoring{
			Port:          6601,
			StatsInterval: time.Second,
		},
	}
}

var ErrInvalid = errors.New("invalid config")

func (c *Config) Validate() error {
	var errs []string
	switch c.Capture.Source {
	case SourceCamera, SourcePattern:
	default:
		errs = append(errs, fmt.Sprintf("unknown capture source %q", c.Capture.Source))
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		errs = append(errs, fmt.Sprintf("capture size %vx%v", c.Capture.Width, c.Capture.Height))
	}
	if c.Capture.Source == SourcePattern && (c.Capture.Width%2 != 0 || c.Capture.Height%2 != 0) {
		errs = append(errs, fmt.Sprintf("odd pattern size %vx%v", c.Capture.Width, c.Capture.Height))
	}
	if c.Capture.Fps <= 0 {
		errs = append(errs, fmt.Sprintf("capture fps %v", c.Capture.Fps))
	}
	if c.Filter.Backend == "" {
		errs = append(errs, "no filter backend")
	}
	if _, ok := frame.LookupMode(c.Filter.Mode); !ok {
		errs = append(errs, fmt.Sprintf("unknown filter mode %q", c.Filter.Mode))
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Sprintf("window size %vx%v", c.Render.Width, c.Render.Height))
	}
	if c.Monitoring.StatsInterval <= 0 {
		c.Monitoring.StatsInterval = time.Second
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, strings.Join(errs, ", "))
	}
	return nil
}

func (c *Config) Mode() frame.Mode { return frame.ParseMode(c.Filter.Mode) }

// LockPath returns the instance lock file path.
func (c *Config) LockPath() string {
	if c.Lock.Path != "" {
		return c.Lock.Path
	}
	return filepath.Join(os.TempDir(), "rtedge.lock")
}
