// Package filter defines the per-frame image filter contract.
//
// A filter takes an NV21 frame and fills a caller-owned RGBA buffer of
// exactly w*h*4 bytes, returning the time it took in milliseconds.
// It must not keep references to either buffer after the call returns.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/rtedge/rtedge/pkg/yuv"
)

var (
	ErrBufferSize     = errors.New("bad buffer size")
	ErrClosed         = errors.New("filter is closed")
	ErrFilterPanic    = errors.New("filter panic")
	ErrUnknownBackend = errors.New("unknown filter backend")
)

type Filter interface {
	// Process filters one frame and returns the elapsed time in ms.
	Process(nv21 []byte, w, h int, out []byte, mode frame.Mode) (float64, error)
	// Close releases the filter resources. Safe to call more than once.
	Close() error
}

// Constructor acquires a new filter instance.
type Constructor func(log *logger.Logger) (Filter, error)

var (
	mu       sync.RWMutex
	backends = map[string]Constructor{}
)

// Register makes a filter backend available by name.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if c == nil {
		panic("filter: nil constructor for " + name)
	}
	backends[name] = c
}

// Backends lists the registered backend names.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(backends))
	for k := range backends {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Open acquires a filter of the named backend wrapped with Safe.
func Open(name string, log *logger.Logger) (Filter, error) {
	mu.RLock()
	c, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, Backends())
	}
	f, err := c(log)
	if err != nil {
		return nil, fmt.Errorf("filter %v: %w", name, err)
	}
	return Safe(f), nil
}

// Check validates the buffers against the frame dimensions.
// Odd dimensions are rejected since NV21 chroma is subsampled by two.
func Check(nv21 []byte, w, h int, out []byte) error {
	if err := yuv.CheckSize(w, h); err != nil {
		return fmt.Errorf("%w: %w", ErrBufferSize, err)
	}
	if len(nv21) < frame.PackedSize(w, h) {
		return fmt.Errorf("%w: input %v < %v", ErrBufferSize, len(nv21), frame.PackedSize(w, h))
	}
	if len(out) != frame.RGBASize(w, h) {
		return fmt.Errorf("%w: output %v != %v", ErrBufferSize, len(out), frame.RGBASize(w, h))
	}
	return nil
}

type safe struct {
	Filter
	once sync.Once
	err  error
}

// Safe converts panics of the wrapped filter into ErrFilterPanic errors
// and makes Close idempotent.
func Safe(f Filter) Filter {
	if s, ok := f.(*safe); ok {
		return s
	}
	return &safe{Filter: f}
}

func (s *safe) Process(nv21 []byte, w, h int, out []byte, mode frame.Mode) (ms float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			ms, err = 0, fmt.Errorf("%w: %v", ErrFilterPanic, r)
		}
	}()
	ms, err = s.Filter.Process(nv21, w, h, out, mode)
	if ms < 0 {
		ms = 0
	}
	return
}

func (s *safe) Close() error {
	s.once.Do(func() { s.err = s.Filter.Close() })
	return s.err
}
