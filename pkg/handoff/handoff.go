// Package handoff passes rendered frames from the processing goroutine
// to the render loop through a single mutex-guarded slot.
//
// Both sides copy: the producer copies into the slot, the consumer copies
// out of it into its own scratch buffer. Neither side ever touches a buffer
// that the other is writing, and an unconsumed frame is simply overwritten
// by the next one (latest frame wins).
package handoff

import "sync"

type Slot struct {
	mu    sync.Mutex
	buf   []byte
	w, h  int
	dirty bool

	scratch []byte

	published uint64
	dropped   uint64
}

func New() *Slot { return &Slot{} }

// Publish copies src into the slot replacing any unconsumed frame.
func (s *Slot) Publish(src []byte, w, h int) {
	s.mu.Lock()
	if len(s.buf) != len(src) {
		s.buf = make([]byte, len(src))
	}
	copy(s.buf, src)
	s.w, s.h = w, h
	if s.dirty {
		s.dropped++
	}
	s.dirty = true
	s.published++
	s.mu.Unlock()
}

// TakeIfDirty copies the latest published frame into the consumer scratch
// buffer. The returned slice is reused by the following calls and must only
// be used by the consumer. ok is false when nothing new was published since
// the last take.
func (s *Slot) TakeIfDirty() (buf []byte, w, h int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil, 0, 0, false
	}
	if len(s.scratch) != len(s.buf) {
		s.scratch = make([]byte, len(s.buf))
	}
	copy(s.scratch, s.buf)
	s.dirty = false
	return s.scratch, s.w, s.h, true
}

// Dropped returns the number of frames overwritten before being taken.
func (s *Slot) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Slot) Published() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}
