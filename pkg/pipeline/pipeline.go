// Package pipeline runs the processing stage: every captured frame is
// converted to NV21, filtered into an RGBA buffer and submitted for display.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rtedge/rtedge/pkg/capture"
	"github.com/rtedge/rtedge/pkg/filter"
	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/rtedge/rtedge/pkg/overlay"
	"github.com/rtedge/rtedge/pkg/stats"
	"github.com/rtedge/rtedge/pkg/yuv"
)

// Sink receives processed frames. The buffer is reused by the pipeline
// after SubmitFrame returns, so sinks must copy it.
type Sink interface {
	SubmitFrame(buf []byte, w, h int)
}

// skipper is implemented by sinks that coalesce frames.
type skipper interface {
	Skipped() uint64
}

type Options struct {
	Mode    frame.Mode
	Window  int
	Overlay bool
	Metrics *stats.Metrics
}

type Pipeline struct {
	conv    *yuv.Converter
	filter  filter.Filter
	out     OutputBuffer
	sink    Sink
	rate    *stats.RateTracker
	metrics *stats.Metrics
	overlay bool
	session string
	now     func() time.Time

	mode atomic.Uint32

	// mu serializes frame processing with Close
	mu     sync.Mutex
	closed bool

	smu  sync.Mutex
	last struct {
		ms   float64
		w, h int
		at   time.Time
	}
	processed, dropped, failed atomic.Uint64

	log  *logger.Logger
	flog *logger.Logger
}

func New(f filter.Filter, sink Sink, opts Options, log *logger.Logger) *Pipeline {
	log = log.Module("pipeline")
	p := &Pipeline{
		conv:    yuv.NewConverter(),
		filter:  filter.Safe(f),
		sink:    sink,
		rate:    stats.NewRateTracker(opts.Window),
		metrics: opts.Metrics,
		overlay: opts.Overlay,
		session: uuid.Must(uuid.NewV4()).String(),
		now:     time.Now,
		log:     log,
		flog:    log.Sampled(1, 5*time.Second),
	}
	p.mode.Store(uint32(opts.Mode))
	log.Info().Str("session", p.session).Str("mode", opts.Mode.String()).Msg("Pipeline created")
	return p
}

// HandleFrame is the capture callback. It must be called from a single
// goroutine at a time, failing frames are dropped and counted.
func (p *Pipeline) HandleFrame(f *frame.Capture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	nv21, err := p.conv.Process(f)
	if err != nil {
		p.dropped.Add(1)
		if p.metrics != nil {
			p.metrics.Dropped()
		}
		p.flog.Warn().Err(err).Msg("Frame dropped")
		return
	}

	w, h := f.Width, f.Height
	out := p.out.Obtain(w, h)
	mode := p.Mode()
	ms, err := p.filter.Process(nv21, w, h, out, mode)
	if err != nil {
		p.failed.Add(1)
		if p.metrics != nil {
			p.metrics.Failed()
		}
		p.flog.Error().Err(err).Str("frame", f.String()).Msg("Filter failed")
		return
	}

	p.rate.Record(p.now())
	p.smu.Lock()
	p.last.ms, p.last.w, p.last.h, p.last.at = ms, w, h, p.now()
	p.smu.Unlock()
	p.processed.Add(1)
	if p.metrics != nil {
		p.metrics.Processed(ms, w, h)
		p.metrics.SetFPS(p.rate.Rate())
	}
	p.log.Trace().Float64("ms", ms).Str("mode", mode.String()).Msg("Frame")

	if p.overlay {
		overlay.Draw(out, w, h, p.Stats().Lines())
	}
	p.sink.SubmitFrame(out, w, h)
}

// Run feeds the pipeline from the source until ctx is done or the source
// ends. The source is stopped before the filter is released.
func (p *Pipeline) Run(ctx context.Context, src capture.Source) error {
	p.log.Info().Msg("Capture started")
	err := src.Start(ctx, p.HandleFrame)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	err = errors.Join(err, src.Close(), p.Close())
	p.log.Info().Err(err).Msg("Capture stopped")
	return err
}

// Close releases the filter. Frames arriving after Close are discarded.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.filter.Close()
}

func (p *Pipeline) Mode() frame.Mode     { return frame.Mode(p.mode.Load()) }
func (p *Pipeline) SetMode(m frame.Mode) { p.mode.Store(uint32(m)) }

// ToggleMode switches between the modes and returns the new one.
func (p *Pipeline) ToggleMode() frame.Mode {
	for {
		old := p.mode.Load()
		m := frame.Mode(old).Toggle()
		if p.mode.CompareAndSwap(old, uint32(m)) {
			p.log.Info().Str("mode", m.String()).Msg("Mode switched")
			return m
		}
	}
}

func (p *Pipeline) Session() string { return p.session }

func (p *Pipeline) Stats() stats.Snapshot {
	p.smu.Lock()
	last := p.last
	p.smu.Unlock()
	s := stats.Snapshot{
		Session:      p.session,
		FPS:          p.rate.Rate(),
		ProcessingMs: last.ms,
		Width:        last.w,
		Height:       last.h,
		Mode:         p.Mode().String(),
		Processed:    p.processed.Load(),
		Dropped:      p.dropped.Load(),
		Failed:       p.failed.Load(),
		UpdatedAt:    last.at,
	}
	if sk, ok := p.sink.(skipper); ok {
		s.Skipped = sk.Skipped()
		if p.metrics != nil {
			p.metrics.SetSkipped(s.Skipped)
		}
	}
	return s
}
