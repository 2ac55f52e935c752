package stats

import "github.com/prometheus/client_golang/prometheus"

const namespace = "rtedge"

// Metrics exports the pipeline statistics as Prometheus collectors.
type Metrics struct {
	fps        prometheus.Gauge
	processing prometheus.Histogram
	processed  prometheus.Counter
	dropped    prometheus.Counter
	failed     prometheus.Counter
	skipped    prometheus.Gauge
	width      prometheus.Gauge
	height     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "fps",
			Help: "Processed frames per second over the sliding window.",
		}),
		processing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "filter_duration_ms",
			Help:    "Filter processing time in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 16, 33, 50, 100, 250},
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_processed_total",
			Help: "Frames filtered and submitted for rendering.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_dropped_total",
			Help: "Frames dropped because of conversion errors.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "filter_failures_total",
			Help: "Frames dropped because the filter failed.",
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "frames_not_rendered",
			Help: "Frames overwritten in the render slot before being drawn.",
		}),
		width: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "frame_width",
			Help: "Width of the last processed frame.",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "frame_height",
			Help: "Height of the last processed frame.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.fps, m.processing, m.processed, m.dropped, m.failed, m.skipped, m.width, m.height)
	}
	return m
}

func (m *Metrics) Processed(ms float64, w, h int) {
	m.processing.Observe(ms)
	m.processed.Inc()
	m.width.Set(float64(w))
	m.height.Set(float64(h))
}

func (m *Metrics) Dropped()               { m.dropped.Inc() }
func (m *Metrics) Failed()                { m.failed.Inc() }
func (m *Metrics) SetFPS(fps float64)     { m.fps.Set(fps) }
func (m *Metrics) SetSkipped(skip uint64) { m.skipped.Set(float64(skip)) }
