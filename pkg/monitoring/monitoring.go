// Package monitoring serves the application metrics, profiling and
// statistics over HTTP.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rtedge/rtedge/pkg/config"
	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/rtedge/rtedge/pkg/network/httpx"
	"github.com/rtedge/rtedge/pkg/stats"
)

// StatsFunc returns the current pipeline statistics.
type StatsFunc func() stats.Snapshot

type Monitoring struct {
	conf   config.Monitoring
	server *httpx.Server
	stats  StatsFunc

	// mu guards closing and the streams counter increments
	mu      sync.Mutex
	closing bool
	done    chan struct{}
	streams sync.WaitGroup

	log *logger.Logger
}

// New creates new monitoring service.
// The metrics are gathered from g.
func New(conf config.Monitoring, g prometheus.Gatherer, st StatsFunc, log *logger.Logger) (*Monitoring, error) {
	m := &Monitoring{conf: conf, stats: st, done: make(chan struct{}), log: log.Module("monitoring")}
	serv, err := httpx.NewServer(
		fmt.Sprintf(":%d", conf.Port),
		func(serv *httpx.Server) httpx.Handler {
			h := httpx.NewServeMux(conf.URLPrefix)

			if conf.ProfilingEnabled {
				m.log.Info().Msgf("Profiling is enabled at %v/debug/pprof", serv.Addr+conf.URLPrefix)
				h.HandleFunc("/debug/pprof/", pprof.Index)
				h.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
				h.HandleFunc("/debug/pprof/profile", pprof.Profile)
				h.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
				h.HandleFunc("/debug/pprof/trace", pprof.Trace)
				// pprof handlers with a custom prefix need to be set explicitly,
				// the index page only renders links to them
				for _, p := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
					h.Handle("/debug/pprof/"+p, pprof.Handler(p))
				}
			}

			if conf.MetricEnabled {
				m.log.Info().Msgf("Prometheus metric is enabled at %v/metrics", serv.Addr+conf.URLPrefix)
				h.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
			}

			if conf.StatsEnabled && st != nil {
				m.log.Info().Msgf("Stats are enabled at %v/stats", serv.Addr+conf.URLPrefix)
				h.HandleFunc("/stats", m.handleStats)
				h.HandleFunc("/stats/ws", m.handleStream)
			}
			return h
		},
		httpx.WithPortRoll(conf.PortRoll),
		httpx.WithLogger(m.log),
		// the stats stream keeps connections open
		httpx.WithWriteTimeout(0),
	)
	if err != nil {
		return nil, err
	}
	m.server = serv
	return m, nil
}

func (m *Monitoring) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.stats()); err != nil {
		m.log.Error().Err(err).Msg("stats")
	}
}

func (m *Monitoring) Run() {
	m.log.Info().Msgf("Starting monitoring server at %v", m.server.Addr)
	m.server.Run()
}

func (m *Monitoring) Shutdown(ctx context.Context) error {
	m.log.Info().Msg("Shutting down monitoring server")
	m.mu.Lock()
	if !m.closing {
		m.closing = true
		close(m.done)
	}
	m.mu.Unlock()
	err := m.server.Shutdown(ctx)
	m.streams.Wait()
	return err
}

// addStream counts a new stats stream, false once the shutdown has begun.
func (m *Monitoring) addStream() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		return false
	}
	m.streams.Add(1)
	return true
}

func (m *Monitoring) Addr() string { return m.server.Addr }

func (m *Monitoring) Port() int { return m.server.Port() }

func (m *Monitoring) String() string {
	return fmt.Sprintf("monitoring::%s:%d", m.conf.URLPrefix, m.server.Port())
}
