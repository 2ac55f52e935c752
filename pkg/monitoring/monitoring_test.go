package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rtedge/rtedge/pkg/config"
	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/rtedge/rtedge/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Monitoring {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := stats.NewMetrics(reg)
	m.Processed(4, 640, 480)

	var n atomic.Uint64
	snap := func() stats.Snapshot {
		return stats.Snapshot{Session: "s1", FPS: 30, Width: 640, Height: 480, Mode: "Edges", Processed: n.Add(1)}
	}
	mon, err := New(config.Monitoring{
		Port:             0,
		URLPrefix:        "/rt",
		MetricEnabled:    true,
		ProfilingEnabled: true,
		StatsEnabled:     true,
		StatsInterval:    10 * time.Millisecond,
	}, reg, snap, logger.Nop())
	require.NoError(t, err)
	mon.Run()
	t.Cleanup(func() { _ = mon.Shutdown(context.Background()) })
	return mon
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestEndpoints(t *testing.T) {
	mon := newTestServer(t)
	base := fmt.Sprintf("http://localhost:%d/rt", mon.Port())

	metrics := get(t, base+"/metrics")
	assert.Contains(t, metrics, "rtedge_frames_processed_total 1")

	var s stats.Snapshot
	require.NoError(t, json.Unmarshal([]byte(get(t, base+"/stats")), &s))
	assert.Equal(t, "s1", s.Session)
	assert.Equal(t, 640, s.Width)

	assert.True(t, strings.Contains(get(t, base+"/debug/pprof/"), "goroutine"))
	assert.Contains(t, mon.String(), "monitoring::/rt:")
}

func TestStatsStream(t *testing.T) {
	mon := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://localhost:%d/rt/stats/ws", mon.Port()), nil)
	require.NoError(t, err)
	defer conn.Close()

	var a, b stats.Snapshot
	require.NoError(t, conn.ReadJSON(&a))
	require.NoError(t, conn.ReadJSON(&b))
	assert.Equal(t, "s1", a.Session)
	assert.Greater(t, b.Processed, a.Processed)

	require.NoError(t, mon.Shutdown(context.Background()))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)
}

func TestStreamAfterShutdown(t *testing.T) {
	mon := newTestServer(t)
	require.NoError(t, mon.Shutdown(context.Background()))

	w := httptest.NewRecorder()
	mon.handleStream(w, httptest.NewRequest(http.MethodGet, "/rt/stats/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	done := make(chan struct{})
	go func() { mon.streams.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a rejected stream is still counted")
	}
}
