package monitoring

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 1024,
	// the stats are public and read-only
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream pushes a stats snapshot to the websocket client
// every stats interval.
func (m *Monitoring) handleStream(w http.ResponseWriter, r *http.Request) {
	if !m.addStream() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer m.streams.Done()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	defer func() { _ = conn.Close() }()

	m.log.Debug().Str("remote", r.RemoteAddr).Msg("Stats client connected")

	// reads only to notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(m.conf.StatsInterval)
	defer t.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m.stats()); err != nil {
			m.log.Debug().Err(err).Msg("Stats client write")
			return
		}
		select {
		case <-gone:
			m.log.Debug().Str("remote", r.RemoteAddr).Msg("Stats client disconnected")
			return
		case <-m.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
				time.Now().Add(writeWait))
			return
		case <-t.C:
		}
	}
}
