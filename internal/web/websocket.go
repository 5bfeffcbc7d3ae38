package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"ledgerdash.mini/ldm/internal/logger"
	"ledgerdash.mini/ldm/internal/views"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// readLoop drains client frames so control messages are processed, and
// reports when the peer goes away.
func readLoop(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return gone
}

// @Title: Pool Stream
// @Route: GET /ws/pool
// @Description: Streams pool snapshots while the pool view is mounted, then closes normally
// @Response: WebSocket of pool JSON messages
func (s *Server) handlePoolWS(w http.ResponseWriter, r *http.Request) {
	_, view := s.nav.Active()
	pool, ok := view.(*views.PoolView)
	if !ok {
		http.Error(w, "Pool view is not active", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	gone := readLoop(conn)

	var last views.PoolState
	send := func(force bool) bool {
		snap := pool.Snapshot()
		if !force && snap.Applied == last.Applied && snap.Mining == last.Mining && errText(snap.MineErr) == errText(last.MineErr) {
			return true
		}
		last = snap
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(newPoolMessage(snap)) == nil
	}
	if !send(true) {
		return
	}

	// Updates wakes one listener per change; the ticker covers extra tabs.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-pool.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view unmounted"),
				time.Now().Add(writeWait))
			return
		case <-pool.Updates():
			if !send(false) {
				return
			}
		case <-ticker.C:
			if !send(false) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// @Title: Status Stream
// @Route: GET /ws/status
// @Description: Replays recent notifications, then streams new ones
// @Response: WebSocket of notification JSON messages
func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	gone := readLoop(conn)

	// GetRecent returns newest first; send oldest first.
	initial := s.notes.GetRecent(50)
	for i := len(initial) - 1; i >= 0; i-- {
		if err := conn.WriteJSON(initial[i]); err != nil {
			return
		}
	}

	var lastTime time.Time
	if len(initial) > 0 {
		lastTime = initial[0].Timestamp
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ticker.C:
			var fresh []logger.Message
			for _, msg := range s.notes.GetRecent(20) {
				if msg.Timestamp.After(lastTime) {
					fresh = append(fresh, msg)
				}
			}
			for i := len(fresh) - 1; i >= 0; i-- {
				if err := conn.WriteJSON(fresh[i]); err != nil {
					return
				}
				lastTime = fresh[i].Timestamp
			}
		}
	}
}
