package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/g6audio/g6ctl/internal/device"
	"github.com/g6audio/g6ctl/internal/logging"
)

const (
	// Time allowed to write an event to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// handleEvents upgrades the request to a WebSocket and streams device events
// as JSON. The first message is always a snapshot of the current state, so a
// client that connects mid-session starts from a consistent picture.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	remoteAddr := r.RemoteAddr
	s.trackConn(remoteAddr, conn)
	logging.Info("Event stream client connected",
		zap.String("remote_addr", remoteAddr),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.streamEvents(conn, remoteAddr)
	}()
}

func (s *Server) streamEvents(conn *websocket.Conn, remoteAddr string) {
	events, cancel := s.source.Subscribe()
	defer cancel()

	defer func() {
		_ = conn.Close()
		s.untrackConn(remoteAddr)
		logging.Info("Event stream client disconnected",
			zap.String("remote_addr", remoteAddr),
		)
	}()

	// Read pump: the client sends nothing we act on, but reading is required
	// to process control frames and observe the close handshake.
	readDone := make(chan struct{})
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := device.Event{
		Type:  device.EventSnapshot,
		State: s.source.State(),
		Time:  time.Now(),
	}
	if err := s.writeEvent(conn, snapshot); err != nil {
		logging.Debug("Failed to send snapshot",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Subscription closed under us; end the stream cleanly.
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.writeEvent(conn, ev); err != nil {
				logging.Debug("Failed to write event",
					zap.String("remote_addr", remoteAddr),
					zap.String("event", string(ev.Type)),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, ev device.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}
