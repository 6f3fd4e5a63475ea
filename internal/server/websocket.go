package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/logging"
	"github.com/muurk/integra-bridge/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// ZoneEvent is pushed to WebSocket clients on every zone snapshot
type ZoneEvent struct {
	Violated protocol.ZoneStates     `json:"violated"`
	Sensors  []accessory.SensorState `json:"sensors"`
	Time     time.Time               `json:"time"`
}

func (s *Server) event(violated protocol.ZoneStates) ZoneEvent {
	return ZoneEvent{
		Violated: violated,
		Sensors:  s.zones.States(violated),
		Time:     time.Now().UTC(),
	}
}

// handleWebSocket streams zone snapshots. The current snapshot, if any, is
// sent first, then every new one as the poller publishes it.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", c.ClientIP()),
			zap.Error(err),
		)
		return
	}

	id := uuid.NewString()
	s.track(id, conn)
	s.wg.Add(1)

	logging.Info("WebSocket client connected",
		zap.String("client_id", id),
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)

	go s.serveClient(id, conn)
}

func (s *Server) serveClient(id string, conn *websocket.Conn) {
	updates, cancel := s.source.Subscribe()

	defer func() {
		cancel()
		_ = conn.Close()
		s.untrack(id)
		s.wg.Done()
		logging.Info("WebSocket client disconnected", zap.String("client_id", id))
	}()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if violated, ok := s.source.Latest(); ok {
		if err := s.send(conn, violated); err != nil {
			return
		}
	}

	for {
		select {
		case violated, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge stopping"),
					time.Now().Add(writeWait))
				return
			}
			if err := s.send(conn, violated); err != nil {
				logging.Debug("WebSocket write failed", zap.String("client_id", id), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, violated protocol.ZoneStates) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(s.event(violated))
}

// readPump discards client messages and handles pongs. It closes done when
// the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
