package relay

import (
	"time"

	"chat-relay/internal/models"
	"chat-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Session is one live duplex connection. The dispatcher is the only writer
// to send (and the only closer), so the pumps never race with it.
type Session struct {
	ID   string
	conn *websocket.Conn
	send chan models.Outbound

	// UID recovered from an optional token at upgrade time. The connection
	// still authenticates in-band; a set UID pins the sender identity so
	// delete rights survive reconnects and cannot be claimed by others.
	UID string
}

func NewSession(id string, conn *websocket.Conn) *Session {
	return &Session{
		ID:   id,
		conn: conn,
		send: make(chan models.Outbound, sendBuffer),
	}
}

// ReadPump parses frames and feeds them to the dispatcher in arrival order.
// Malformed frames are dropped here; they never reach shared state.
func (s *Session) ReadPump(d *Dispatcher) {
	defer func() {
		d.Detach(s)
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on %s: %v", s.ID, err)
			}
			break
		}

		ev, err := models.ParseInbound(data)
		if err != nil {
			logger.Debug("Dropping bad frame from %s: %v", s.ID, err)
			continue
		}

		if !d.Enqueue(s, ev) {
			return
		}
	}
}

// WritePump drains send and keeps the connection alive with pings. It exits
// when the dispatcher closes send or the peer stops answering.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case out, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteJSON(out); err != nil {
				logger.Error("Write error on %s: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
