package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSubscriber adapts a WebSocket connection to broadcast.Subscriber. Writes are serialized
// because gorilla connections allow one concurrent writer.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(ctx context.Context, payload []byte) error {
	return s.write(ctx, websocket.TextMessage, payload)
}

func (s *wsSubscriber) write(ctx context.Context, messageType int, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, payload)
}

// ServeWS upgrades the connection and registers it with the broadcaster. The latest
// snapshot, if any, is sent straight away.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sub := &wsSubscriber{id: "ws:" + uuid.NewString(), conn: conn}
	if latest := h.broadcaster.Latest(); latest != nil {
		if err := sub.Send(r.Context(), latest); err != nil {
			conn.Close()
			return
		}
	}
	h.broadcaster.Subscribe(sub)
	h.logger.Debug().Str("subscriber", sub.id).Str("remote", r.RemoteAddr).Msg("WebSocket client connected")

	done := make(chan struct{})
	go h.pingLoop(sub, done)
	h.readLoop(sub)
	close(done)
}

// readLoop discards client messages and returns when the connection closes.
func (h *Handler) readLoop(sub *wsSubscriber) {
	defer func() {
		h.broadcaster.Unsubscribe(sub.id)
		sub.conn.Close()
		h.logger.Debug().Str("subscriber", sub.id).Msg("WebSocket client disconnected")
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) pingLoop(sub *wsSubscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := sub.write(context.Background(), websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
