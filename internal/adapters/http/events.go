package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/randomtoy/horobingo-go/internal/domain"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Events upgrades to a websocket that receives the current state followed
// by every domain event the session publishes.
func (h *Handler) Events(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return nil
	}

	events, unsubscribe := h.events.Subscribe()
	state := toStateResponse(h.game.State(), h.names)
	feed := &feedClient{
		conn:        conn,
		events:      events,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
		logger:      h.logger,
	}
	h.logger.Debug("event feed connected", "remote", c.RealIP())
	feed.run(FeedMessage{Kind: "state", State: &state})
	return nil
}

// feedClient is one websocket subscriber. The read pump only services
// pongs and notices the peer going away.
type feedClient struct {
	conn        *websocket.Conn
	events      <-chan domain.Event
	unsubscribe func()
	done        chan struct{}
	once        sync.Once
	logger      *slog.Logger
}

func (f *feedClient) run(first FeedMessage) {
	go f.writePump(first)
	f.readPump()
}

func (f *feedClient) close() {
	f.once.Do(func() {
		f.unsubscribe()
		close(f.done)
		f.conn.Close()
	})
}

func (f *feedClient) readPump() {
	defer f.close()

	f.conn.SetReadLimit(maxMessageSize)
	f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		f.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := f.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				f.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (f *feedClient) writePump(first FeedMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		f.close()
	}()

	if err := f.write(first); err != nil {
		return
	}

	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.events:
			if !ok {
				f.conn.SetWriteDeadline(time.Now().Add(writeWait))
				f.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := f.write(FeedMessage{Kind: "event", Event: &ev}); err != nil {
				return
			}
		case <-ticker.C:
			f.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *feedClient) write(msg FeedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		f.logger.Error("encode feed message", "error", err)
		return err
	}
	f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return f.conn.WriteMessage(websocket.TextMessage, data)
}
