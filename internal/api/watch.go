package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"menu-builder/internal/model"
)

const (
	// watchBuffer is how many changes a slow watcher may lag before changes are dropped for it.
	watchBuffer       = 16
	watchWriteTimeout = 10 * time.Second
	watchPongWait     = 60 * time.Second
	watchPingInterval = watchPongWait * 9 / 10
)

// hub fans menu changes out to websocket watchers, keyed by menu slug.
type hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan model.Event]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: map[string]map[chan model.Event]struct{}{}}
}

// subscribe returns a channel of changes to menu. The channel is closed by cancel or when the hub
// shuts down.
func (h *hub) subscribe(menu string) (<-chan model.Event, func()) {
	ch := make(chan model.Event, watchBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs[menu] == nil {
		h.subs[menu] = map[chan model.Event]struct{}{}
	}
	h.subs[menu][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[menu][ch]; ok {
				delete(h.subs[menu], ch)
				close(ch)
			}
		})
	}
}

// publish never blocks; a full watcher misses the change and reloads on the next one.
func (h *hub) publish(ev model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.Menu] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.subs {
		n += len(m)
	}
	return n
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for menu, m := range h.subs {
		for ch := range m {
			close(ch)
		}
		delete(h.subs, menu)
	}
}

func (s *Server) publish(menu, typ, entityID string) {
	s.hub.publish(model.Event{
		ID:       "ev-" + uuid.NewString(),
		TS:       time.Now().UTC(),
		Type:     typ,
		Menu:     menu,
		EntityID: entityID,
	})
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		return strings.Contains(origin, "://"+strings.TrimSpace(r.Host))
	},
}

// handleWatch streams a JSON model.Event per change to the menu until either side closes.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	menu := r.PathValue("menu")
	if _, err := s.backend.ListItems(r.Context(), menu, false); err != nil {
		s.writeError(w, err)
		return
	}

	// Subscribed before the handshake completes so no change made after it is missed.
	events, cancel := s.hub.subscribe(menu)
	defer cancel()

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.log.Debug("watch upgrade failed", "menu", menu, "error", err)
		return
	}
	defer conn.Close()
	s.metrics.watchers.Set(float64(s.hub.count()))
	defer func() { s.metrics.watchers.Set(float64(s.hub.count())) }()
	s.log.Info("watch started", "menu", menu, "remote", r.RemoteAddr)

	// The server's read deadline survives the hijack; pongs keep extending it.
	_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(watchPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			s.log.Info("watch ended", "menu", menu, "remote", r.RemoteAddr)
			return
		case ev, ok := <-events:
			deadline := time.Now().Add(watchWriteTimeout)
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
				return
			}
			_ = conn.SetWriteDeadline(deadline)
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(watchWriteTimeout)); err != nil {
				return
			}
		}
	}
}
