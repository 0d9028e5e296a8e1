package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/R3E-Network/crafting_registry/internal/app/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait     = 10 * time.Second
	pingPeriod    = 30 * time.Second
	clientBacklog = 64
	historyOnOpen = 32
)

// streamEvents upgrades the connection and streams registry events as JSON
// messages. An optional registry_id query parameter scopes the stream.
func (h *handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	registryID := r.URL.Query().Get("registry_id")

	deliver := make(chan events.Event, clientBacklog)
	unsubscribe := h.app.Events.Subscribe(func(e events.Event) {
		if registryID != "" && e.RegistryID != registryID {
			return
		}
		select {
		case deliver <- e:
		default:
			// Slow client: drop rather than block publishers.
		}
	})
	defer unsubscribe()

	// Replay recent history so a new subscriber has context.
	var history []events.Event
	if registryID != "" {
		history = h.app.Events.RecentByRegistry(registryID, historyOnOpen)
	} else {
		history = h.app.Events.Recent(historyOnOpen)
	}
	for i := len(history) - 1; i >= 0; i-- {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(history[i]); err != nil {
			return
		}
	}

	// Drain client frames to notice closure.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e := <-deliver:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
