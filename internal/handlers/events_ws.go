package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/barangaylink/barangaylink-backend/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// EventsHandler exposes the staff live feed: every request creation, status
// change, and payment completion lands on connected admin dashboards.
type EventsHandler struct {
	db       *sql.DB
	sessions *services.SessionService
	hub      *services.EventHub
	upgrader websocket.Upgrader
}

func NewEventsHandler(db *sql.DB, sessions *services.SessionService, hub *services.EventHub, allowedOrigins []string) *EventsHandler {
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[origin] = true
	}

	return &EventsHandler{
		db:       db,
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originSet[origin]
			},
		},
	}
}

// Serve upgrades the connection and streams request events. Browsers cannot
// set an Authorization header on a WebSocket, so the session token may also
// arrive as ?token=.
func (h *EventsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	auth, ok := authenticate(r, h.sessions, h.db)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !auth.IsStaff() {
		writeError(w, http.StatusForbidden, "Staff access required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Events] upgrade failed: %v", err)
		return
	}

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})

	// Reader only services control frames; clients never send data.
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
