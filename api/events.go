package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/twipi/tttbot/service"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// events streams service events as JSON text messages. The game query
// parameter restricts the stream to one session.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug(
			"failed to upgrade event stream",
			"err", err)
		return
	}
	defer conn.Close()

	gameID := r.URL.Query().Get("game")

	ch := make(chan service.Event, 16)
	h.svc.SubscribeEvents(ch, gameID)
	defer h.svc.UnsubscribeEvents(ch)

	h.logger.Debug(
		"event stream connected",
		"game_id", gameID,
		"remote_addr", r.RemoteAddr)

	// Clients never send anything; reading only notices disconnects.
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.closed:
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteTimeout))
			return

		case err := <-readErr:
			h.logger.Debug(
				"event stream disconnected",
				"game_id", gameID,
				"err", err)
			return

		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug(
					"failed to write event",
					"game_id", gameID,
					"err", err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
