package ws

import (
	"net/http"

	"github.com/parleychat/parley/internal/domain"
	"github.com/parleychat/parley/internal/service"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to a realtime connection.
// Auth runs via ?token=xxx query param (the browser WebSocket API can't send
// headers) and is a one-time gate: the token is resolved to a live user
// before the upgrade, and events on an established connection are not
// re-checked.
func ServeWS(hub *Hub, auth *service.AuthService, services Services, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.ResolveToken(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			// Reject before any event is processed.
			http.Error(w, domain.MessageOf(err), http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			logger.Warn("ws: accept error", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, Identity{UserID: user.ID, Username: user.Username}, services, logger)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
