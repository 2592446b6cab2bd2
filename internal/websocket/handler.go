package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/Kauanrodrigues01/academy/internal/auth"
)

// Handler upgrades authenticated requests and runs them as hub clients.
// Cross-origin upgrades are refused unless the origin matches one of
// originPatterns.
func Handler(hub *Hub, logger *slog.Logger, originPatterns []string) http.HandlerFunc {
	logger = logger.With("component", "websocket")
	return func(w http.ResponseWriter, r *http.Request) {
		staffID := auth.StaffID(r.Context())
		if staffID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("accept failed", "staff_id", staffID, "error", err)
			return
		}

		NewClient(hub, conn, staffID).Run(r.Context())
	}
}
