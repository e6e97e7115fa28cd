package websocket

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/duetapp/duet/internal/auth"
	"github.com/duetapp/duet/internal/store"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the connection and runs it as a hub client.
// The caller picks the household with ?household_id= and must be a member.
func HandleWebSocket(hub *Hub, households *store.HouseholdStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		householdID, err := strconv.ParseInt(r.URL.Query().Get("household_id"), 10, 64)
		if err != nil || householdID == 0 {
			http.Error(w, "household_id required", http.StatusBadRequest)
			return
		}

		member, err := households.GetMember(householdID, userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if member == nil {
			http.Error(w, "not a household member", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Mobile clients connect from app webviews without a fixed origin
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, householdID)
		client.Run(r.Context())
	}
}
