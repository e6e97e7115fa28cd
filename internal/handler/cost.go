package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/notify"
	"github.com/duetapp/duet/internal/store"
	"github.com/duetapp/duet/internal/websocket"
)

// CostHandler creates and lists household expenses.
type CostHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	costs      *store.CostStore
	fanout     *notify.Fanout
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewCostHandler(users *store.UserStore, households *store.HouseholdStore, costs *store.CostStore, fanout *notify.Fanout, hub *websocket.Hub, logger *slog.Logger) *CostHandler {
	return &CostHandler{
		users:      users,
		households: households,
		costs:      costs,
		fanout:     fanout,
		hub:        hub,
		logger:     logger.With("component", "costs"),
	}
}

type createCostRequest struct {
	HouseholdID int64 `json:"household_id"`
	Amount      int64 `json:"amount"`
}

// Create handles POST /api/costs.
func (h *CostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createCostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, apperr.New(apperr.InvalidArgument, "amountは1円以上で指定してください"))
		return
	}

	member, err := requireMember(h.households, req.HouseholdID, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	cost, err := h.costs.Create(req.HouseholdID, caller, member.Nickname, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.TouchActivity(caller, time.Now().UTC()); err != nil {
		h.logger.Error("touch activity", "user_id", caller, "error", err)
	}

	go h.fanout.CostCreated(cost)
	h.hub.Broadcast(websocket.NewMessage("cost", "created", cost.HouseholdID, cost.ID, nil))

	writeJSON(w, http.StatusCreated, cost)
}

// List handles GET /api/costs.
func (h *CostHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	householdID, limit, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := requireMember(h.households, householdID, caller); err != nil {
		writeError(w, err)
		return
	}

	costs, err := h.costs.ListRecent(householdID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if costs == nil {
		costs = []model.CostRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"costs": costs})
}
