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

// GratitudeHandler creates and lists thank-you messages.
type GratitudeHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	gratitude  *store.GratitudeStore
	fanout     *notify.Fanout
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewGratitudeHandler(users *store.UserStore, households *store.HouseholdStore, gratitude *store.GratitudeStore, fanout *notify.Fanout, hub *websocket.Hub, logger *slog.Logger) *GratitudeHandler {
	return &GratitudeHandler{
		users:      users,
		households: households,
		gratitude:  gratitude,
		fanout:     fanout,
		hub:        hub,
		logger:     logger.With("component", "gratitude"),
	}
}

type createGratitudeRequest struct {
	HouseholdID int64  `json:"household_id"`
	ToUserID    *int64 `json:"to_user_id"`
	Message     string `json:"message"`
}

// Create handles POST /api/gratitude. An omitted to_user_id addresses the
// message to every other member.
func (h *GratitudeHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createGratitudeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Message == "" {
		writeError(w, apperr.New(apperr.InvalidArgument, "messageが必要です"))
		return
	}

	member, err := requireMember(h.households, req.HouseholdID, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.ToUserID != nil {
		recipient, err := h.households.GetMember(req.HouseholdID, *req.ToUserID)
		if err != nil {
			writeError(w, err)
			return
		}
		if recipient == nil {
			writeError(w, apperr.New(apperr.InvalidArgument, "宛先が世帯メンバーではありません"))
			return
		}
	}

	msg, err := h.gratitude.Create(req.HouseholdID, caller, member.Nickname, req.ToUserID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.TouchActivity(caller, time.Now().UTC()); err != nil {
		h.logger.Error("touch activity", "user_id", caller, "error", err)
	}

	go h.fanout.GratitudeCreated(msg)
	h.hub.Broadcast(websocket.NewMessage("gratitude", "created", msg.HouseholdID, msg.ID, nil))

	writeJSON(w, http.StatusCreated, msg)
}

// List handles GET /api/gratitude.
func (h *GratitudeHandler) List(w http.ResponseWriter, r *http.Request) {
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

	messages, err := h.gratitude.ListByHousehold(householdID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if messages == nil {
		messages = []model.GratitudeMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
