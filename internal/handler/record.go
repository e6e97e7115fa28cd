package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/notify"
	"github.com/duetapp/duet/internal/store"
	"github.com/duetapp/duet/internal/websocket"
)

const defaultListLimit = 50

// RecordHandler creates and lists activity records. A successful create
// bumps the actor's activity clock, fans out partner notifications in the
// background and broadcasts a sync message.
type RecordHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	records    *store.RecordStore
	fanout     *notify.Fanout
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewRecordHandler(users *store.UserStore, households *store.HouseholdStore, records *store.RecordStore, fanout *notify.Fanout, hub *websocket.Hub, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		users:      users,
		households: households,
		records:    records,
		fanout:     fanout,
		hub:        hub,
		logger:     logger.With("component", "records"),
	}
}

type createRecordRequest struct {
	HouseholdID int64  `json:"household_id"`
	Category    string `json:"category"`
	Task        string `json:"task"`
	TimeMinutes int    `json:"time_minutes"`
}

// Create handles POST /api/records.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Category == "" {
		writeError(w, apperr.New(apperr.InvalidArgument, "categoryが必要です"))
		return
	}
	if req.TimeMinutes < 0 {
		writeError(w, apperr.New(apperr.InvalidArgument, "time_minutesが不正です"))
		return
	}

	member, err := requireMember(h.households, req.HouseholdID, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.Create(req.HouseholdID, caller, member.Nickname, req.Category, req.Task, req.TimeMinutes)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.TouchActivity(caller, time.Now().UTC()); err != nil {
		h.logger.Error("touch activity", "user_id", caller, "error", err)
	}

	go h.fanout.RecordCreated(rec)
	h.hub.Broadcast(websocket.NewMessage("record", "created", rec.HouseholdID, rec.ID, nil))

	writeJSON(w, http.StatusCreated, rec)
}

// List handles GET /api/records.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
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

	records, err := h.records.ListRecent(householdID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []model.ActivityRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// requireMember verifies household membership and returns the member row.
func requireMember(households *store.HouseholdStore, householdID, userID int64) (*model.HouseholdMember, error) {
	if householdID == 0 {
		return nil, apperr.New(apperr.InvalidArgument, "household_idが必要です")
	}
	member, err := households.GetMember(householdID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperr.New(apperr.PermissionDenied, "この世帯のメンバーではありません")
	}
	return member, nil
}

func listParams(r *http.Request) (householdID int64, limit int, err error) {
	householdID, _ = strconv.ParseInt(r.URL.Query().Get("household_id"), 10, 64)
	if householdID == 0 {
		return 0, 0, apperr.New(apperr.InvalidArgument, "household_idが必要です")
	}
	limit = defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 || n > 200 {
			return 0, 0, apperr.New(apperr.InvalidArgument, "limitが不正です")
		}
		limit = n
	}
	return householdID, limit, nil
}
