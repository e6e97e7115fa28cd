package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/push"
	"github.com/duetapp/duet/internal/store"
)

// PushHandler manages device-token registrations and notification
// preferences.
type PushHandler struct {
	users   *store.UserStore
	tokens  *store.DeviceTokenStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(users *store.UserStore, tokens *store.DeviceTokenStore, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		users:   users,
		tokens:  tokens,
		service: service,
		logger:  logger.With("component", "push"),
	}
}

type registerTokenRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dhKey  string `json:"p256dh_key"`
	AuthKey    string `json:"auth_key"`
	DeviceName string `json:"device_name"`
}

// RegisterToken handles POST /api/push/tokens.
func (h *PushHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req registerTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Endpoint == "" || req.P256dhKey == "" || req.AuthKey == "" {
		writeError(w, apperr.New(apperr.InvalidArgument, "endpoint、p256dh_key、auth_keyが必要です"))
		return
	}

	tok, err := h.tokens.Register(caller, req.Endpoint, req.P256dhKey, req.AuthKey, req.DeviceName)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("device token registered", "user_id", caller, "token_id", tok.ID)
	writeJSON(w, http.StatusCreated, tok)
}

// ListTokens handles GET /api/push/tokens.
func (h *PushHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.tokens.ListByUser(caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if tokens == nil {
		tokens = []model.DeviceToken{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

// DeleteToken handles DELETE /api/push/tokens/{id}.
func (h *PushHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, apperr.New(apperr.InvalidArgument, "トークンIDが不正です"))
		return
	}

	if err := h.tokens.Delete(id, caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// VAPIDKey handles GET /api/push/vapid-key.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type preferencesRequest struct {
	NotificationsEnabled bool `json:"notifications_enabled"`
	NotifyPartnerActions bool `json:"notify_partner_actions"`
	NotifyInactivity     bool `json:"notify_inactivity"`
}

// UpdatePreferences handles PUT /api/push/preferences.
func (h *PushHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.SetPreferences(caller, req.NotificationsEnabled, req.NotifyPartnerActions, req.NotifyInactivity); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetByID(caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
