package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 30 * 24 * time.Hour

// AuthHandler exchanges a user's client secret for a session token.
type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(users *store.UserStore, sessions *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   logger.With("component", "auth"),
	}
}

type tokenRequest struct {
	UserID int64  `json:"user_id"`
	Secret string `json:"secret"`
}

// Token handles POST /api/auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID == 0 || req.Secret == "" {
		writeError(w, apperr.New(apperr.InvalidArgument, "user_idとsecretが必要です"))
		return
	}

	hash, err := h.users.GetSecretHash(req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Secret)) != nil {
		h.logger.Warn("login rejected", "user_id", req.UserID)
		writeError(w, apperr.New(apperr.Unauthenticated, "認証情報が正しくありません"))
		return
	}

	sess, err := h.sessions.Create(req.UserID, sessionTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("session issued", "user_id", req.UserID)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
	})
}
