package handler

import (
	"log/slog"
	"net/http"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/eraser"
)

// AccountHandler deletes user accounts.
type AccountHandler struct {
	eraser *eraser.Eraser
	logger *slog.Logger
}

func NewAccountHandler(e *eraser.Eraser, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		eraser: e,
		logger: logger.With("component", "account"),
	}
}

type deleteAccountRequest struct {
	UserID int64 `json:"user_id"`
}

// Delete handles POST /api/account/delete. Users can only erase their own
// account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req deleteAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID == 0 {
		writeError(w, apperr.New(apperr.InvalidArgument, "user_idが指定されていません"))
		return
	}
	if req.UserID != caller {
		writeError(w, apperr.New(apperr.PermissionDenied, "自分のアカウントのみ削除できます"))
		return
	}

	result := h.eraser.Erase(r.Context(), req.UserID)
	writeJSON(w, http.StatusOK, result)
}
