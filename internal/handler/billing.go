package handler

import (
	"log/slog"
	"net/http"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/billing"
	"github.com/duetapp/duet/internal/store"
)

// BillingHandler starts plus-subscription checkouts.
type BillingHandler struct {
	users  *store.UserStore
	client *billing.Client
	logger *slog.Logger
}

func NewBillingHandler(users *store.UserStore, client *billing.Client, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		users:  users,
		client: client,
		logger: logger.With("component", "billing"),
	}
}

// Checkout handles POST /api/billing/checkout.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetByID(caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.New(apperr.NotFound, "ユーザー情報が見つかりません"))
		return
	}

	url, err := h.client.CreateCheckoutSession(user.ID, user.Email)
	if err != nil {
		h.logger.Error("create checkout session", "user_id", user.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
