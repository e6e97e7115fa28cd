package billing

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/store"

	stripe "github.com/stripe/stripe-go/v82"
)

type WebhookHandler struct {
	client *Client
	users  *store.UserStore
	logger *slog.Logger
}

func NewWebhookHandler(client *Client, users *store.UserStore, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		client: client,
		users:  users,
		logger: logger.With("component", "billing"),
	}
}

func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.client.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("unmarshal checkout session", "error", err)
		return
	}

	user := h.resolveUser(&sess)
	if user == nil {
		h.logger.Warn("checkout session matches no user", "client_reference_id", sess.ClientReferenceID)
		return
	}

	if sess.Customer != nil {
		if err := h.users.SetStripeCustomerID(user.ID, sess.Customer.ID); err != nil {
			h.logger.Error("set stripe customer id", "user_id", user.ID, "error", err)
		}
	}
	if err := h.users.SetPlan(user.ID, model.PlanPlus); err != nil {
		h.logger.Error("upgrade plan", "user_id", user.ID, "error", err)
		return
	}
	h.logger.Info("user upgraded to plus", "user_id", user.ID)
}

func (h *WebhookHandler) handleSubscriptionDeleted(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("unmarshal subscription", "error", err)
		return
	}
	if sub.Customer == nil {
		return
	}

	user, err := h.users.GetByStripeCustomerID(sub.Customer.ID)
	if err != nil {
		h.logger.Error("get user by customer id", "error", err)
		return
	}
	if user == nil {
		return
	}

	if err := h.users.SetPlan(user.ID, model.PlanFree); err != nil {
		h.logger.Error("downgrade plan", "user_id", user.ID, "error", err)
		return
	}
	h.logger.Info("user downgraded to free", "user_id", user.ID)
}

// resolveUser finds the purchasing user by the client reference id set at
// checkout, falling back to the checkout email.
func (h *WebhookHandler) resolveUser(sess *stripe.CheckoutSession) *model.User {
	if sess.ClientReferenceID != "" {
		if id, err := strconv.ParseInt(sess.ClientReferenceID, 10, 64); err == nil {
			user, err := h.users.GetByID(id)
			if err != nil {
				h.logger.Error("get user by id", "error", err)
			} else if user != nil {
				return user
			}
		}
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		user, err := h.users.GetByEmail(sess.CustomerDetails.Email)
		if err != nil {
			h.logger.Error("get user by email", "error", err)
			return nil
		}
		return user
	}
	return nil
}
