// Package server wires the stores, services and handlers into one HTTP
// server.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/duetapp/duet/internal/billing"
	"github.com/duetapp/duet/internal/completion"
	"github.com/duetapp/duet/internal/eraser"
	"github.com/duetapp/duet/internal/handler"
	"github.com/duetapp/duet/internal/insight"
	"github.com/duetapp/duet/internal/middleware"
	"github.com/duetapp/duet/internal/notify"
	"github.com/duetapp/duet/internal/push"
	"github.com/duetapp/duet/internal/store"
	ws "github.com/duetapp/duet/internal/websocket"
)

// Config collects the external service settings the server needs.
type Config struct {
	Push      push.Config
	Billing   billing.Config
	OpenAIKey string
	SweepTZ   *time.Location
	SweepHour int
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	recordH        *handler.RecordHandler
	costH          *handler.CostHandler
	gratitudeH     *handler.GratitudeHandler
	insightH       *handler.InsightHandler
	accountH       *handler.AccountHandler
	pushH          *handler.PushHandler
	billingH       *handler.BillingHandler
	webhookH       *billing.WebhookHandler
	sessionStore   *store.SessionStore
	logStore       *store.NotificationLogStore
	householdStore *store.HouseholdStore
	sweeper        *notify.Sweeper
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	recordStore := store.NewRecordStore(db)
	costStore := store.NewCostStore(db)
	gratitudeStore := store.NewGratitudeStore(db)
	insightStore := store.NewInsightStore(db)
	logStore := store.NewNotificationLogStore(db)
	tokenStore := store.NewDeviceTokenStore(db)
	sessionStore := store.NewSessionStore(db)

	pushSvc := push.NewService(cfg.Push)
	fanout := notify.NewFanout(userStore, householdStore, tokenStore, logStore, pushSvc, logger)
	sweeper := notify.NewSweeper(userStore, tokenStore, logStore, pushSvc, cfg.SweepTZ, cfg.SweepHour, logger)

	completer := completion.NewClient(cfg.OpenAIKey)
	insightSvc := insight.NewService(userStore, householdStore, recordStore, insightStore, completer, logger)

	accountEraser := eraser.New(userStore, householdStore, recordStore, costStore, insightStore, gratitudeStore, logStore, sessionStore, tokenStore, logger)

	billingClient := billing.NewClient(cfg.Billing)

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, sessionStore, logger),
		recordH:        handler.NewRecordHandler(userStore, householdStore, recordStore, fanout, hub, logger),
		costH:          handler.NewCostHandler(userStore, householdStore, costStore, fanout, hub, logger),
		gratitudeH:     handler.NewGratitudeHandler(userStore, householdStore, gratitudeStore, fanout, hub, logger),
		insightH:       handler.NewInsightHandler(insightSvc, logger),
		accountH:       handler.NewAccountHandler(accountEraser, logger),
		pushH:          handler.NewPushHandler(userStore, tokenStore, pushSvc, logger),
		billingH:       handler.NewBillingHandler(userStore, billingClient, logger),
		webhookH:       billing.NewWebhookHandler(billingClient, userStore, logger),
		sessionStore:   sessionStore,
		logStore:       logStore,
		householdStore: householdStore,
		sweeper:        sweeper,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// Sweeper returns the inactivity sweeper so main can manage its lifecycle.
func (s *Server) Sweeper() *notify.Sweeper {
	return s.sweeper
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// NotificationLogStore returns the marker store for cleanup tasks.
func (s *Server) NotificationLogStore() *store.NotificationLogStore {
	return s.logStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/token", s.rateLimitedHandler(s.authH.Token))
	outerMux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("GET /ws", authMiddleware(ws.HandleWebSocket(s.hub, s.householdStore, s.logger)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Activity records
	mux.HandleFunc("POST /api/records", s.recordH.Create)
	mux.HandleFunc("GET /api/records", s.recordH.List)

	// Cost records
	mux.HandleFunc("POST /api/costs", s.costH.Create)
	mux.HandleFunc("GET /api/costs", s.costH.List)

	// Gratitude messages
	mux.HandleFunc("POST /api/gratitude", s.gratitudeH.Create)
	mux.HandleFunc("GET /api/gratitude", s.gratitudeH.List)

	// AI insights (plus only)
	mux.HandleFunc("POST /api/ai/suggestion", s.insightH.Suggestion)
	mux.HandleFunc("POST /api/ai/report", s.insightH.Report)

	// Account
	mux.HandleFunc("POST /api/account/delete", s.accountH.Delete)

	// Push registrations and preferences
	mux.HandleFunc("POST /api/push/tokens", s.pushH.RegisterToken)
	mux.HandleFunc("GET /api/push/tokens", s.pushH.ListTokens)
	mux.HandleFunc("DELETE /api/push/tokens/{id}", s.pushH.DeleteToken)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("PUT /api/push/preferences", s.pushH.UpdatePreferences)

	// Billing
	mux.HandleFunc("POST /api/billing/checkout", s.billingH.Checkout)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"message":   "Duet API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
