package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/duetapp/duet/internal/billing"
	"github.com/duetapp/duet/internal/database"
	"github.com/duetapp/duet/internal/logging"
	"github.com/duetapp/duet/internal/push"
	"github.com/duetapp/duet/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("DUET_LOG_LEVEL"))

	port := os.Getenv("DUET_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DUET_DB_PATH")
	if dbPath == "" {
		dbPath = "duet.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sweepTZ, err := time.LoadLocation(envDefault("DUET_SWEEP_TZ", "Asia/Tokyo"))
	if err != nil {
		logger.Error("invalid sweep timezone", "error", err)
		os.Exit(1)
	}
	sweepHour, err := strconv.Atoi(envDefault("DUET_SWEEP_HOUR", "9"))
	if err != nil || sweepHour < 0 || sweepHour > 23 {
		logger.Error("invalid sweep hour", "value", os.Getenv("DUET_SWEEP_HOUR"))
		os.Exit(1)
	}

	cfg := server.Config{
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("DUET_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("DUET_VAPID_PRIVATE_KEY"),
			Subscriber:      envDefault("DUET_VAPID_SUBSCRIBER", "mailto:support@duetapp.example"),
		},
		Billing: billing.Config{
			SecretKey:     os.Getenv("DUET_STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("DUET_STRIPE_WEBHOOK_SECRET"),
			PlusPriceID:   os.Getenv("DUET_STRIPE_PLUS_PRICE_ID"),
			SuccessURL:    envDefault("DUET_STRIPE_SUCCESS_URL", "https://duetapp.example/plus/welcome"),
			CancelURL:     envDefault("DUET_STRIPE_CANCEL_URL", "https://duetapp.example/plus"),
		},
		OpenAIKey: os.Getenv("DUET_OPENAI_API_KEY"),
		SweepTZ:   sweepTZ,
		SweepHour: sweepHour,
	}

	srv := server.New(db, cfg, logger)

	srv.Sweeper().Start()
	defer srv.Sweeper().Stop()

	// Hourly housekeeping: expired sessions, old idempotency markers and
	// stale rate-limit buckets. Markers are only consulted at creation time
	// (fanout) or for the current date (sweep), so a 30-day retention is
	// safe.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup failed", "error", err)
				}
				if err := srv.NotificationLogStore().Cleanup(time.Now().AddDate(0, 0, -30)); err != nil {
					logger.Error("notification log cleanup failed", "error", err)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()
	defer close(cleanupDone)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("duet api listening", "addr", fmt.Sprintf("http://localhost:%s", port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
