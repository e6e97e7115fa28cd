package notify

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/duetapp/duet/internal/database"
	"github.com/duetapp/duet/internal/store"
)

type sweepEnv struct {
	db      *sql.DB
	sweeper *Sweeper
	sender  *fakeSender
	users   *store.UserStore
	tokens  *store.DeviceTokenStore
}

func newSweepEnv(t *testing.T) *sweepEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	ts := store.NewDeviceTokenStore(db)
	sender := &fakeSender{expired: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sw := NewSweeper(us, ts, store.NewNotificationLogStore(db), sender, time.UTC, 9, logger)

	return &sweepEnv{db: db, sweeper: sw, sender: sender, users: us, tokens: ts}
}

// seedUser creates a user whose last activity is `inactiveFor` in the past.
func (e *sweepEnv) seedUser(t *testing.T, email string, inactiveFor time.Duration) int64 {
	t.Helper()
	u, err := e.users.Create(email, "user")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := e.users.TouchActivity(u.ID, time.Now().UTC().Add(-inactiveFor)); err != nil {
		t.Fatalf("touch activity: %v", err)
	}
	if _, err := e.tokens.Register(u.ID, "https://push.example.com/"+email, "k", "a", "D"); err != nil {
		t.Fatalf("register token: %v", err)
	}
	return u.ID
}

func TestSweepNotifiesInactiveUsers(t *testing.T) {
	env := newSweepEnv(t)
	staleUID := env.seedUser(t, "stale@example.com", 4*24*time.Hour)
	env.seedUser(t, "fresh@example.com", time.Hour)

	if err := env.sweeper.Sweep(time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(env.sender.batches) != 1 {
		t.Fatalf("batches = %d, want only the stale user notified", len(env.sender.batches))
	}
	if env.sender.batches[0].tokens[0].UserID != staleUID {
		t.Errorf("notified user %d, want %d", env.sender.batches[0].tokens[0].UserID, staleUID)
	}
	if env.sender.batches[0].payload.Title != inactivityTitle {
		t.Errorf("title = %q", env.sender.batches[0].payload.Title)
	}

	user, _ := env.users.GetByID(staleUID)
	if user.LastInactivityNotify == nil {
		t.Error("expected reminder timestamp after successful send")
	}
}

func TestSweepHonorsReminderCooldown(t *testing.T) {
	env := newSweepEnv(t)
	uid := env.seedUser(t, "stale@example.com", 10*24*time.Hour)
	if err := env.users.TouchInactivityNotified(uid, time.Now().UTC().Add(-24*time.Hour)); err != nil {
		t.Fatalf("touch reminder: %v", err)
	}

	if err := env.sweeper.Sweep(time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if env.sender.sendCount() != 0 {
		t.Errorf("sends = %d, want 0 within reminder cooldown", env.sender.sendCount())
	}
}

func TestSweepSkipsUsersWithoutTokens(t *testing.T) {
	env := newSweepEnv(t)
	u, err := env.users.Create("noclient@example.com", "user")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := env.users.TouchActivity(u.ID, time.Now().UTC().Add(-5*24*time.Hour)); err != nil {
		t.Fatalf("touch activity: %v", err)
	}

	if err := env.sweeper.Sweep(time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if env.sender.sendCount() != 0 {
		t.Errorf("sends = %d, want 0 for tokenless user", env.sender.sendCount())
	}
	user, _ := env.users.GetByID(u.ID)
	if user.LastInactivityNotify != nil {
		t.Error("reminder timestamp should stay unset when nothing was delivered")
	}
}

func TestSweepOptOutExcluded(t *testing.T) {
	env := newSweepEnv(t)
	uid := env.seedUser(t, "optout@example.com", 5*24*time.Hour)
	if err := env.users.SetPreferences(uid, true, true, false); err != nil {
		t.Fatalf("set preferences: %v", err)
	}

	if err := env.sweeper.Sweep(time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if env.sender.sendCount() != 0 {
		t.Errorf("sends = %d, want 0 for opted-out user", env.sender.sendCount())
	}
}

func TestTickRunsOncePerDay(t *testing.T) {
	env := newSweepEnv(t)
	env.seedUser(t, "stale@example.com", 4*24*time.Hour)

	at := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	env.sweeper.tick(at)
	first := env.sender.sendCount()
	if first == 0 {
		t.Fatal("expected sweep to run at the configured hour")
	}

	env.sweeper.tick(at.Add(time.Minute))
	if env.sender.sendCount() != first {
		t.Error("second tick in the same hour should be deduped by the date marker")
	}

	ls := store.NewNotificationLogStore(env.db)
	exists, _ := ls.Exists(store.GlobalHousehold, "inactivity_2026-08-28")
	if !exists {
		t.Error("expected date-keyed sweep marker")
	}
}

func TestTickOutsideHourDoesNothing(t *testing.T) {
	env := newSweepEnv(t)
	env.seedUser(t, "stale@example.com", 4*24*time.Hour)

	env.sweeper.tick(time.Date(2026, 8, 28, 8, 59, 0, 0, time.UTC))
	if env.sender.sendCount() != 0 {
		t.Errorf("sends = %d, want 0 outside the configured hour", env.sender.sendCount())
	}
}
