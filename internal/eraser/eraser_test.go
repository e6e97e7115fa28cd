package eraser

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/duetapp/duet/internal/database"
	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/store"
)

type eraseEnv struct {
	db     *sql.DB
	eraser *Eraser
}

func newEraseEnv(t *testing.T) *eraseEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(
		store.NewUserStore(db),
		store.NewHouseholdStore(db),
		store.NewRecordStore(db),
		store.NewCostStore(db),
		store.NewInsightStore(db),
		store.NewGratitudeStore(db),
		store.NewNotificationLogStore(db),
		store.NewSessionStore(db),
		store.NewDeviceTokenStore(db),
		logger,
	)
	return &eraseEnv{db: db, eraser: e}
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}

func TestEraseRemovesUserAndHouseholdData(t *testing.T) {
	env := newEraseEnv(t)
	us := store.NewUserStore(env.db)
	hs := store.NewHouseholdStore(env.db)

	target, _ := us.Create("aki@example.com", "Aki")
	partner, _ := us.Create("rin@example.com", "Rin")
	outsider, _ := us.Create("mio@example.com", "Mio")

	// Household the target belongs to.
	h1, _ := hs.Create("Shared House")
	hs.AddMember(h1.ID, target.ID, "あき", "admin")
	hs.AddMember(h1.ID, partner.ID, "りん", "member")

	// Unrelated household that must survive.
	h2, _ := hs.Create("Other House")
	hs.AddMember(h2.ID, outsider.ID, "みお", "admin")

	rs := store.NewRecordStore(env.db)
	rs.Create(h1.ID, target.ID, "あき", "料理", "夕食", 30)
	rs.Create(h2.ID, outsider.ID, "みお", "掃除", "玄関", 10)

	cs := store.NewCostStore(env.db)
	cs.Create(h1.ID, partner.ID, "りん", 980)
	cs.Create(h2.ID, outsider.ID, "みお", 500)

	is := store.NewInsightStore(env.db)
	is.Create(h1.ID, model.InsightSuggestion, "summary")

	gs := store.NewGratitudeStore(env.db)
	gs.Create(h1.ID, target.ID, "あき", &partner.ID, "sent by target")
	gs.Create(h1.ID, partner.ID, "りん", &target.ID, "received by target")

	ls := store.NewNotificationLogStore(env.db)
	ls.Record(h1.ID, "task_1", model.NotifTypeTask, 1, target.ID)

	ss := store.NewSessionStore(env.db)
	ss.Create(target.ID, time.Hour)

	ts := store.NewDeviceTokenStore(env.db)
	ts.Register(target.ID, "https://push.example.com/aki", "k", "a", "D")

	result := env.eraser.Erase(context.Background(), target.ID)

	if !result.Success || !result.Deleted {
		t.Fatalf("result = %+v, want success", result)
	}
	if len(result.Errors) != 0 || result.Note != "" {
		t.Errorf("result = %+v, want clean run", result)
	}

	if u, _ := us.GetByID(target.ID); u != nil {
		t.Error("user row should be gone")
	}
	if h, _ := hs.GetByID(h1.ID); h != nil {
		t.Error("member household should be deleted")
	}
	if h, _ := hs.GetByID(h2.ID); h == nil {
		t.Error("unrelated household should survive")
	}

	// No membership rows may survive the household deletion: neither the
	// erased user's nor the partner's orphan row.
	if n := count(t, env.db, `SELECT COUNT(*) FROM household_members WHERE household_id = ?`, h1.ID); n != 0 {
		t.Errorf("memberships in deleted household = %d, want 0", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM household_members WHERE user_id = ?`, target.ID); n != 0 {
		t.Errorf("memberships for erased user = %d, want 0", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM household_members WHERE household_id = ?`, h2.ID); n != 1 {
		t.Errorf("memberships in surviving household = %d, want 1", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM activity_records WHERE household_id = ?`, h1.ID); n != 0 {
		t.Errorf("records in deleted household = %d", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM activity_records WHERE household_id = ?`, h2.ID); n != 1 {
		t.Errorf("records in surviving household = %d, want 1", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM cost_records WHERE household_id = ?`, h1.ID); n != 0 {
		t.Errorf("costs in deleted household = %d", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM gratitude_messages`); n != 0 {
		t.Errorf("gratitude messages = %d, want both directions deleted", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM notification_logs WHERE household_id = ?`, h1.ID); n != 0 {
		t.Errorf("notification logs = %d", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM sessions WHERE user_id = ?`, target.ID); n != 0 {
		t.Errorf("sessions = %d", n)
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM device_tokens WHERE user_id = ?`, target.ID); n != 0 {
		t.Errorf("device tokens = %d", n)
	}
}

func TestEraseUnknownUserSucceeds(t *testing.T) {
	env := newEraseEnv(t)

	result := env.eraser.Erase(context.Background(), 99999)
	if !result.Success || !result.Deleted {
		t.Errorf("result = %+v, want success for unknown user", result)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v, want none", result.Errors)
	}
}

func TestErasePartialFailureStillSucceeds(t *testing.T) {
	env := newEraseEnv(t)
	us := store.NewUserStore(env.db)
	hs := store.NewHouseholdStore(env.db)

	target, _ := us.Create("aki@example.com", "Aki")
	h, _ := hs.Create("House")
	hs.AddMember(h.ID, target.ID, "あき", "admin")
	store.NewRecordStore(env.db).Create(h.ID, target.ID, "あき", "料理", "夕食", 30)

	// Break one sub-step: the insight deletion will fail, everything else
	// must still run.
	if _, err := env.db.Exec(`DROP TABLE insights`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	result := env.eraser.Erase(context.Background(), target.ID)

	if !result.Success || !result.Deleted {
		t.Fatalf("result = %+v, want success despite step failure", result)
	}
	if result.Note != "partial-success" {
		t.Errorf("note = %q, want partial-success", result.Note)
	}
	if len(result.Errors) == 0 {
		t.Error("expected collected step errors")
	}

	if u, _ := us.GetByID(target.ID); u != nil {
		t.Error("user row should be gone despite the failed step")
	}
	if n := count(t, env.db, `SELECT COUNT(*) FROM activity_records WHERE household_id = ?`, h.ID); n != 0 {
		t.Errorf("records = %d, want deleted despite the failed step", n)
	}
}
