package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duetapp/duet/internal/auth"
	"github.com/duetapp/duet/internal/database"
	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/notify"
	"github.com/duetapp/duet/internal/push"
	"github.com/duetapp/duet/internal/store"
	"github.com/duetapp/duet/internal/websocket"
)

// nullSender swallows pushes so handler tests never hit the network.
type nullSender struct{}

func (nullSender) SendAll(tokens []model.DeviceToken, payload push.Payload) []push.Result {
	results := make([]push.Result, 0, len(tokens))
	for _, tok := range tokens {
		results = append(results, push.Result{Token: tok})
	}
	return results
}

type handlerEnv struct {
	db     *sql.DB
	logger *slog.Logger
	fanout *notify.Fanout
	hub    *websocket.Hub
	hid    int64
	uid1   int64
	uid2   int64
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	hs := store.NewHouseholdStore(db)

	h, err := hs.Create("Test House")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	u1, err := us.Create("aki@example.com", "Aki")
	if err != nil {
		t.Fatalf("create user 1: %v", err)
	}
	u2, err := us.Create("rin@example.com", "Rin")
	if err != nil {
		t.Fatalf("create user 2: %v", err)
	}
	if _, err := hs.AddMember(h.ID, u1.ID, "あき", "admin"); err != nil {
		t.Fatalf("add member 1: %v", err)
	}
	if _, err := hs.AddMember(h.ID, u2.ID, "りん", "member"); err != nil {
		t.Fatalf("add member 2: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fanout := notify.NewFanout(us, hs, store.NewDeviceTokenStore(db), store.NewNotificationLogStore(db), nullSender{}, logger)

	return &handlerEnv{
		db:     db,
		logger: logger,
		fanout: fanout,
		hub:    websocket.NewHub(logger),
		hid:    h.ID,
		uid1:   u1.ID,
		uid2:   u2.ID,
	}
}

// authedRequest builds a request already carrying the caller's identity.
func authedRequest(method, target string, body string, userID int64) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(auth.WithUserID(context.Background(), userID))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rec, &envelope)
	return envelope.Error.Code
}
