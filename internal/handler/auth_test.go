package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duetapp/duet/internal/store"

	"golang.org/x/crypto/bcrypt"
)

func seedSecret(t *testing.T, us *store.UserStore, userID int64, secret string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	if err := us.SetSecret(userID, string(hash)); err != nil {
		t.Fatalf("set secret: %v", err)
	}
}

func TestTokenIssue(t *testing.T) {
	env := newHandlerEnv(t)
	us := store.NewUserStore(env.db)
	ss := store.NewSessionStore(env.db)
	seedSecret(t, us, env.uid1, "correct-horse")

	h := NewAuthHandler(us, ss, env.logger)

	body := fmt.Sprintf(`{"user_id": %d, "secret": "correct-horse"}`, env.uid1)
	rec := httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &got)
	if len(got.Token) != 64 {
		t.Errorf("token = %q, want 64 hex chars", got.Token)
	}

	sess, err := ss.GetByToken(got.Token)
	if err != nil || sess == nil || sess.UserID != env.uid1 {
		t.Errorf("session = %+v, %v", sess, err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	env := newHandlerEnv(t)
	us := store.NewUserStore(env.db)
	seedSecret(t, us, env.uid1, "correct-horse")

	h := NewAuthHandler(us, store.NewSessionStore(env.db), env.logger)

	body := fmt.Sprintf(`{"user_id": %d, "secret": "battery-staple"}`, env.uid1)
	rec := httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestTokenUnknownUser(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewAuthHandler(store.NewUserStore(env.db), store.NewSessionStore(env.db), env.logger)

	rec := httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{"user_id": 99999, "secret": "x"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestTokenMissingFields(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewAuthHandler(store.NewUserStore(env.db), store.NewSessionStore(env.db), env.logger)

	rec := httptest.NewRecorder()
	h.Token(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
