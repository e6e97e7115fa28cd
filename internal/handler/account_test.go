package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/duetapp/duet/internal/eraser"
	"github.com/duetapp/duet/internal/store"
)

func newAccountHandler(env *handlerEnv) *AccountHandler {
	e := eraser.New(
		store.NewUserStore(env.db),
		store.NewHouseholdStore(env.db),
		store.NewRecordStore(env.db),
		store.NewCostStore(env.db),
		store.NewInsightStore(env.db),
		store.NewGratitudeStore(env.db),
		store.NewNotificationLogStore(env.db),
		store.NewSessionStore(env.db),
		store.NewDeviceTokenStore(env.db),
		env.logger,
	)
	return NewAccountHandler(e, env.logger)
}

func TestDeleteOwnAccount(t *testing.T) {
	env := newHandlerEnv(t)
	h := newAccountHandler(env)

	body := fmt.Sprintf(`{"user_id": %d}`, env.uid1)
	rec := httptest.NewRecorder()
	h.Delete(rec, authedRequest(http.MethodPost, "/api/account/delete", body, env.uid1))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Success bool `json:"success"`
		Deleted bool `json:"deleted"`
	}
	decodeBody(t, rec, &got)
	if !got.Success || !got.Deleted {
		t.Errorf("result = %+v, want full erasure", got)
	}

	user, err := store.NewUserStore(env.db).GetByID(env.uid1)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user != nil {
		t.Error("user row should be gone")
	}
}

func TestDeleteOtherAccountForbidden(t *testing.T) {
	env := newHandlerEnv(t)
	h := newAccountHandler(env)

	body := fmt.Sprintf(`{"user_id": %d}`, env.uid2)
	rec := httptest.NewRecorder()
	h.Delete(rec, authedRequest(http.MethodPost, "/api/account/delete", body, env.uid1))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != "permission-denied" {
		t.Errorf("code = %q, want permission-denied", code)
	}

	user, err := store.NewUserStore(env.db).GetByID(env.uid2)
	if err != nil || user == nil {
		t.Errorf("target user should be untouched: %+v, %v", user, err)
	}
}

func TestDeleteAccountMissingUserID(t *testing.T) {
	env := newHandlerEnv(t)
	h := newAccountHandler(env)

	rec := httptest.NewRecorder()
	h.Delete(rec, authedRequest(http.MethodPost, "/api/account/delete", `{}`, env.uid1))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
