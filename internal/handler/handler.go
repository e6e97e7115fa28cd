// Package handler implements the JSON API surface.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders the error envelope, mapping the kind to a status code.
// Unrecognized errors become opaque internal errors.
func writeError(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	writeJSON(w, ae.HTTPStatus(), map[string]any{"error": ae})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.New(apperr.InvalidArgument, fmt.Sprintf("リクエストの形式が不正です: %v", err))
	}
	return nil
}

// callerID pulls the authenticated user from the context. The auth
// middleware guarantees it on protected routes.
func callerID(r *http.Request) (int64, error) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		return 0, apperr.New(apperr.Unauthenticated, "ユーザーが認証されていません")
	}
	return id, nil
}
