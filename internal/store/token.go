package store

import (
	"database/sql"
	"fmt"

	"github.com/duetapp/duet/internal/model"
)

type DeviceTokenStore struct {
	db *sql.DB
}

func NewDeviceTokenStore(db *sql.DB) *DeviceTokenStore {
	return &DeviceTokenStore{db: db}
}

const tokenCols = `id, user_id, endpoint, p256dh_key, auth_key, device_name, enabled, created_at`

func scanToken(scanner interface{ Scan(...any) error }) (*model.DeviceToken, error) {
	var t model.DeviceToken
	var enabled int
	err := scanner.Scan(&t.ID, &t.UserID, &t.Endpoint, &t.P256dhKey, &t.AuthKey,
		&t.DeviceName, &enabled, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Enabled = enabled != 0
	return &t, nil
}

// Register upserts a device token keyed by endpoint. Re-registering an
// existing endpoint refreshes its keys and re-enables it.
func (s *DeviceTokenStore) Register(userID int64, endpoint, p256dh, auth, deviceName string) (*model.DeviceToken, error) {
	_, err := s.db.Exec(
		`INSERT INTO device_tokens (user_id, endpoint, p256dh_key, auth_key, device_name, enabled)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key, device_name = excluded.device_name, enabled = 1`,
		userID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("register device token: %w", err)
	}
	return s.GetByEndpoint(endpoint)
}

func (s *DeviceTokenStore) GetByEndpoint(endpoint string) (*model.DeviceToken, error) {
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM device_tokens WHERE endpoint = ?`, endpoint)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device token: %w", err)
	}
	return t, nil
}

func (s *DeviceTokenStore) ListByUser(userID int64) ([]model.DeviceToken, error) {
	rows, err := s.db.Query(
		`SELECT `+tokenCols+` FROM device_tokens WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	defer rows.Close()
	return scanTokens(rows)
}

// ListEnabledByUser returns only the tokens the fanout may send to.
func (s *DeviceTokenStore) ListEnabledByUser(userID int64) ([]model.DeviceToken, error) {
	rows, err := s.db.Query(
		`SELECT `+tokenCols+` FROM device_tokens WHERE user_id = ? AND enabled = 1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enabled device tokens: %w", err)
	}
	defer rows.Close()
	return scanTokens(rows)
}

func (s *DeviceTokenStore) SetEnabled(id, userID int64, enabled bool) error {
	_, err := s.db.Exec(
		`UPDATE device_tokens SET enabled = ? WHERE id = ? AND user_id = ?`,
		boolToInt(enabled), id, userID,
	)
	if err != nil {
		return fmt.Errorf("set device token enabled: %w", err)
	}
	return nil
}

func (s *DeviceTokenStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM device_tokens WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete device token: %w", err)
	}
	return nil
}

// DeleteByUser removes every registration for a user (account erasure).
func (s *DeviceTokenStore) DeleteByUser(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM device_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete device tokens by user: %w", err)
	}
	return nil
}

// DeleteByEndpoint prunes a token the push service reported as gone.
func (s *DeviceTokenStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM device_tokens WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete device token by endpoint: %w", err)
	}
	return nil
}

func scanTokens(rows *sql.Rows) ([]model.DeviceToken, error) {
	var tokens []model.DeviceToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}
