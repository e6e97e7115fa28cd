package store

import (
	"database/sql"
	"fmt"
	"time"
)

// NotificationLogStore persists fanout idempotency markers. The check-then-
// record pattern is racy under concurrent triggers for the same document;
// the UNIQUE key keeps the log itself single-entry and a duplicate push is
// an accepted cost.
type NotificationLogStore struct {
	db *sql.DB
}

func NewNotificationLogStore(db *sql.DB) *NotificationLogStore {
	return &NotificationLogStore{db: db}
}

// GlobalHousehold scopes markers that are not tied to any household, such
// as the daily inactivity sweep.
const GlobalHousehold int64 = 0

// Key builds the idempotency key for a source document.
func Key(notifType string, docID int64) string {
	return fmt.Sprintf("%s_%d", notifType, docID)
}

// Exists reports whether a fanout for this key already ran.
func (s *NotificationLogStore) Exists(householdID int64, key string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notification_logs WHERE household_id = ? AND log_key = ?`,
		householdID, key,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check notification log: %w", err)
	}
	return count > 0, nil
}

// Record writes the marker. Duplicate inserts are ignored.
func (s *NotificationLogStore) Record(householdID int64, key, notifType string, docID, actorUserID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO notification_logs (household_id, log_key, type, doc_id, actor_user_id)
		 VALUES (?, ?, ?, ?, ?)`,
		householdID, key, notifType, docID, actorUserID,
	)
	if err != nil {
		return fmt.Errorf("record notification log: %w", err)
	}
	return nil
}

// DeleteByHousehold clears a household's markers (account erasure).
func (s *NotificationLogStore) DeleteByHousehold(householdID int64) error {
	_, err := s.db.Exec(`DELETE FROM notification_logs WHERE household_id = ?`, householdID)
	if err != nil {
		return fmt.Errorf("delete notification logs by household: %w", err)
	}
	return nil
}

// Cleanup deletes markers older than the given time.
func (s *NotificationLogStore) Cleanup(before time.Time) error {
	_, err := s.db.Exec(`DELETE FROM notification_logs WHERE created_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("cleanup notification logs: %w", err)
	}
	return nil
}
