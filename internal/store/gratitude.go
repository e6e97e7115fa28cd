package store

import (
	"database/sql"
	"fmt"

	"github.com/duetapp/duet/internal/model"
)

type GratitudeStore struct {
	db *sql.DB
}

func NewGratitudeStore(db *sql.DB) *GratitudeStore {
	return &GratitudeStore{db: db}
}

const gratitudeCols = `id, household_id, from_user_id, from_name, to_user_id, message, created_at`

func scanGratitude(scanner interface{ Scan(...any) error }) (*model.GratitudeMessage, error) {
	var g model.GratitudeMessage
	err := scanner.Scan(&g.ID, &g.HouseholdID, &g.FromUserID, &g.FromName, &g.ToUserID, &g.Message, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a gratitude message. toUserID nil means broadcast to every
// other household member.
func (s *GratitudeStore) Create(householdID, fromUserID int64, fromName string, toUserID *int64, message string) (*model.GratitudeMessage, error) {
	result, err := s.db.Exec(
		`INSERT INTO gratitude_messages (household_id, from_user_id, from_name, to_user_id, message)
		 VALUES (?, ?, ?, ?, ?)`,
		householdID, fromUserID, fromName, toUserID, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert gratitude message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GratitudeStore) GetByID(id int64) (*model.GratitudeMessage, error) {
	row := s.db.QueryRow(`SELECT `+gratitudeCols+` FROM gratitude_messages WHERE id = ?`, id)
	g, err := scanGratitude(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gratitude message: %w", err)
	}
	return g, nil
}

func (s *GratitudeStore) ListByHousehold(householdID int64, limit int) ([]model.GratitudeMessage, error) {
	rows, err := s.db.Query(
		`SELECT `+gratitudeCols+` FROM gratitude_messages
		 WHERE household_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list gratitude messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.GratitudeMessage
	for rows.Next() {
		g, err := scanGratitude(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gratitude message: %w", err)
		}
		msgs = append(msgs, *g)
	}
	return msgs, rows.Err()
}

// DeleteBySender removes every message the user sent, returning the count.
func (s *GratitudeStore) DeleteBySender(userID int64) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM gratitude_messages WHERE from_user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sent gratitude messages: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// DeleteByRecipient removes every message addressed to the user, returning the count.
func (s *GratitudeStore) DeleteByRecipient(userID int64) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM gratitude_messages WHERE to_user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete received gratitude messages: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
