package store

import (
	"database/sql"
	"fmt"

	"github.com/duetapp/duet/internal/model"
)

type InsightStore struct {
	db *sql.DB
}

func NewInsightStore(db *sql.DB) *InsightStore {
	return &InsightStore{db: db}
}

const insightCols = `id, household_id, kind, content, created_at`

func (s *InsightStore) Create(householdID int64, kind, content string) (*model.Insight, error) {
	result, err := s.db.Exec(
		`INSERT INTO insights (household_id, kind, content) VALUES (?, ?, ?)`,
		householdID, kind, content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert insight: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+insightCols+` FROM insights WHERE id = ?`, id)
	var i model.Insight
	if err := row.Scan(&i.ID, &i.HouseholdID, &i.Kind, &i.Content, &i.CreatedAt); err != nil {
		return nil, fmt.Errorf("get insight: %w", err)
	}
	return &i, nil
}

func (s *InsightStore) ListByHousehold(householdID int64, limit int) ([]model.Insight, error) {
	rows, err := s.db.Query(
		`SELECT `+insightCols+` FROM insights
		 WHERE household_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var insights []model.Insight
	for rows.Next() {
		var i model.Insight
		if err := rows.Scan(&i.ID, &i.HouseholdID, &i.Kind, &i.Content, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		insights = append(insights, i)
	}
	return insights, rows.Err()
}

func (s *InsightStore) DeleteByHousehold(householdID int64) error {
	_, err := s.db.Exec(`DELETE FROM insights WHERE household_id = ?`, householdID)
	if err != nil {
		return fmt.Errorf("delete insights by household: %w", err)
	}
	return nil
}
