package store

import (
	"database/sql"
	"fmt"

	"github.com/duetapp/duet/internal/model"
)

type CostStore struct {
	db *sql.DB
}

func NewCostStore(db *sql.DB) *CostStore {
	return &CostStore{db: db}
}

const costCols = `id, household_id, payer_id, payer_name, amount, created_at`

func scanCost(scanner interface{ Scan(...any) error }) (*model.CostRecord, error) {
	var c model.CostRecord
	err := scanner.Scan(&c.ID, &c.HouseholdID, &c.PayerID, &c.PayerName, &c.Amount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CostStore) Create(householdID, payerID int64, payerName string, amount int64) (*model.CostRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO cost_records (household_id, payer_id, payer_name, amount) VALUES (?, ?, ?, ?)`,
		householdID, payerID, payerName, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cost record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CostStore) GetByID(id int64) (*model.CostRecord, error) {
	row := s.db.QueryRow(`SELECT `+costCols+` FROM cost_records WHERE id = ?`, id)
	c, err := scanCost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cost record: %w", err)
	}
	return c, nil
}

func (s *CostStore) ListRecent(householdID int64, limit int) ([]model.CostRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+costCols+` FROM cost_records
		 WHERE household_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent costs: %w", err)
	}
	defer rows.Close()

	var costs []model.CostRecord
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cost record: %w", err)
		}
		costs = append(costs, *c)
	}
	return costs, rows.Err()
}

func (s *CostStore) DeleteByHousehold(householdID int64) error {
	_, err := s.db.Exec(`DELETE FROM cost_records WHERE household_id = ?`, householdID)
	if err != nil {
		return fmt.Errorf("delete costs by household: %w", err)
	}
	return nil
}
