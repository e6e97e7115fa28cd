package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/duetapp/duet/internal/model"
)

type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

const recordCols = `id, household_id, member_id, member_name, category, task, time_minutes, created_at`

func scanRecord(scanner interface{ Scan(...any) error }) (*model.ActivityRecord, error) {
	var r model.ActivityRecord
	err := scanner.Scan(&r.ID, &r.HouseholdID, &r.MemberID, &r.MemberName,
		&r.Category, &r.Task, &r.TimeMinutes, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RecordStore) Create(householdID, memberID int64, memberName, category, task string, timeMinutes int) (*model.ActivityRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO activity_records (household_id, member_id, member_name, category, task, time_minutes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		householdID, memberID, memberName, category, task, timeMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RecordStore) GetByID(id int64) (*model.ActivityRecord, error) {
	row := s.db.QueryRow(`SELECT `+recordCols+` FROM activity_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity record: %w", err)
	}
	return r, nil
}

// ListRecent returns the household's newest records, most recent first.
func (s *RecordStore) ListRecent(householdID int64, limit int) ([]model.ActivityRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+recordCols+` FROM activity_records
		 WHERE household_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListSince returns the household's records created at or after the cutoff,
// most recent first.
func (s *RecordStore) ListSince(householdID int64, cutoff time.Time) ([]model.ActivityRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+recordCols+` FROM activity_records
		 WHERE household_id = ? AND created_at >= ? ORDER BY created_at DESC, id DESC`,
		householdID, cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list records since: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *RecordStore) DeleteByHousehold(householdID int64) error {
	_, err := s.db.Exec(`DELETE FROM activity_records WHERE household_id = ?`, householdID)
	if err != nil {
		return fmt.Errorf("delete records by household: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]model.ActivityRecord, error) {
	var records []model.ActivityRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
