package model

import "time"

// Insight kinds.
const (
	InsightSuggestion = "suggestion"
	InsightReport     = "report"
)

// Insight is a generated AI summary kept for the household's history.
type Insight struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
