package model

import "time"

// ActivityRecord is one logged chore: who did what, and for how long.
type ActivityRecord struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	MemberID    int64     `json:"member_id"`
	MemberName  string    `json:"member_name"`
	Category    string    `json:"category"`
	Task        string    `json:"task"`
	TimeMinutes int       `json:"time_minutes"`
	CreatedAt   time.Time `json:"created_at"`
}

// CostRecord is one logged household expense, in whole yen.
type CostRecord struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	PayerID     int64     `json:"payer_id"`
	PayerName   string    `json:"payer_name"`
	Amount      int64     `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}
