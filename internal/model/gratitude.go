package model

import "time"

// GratitudeMessage is a thank-you note between household members.
// A nil ToUserID means the message is addressed to every other member.
type GratitudeMessage struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	FromUserID  int64     `json:"from_user_id"`
	FromName    string    `json:"from_name"`
	ToUserID    *int64    `json:"to_user_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
