package model

import "time"

// Notification event types. These double as the prefix of the
// notification-log idempotency key.
const (
	NotifTypeTask       = "task"
	NotifTypeCost       = "cost"
	NotifTypeLetter     = "letter"
	NotifTypeInactivity = "inactivity"
)

// NotificationLog marks that a fanout for a given source document already
// ran. At most one row exists per (household, key) pair.
type NotificationLog struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	LogKey      string    `json:"log_key"`
	Type        string    `json:"type"`
	DocID       int64     `json:"doc_id"`
	ActorUserID int64     `json:"actor_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
