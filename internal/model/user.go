package model

import "time"

// Subscription plans.
const (
	PlanFree = "free"
	PlanPlus = "plus"
)

type User struct {
	ID                   int64      `json:"id"`
	Email                string     `json:"email"`
	Name                 string     `json:"name"`
	Plan                 string     `json:"plan"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	NotifyPartnerActions bool       `json:"notify_partner_actions"`
	NotifyInactivity     bool       `json:"notify_inactivity"`
	StripeCustomerID     string     `json:"-"`
	LastActivityAt       *time.Time `json:"last_activity_at"`
	LastInactivityNotify *time.Time `json:"last_inactivity_notified_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DeviceToken is one push registration for a user's device. A user may hold
// several; disabled tokens are kept but never sent to.
type DeviceToken struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}
