package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/duetapp/duet/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, name, plan, notifications_enabled, notify_partner_actions,
	notify_inactivity, stripe_customer_id, last_activity_at, last_inactivity_notified_at,
	created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var notifEnabled, notifPartner, notifInactive int
	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &u.Plan, &notifEnabled, &notifPartner,
		&notifInactive, &u.StripeCustomerID, &u.LastActivityAt, &u.LastInactivityNotify,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.NotificationsEnabled = notifEnabled != 0
	u.NotifyPartnerActions = notifPartner != 0
	u.NotifyInactivity = notifInactive != 0
	return &u, nil
}

func (s *UserStore) Create(email, name string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name) VALUES (?, ?)`,
		email, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// SetPlan switches the user's subscription plan (free/plus).
func (s *UserStore) SetPlan(id int64, plan string) error {
	_, err := s.db.Exec(
		`UPDATE users SET plan = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		plan, id,
	)
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

func (s *UserStore) SetStripeCustomerID(id int64, customerID string) error {
	_, err := s.db.Exec(
		`UPDATE users SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		customerID, id,
	)
	if err != nil {
		return fmt.Errorf("set stripe customer id: %w", err)
	}
	return nil
}

func (s *UserStore) GetByStripeCustomerID(customerID string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE stripe_customer_id = ?`, customerID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by stripe customer: %w", err)
	}
	return u, nil
}

// SetSecret stores the bcrypt hash used for token exchange.
func (s *UserStore) SetSecret(id int64, secretHash string) error {
	_, err := s.db.Exec(
		`UPDATE users SET secret_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		secretHash, id,
	)
	if err != nil {
		return fmt.Errorf("set secret: %w", err)
	}
	return nil
}

func (s *UserStore) GetSecretHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT secret_hash FROM users WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get secret hash: %w", err)
	}
	return hash, nil
}

// SetPreferences updates the three notification switches at once.
func (s *UserStore) SetPreferences(id int64, enabled, partnerActions, inactivity bool) error {
	_, err := s.db.Exec(
		`UPDATE users SET notifications_enabled = ?, notify_partner_actions = ?,
		 notify_inactivity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(enabled), boolToInt(partnerActions), boolToInt(inactivity), id,
	)
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	return nil
}

// TouchActivity records that the user did something just now. Called on
// every record/cost/gratitude creation so the inactivity sweep has a
// baseline.
func (s *UserStore) TouchActivity(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users SET last_activity_at = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}
	return nil
}

// TouchInactivityNotified records that a re-engagement push went out, which
// rate-limits further reminders.
func (s *UserStore) TouchInactivityNotified(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users SET last_inactivity_notified_at = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touch inactivity notified: %w", err)
	}
	return nil
}

// ListInactiveSince returns users who opted into inactivity reminders and
// whose last activity predates the cutoff. The per-user reminder rate limit
// is applied by the caller.
func (s *UserStore) ListInactiveSince(cutoff time.Time) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users
		 WHERE notifications_enabled = 1 AND notify_inactivity = 1
		   AND last_activity_at IS NOT NULL AND last_activity_at < ?
		 ORDER BY id ASC`,
		cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list inactive users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
