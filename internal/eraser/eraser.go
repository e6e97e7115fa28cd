// Package eraser removes every trace of a user on account deletion.
package eraser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duetapp/duet/internal/store"

	"go.uber.org/multierr"
)

// Result reports the outcome of an erasure. Success stays true when
// individual steps failed; Note distinguishes a clean run from a partial
// one.
type Result struct {
	Success bool     `json:"success"`
	Deleted bool     `json:"deleted"`
	Errors  []string `json:"errors,omitempty"`
	Note    string   `json:"note,omitempty"`
}

const (
	notePartial = "partial-success"
	noteFailed  = "failed"
)

// Eraser deletes a user's account data: the user row, every household the
// user belongs to (with its records, insights, costs and notification
// markers), and all gratitude messages sent or received.
type Eraser struct {
	users      *store.UserStore
	households *store.HouseholdStore
	records    *store.RecordStore
	costs      *store.CostStore
	insights   *store.InsightStore
	gratitude  *store.GratitudeStore
	logs       *store.NotificationLogStore
	sessions   *store.SessionStore
	tokens     *store.DeviceTokenStore
	logger     *slog.Logger
}

func New(users *store.UserStore, households *store.HouseholdStore, records *store.RecordStore, costs *store.CostStore, insights *store.InsightStore, gratitude *store.GratitudeStore, logs *store.NotificationLogStore, sessions *store.SessionStore, tokens *store.DeviceTokenStore, logger *slog.Logger) *Eraser {
	return &Eraser{
		users:      users,
		households: households,
		records:    records,
		costs:      costs,
		insights:   insights,
		gratitude:  gratitude,
		logs:       logs,
		sessions:   sessions,
		tokens:     tokens,
		logger:     logger.With("component", "eraser"),
	}
}

// Erase removes the user and everything they own. Each step is guarded so
// one failure never stops the others; step errors are collected and the
// result is still a success with a partial-success note.
func (e *Eraser) Erase(ctx context.Context, userID int64) Result {
	e.logger.Info("account erasure started", "user_id", userID)

	var errs error

	// 1. Every household the user belongs to, with its data. Must run
	// before the user row goes: the membership scan needs the user's
	// member rows, and deleting a household cascades them away. The full
	// scan mirrors the membership model: households know their members,
	// users don't list their households.
	if err := e.eraseHouseholds(ctx, userID); err != nil {
		e.logger.Error("erase households", "user_id", userID, "error", err)
		errs = multierr.Append(errs, fmt.Errorf("世帯削除: %w", err))
	}

	// 2. The user row, with its sessions and push registrations. Any
	// membership rows a failed household delete left behind cascade here.
	if err := e.eraseUser(userID); err != nil {
		e.logger.Error("erase user", "user_id", userID, "error", err)
		errs = multierr.Append(errs, fmt.Errorf("ユーザー削除: %w", err))
	}

	// 3. Gratitude messages sent and received.
	if err := e.eraseGratitude(userID); err != nil {
		e.logger.Error("erase gratitude messages", "user_id", userID, "error", err)
		errs = multierr.Append(errs, fmt.Errorf("感謝メッセージ削除: %w", err))
	}

	stepErrors := multierr.Errors(errs)
	if len(stepErrors) == 0 {
		e.logger.Info("account erasure finished", "user_id", userID)
		return Result{Success: true, Deleted: true}
	}

	messages := make([]string, 0, len(stepErrors))
	for _, err := range stepErrors {
		messages = append(messages, err.Error())
	}
	e.logger.Warn("account erasure finished with step errors", "user_id", userID, "errors", len(messages))
	return Result{Success: true, Deleted: true, Errors: messages, Note: notePartial}
}

func (e *Eraser) eraseUser(userID int64) error {
	user, err := e.users.GetByID(userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil
	}

	if err := e.sessions.DeleteByUser(userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if err := e.tokens.DeleteByUser(userID); err != nil {
		return fmt.Errorf("delete device tokens: %w", err)
	}
	if err := e.users.Delete(userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	e.logger.Info("user row deleted", "user_id", userID)
	return nil
}

func (e *Eraser) eraseHouseholds(ctx context.Context, userID int64) error {
	households, err := e.households.ListAll()
	if err != nil {
		return fmt.Errorf("list households: %w", err)
	}

	var errs error
	for _, h := range households {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		member, err := e.households.GetMember(h.ID, userID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("household %d: check membership: %w", h.ID, err))
			continue
		}
		if member == nil {
			continue
		}

		e.logger.Info("deleting household", "household_id", h.ID)
		if err := e.records.DeleteByHousehold(h.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("household %d: delete records: %w", h.ID, err))
		}
		if err := e.insights.DeleteByHousehold(h.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("household %d: delete insights: %w", h.ID, err))
		}
		if err := e.costs.DeleteByHousehold(h.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("household %d: delete costs: %w", h.ID, err))
		}
		if err := e.logs.DeleteByHousehold(h.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("household %d: delete notification logs: %w", h.ID, err))
		}
		if err := e.households.Delete(h.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("household %d: delete household: %w", h.ID, err))
		}
	}
	return errs
}

func (e *Eraser) eraseGratitude(userID int64) error {
	sent, err := e.gratitude.DeleteBySender(userID)
	if err != nil {
		return fmt.Errorf("delete sent messages: %w", err)
	}
	received, err := e.gratitude.DeleteByRecipient(userID)
	if err != nil {
		return fmt.Errorf("delete received messages: %w", err)
	}
	e.logger.Info("gratitude messages deleted", "sent", sent, "received", received)
	return nil
}
