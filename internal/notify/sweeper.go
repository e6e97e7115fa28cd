package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/push"
	"github.com/duetapp/duet/internal/store"
)

const (
	inactivityThreshold = 3 * 24 * time.Hour
	reminderCooldown    = 3 * 24 * time.Hour
	inactivityTitle     = "そろそろ、今日の分を10秒で"
)

// Sweeper sends a daily re-engagement push to users who have not recorded
// anything for three days. It fires once per day at the configured local
// hour, deduped across restarts by a date-keyed marker.
type Sweeper struct {
	users    *store.UserStore
	tokens   *store.DeviceTokenStore
	logs     *store.NotificationLogStore
	sender   Sender
	logger   *slog.Logger
	location *time.Location
	hour     int

	ticker *time.Ticker
	done   chan struct{}
}

func NewSweeper(users *store.UserStore, tokens *store.DeviceTokenStore, logs *store.NotificationLogStore, sender Sender, location *time.Location, hour int, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		users:    users,
		tokens:   tokens,
		logs:     logs,
		sender:   sender,
		logger:   logger.With("component", "sweeper"),
		location: location,
		hour:     hour,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to shut it down.
func (s *Sweeper) Start() {
	s.ticker = time.NewTicker(time.Minute)
	s.logger.Info("sweeper started", "hour", s.hour, "timezone", s.location.String())

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) tick(now time.Time) {
	local := now.In(s.location)
	if local.Hour() != s.hour {
		return
	}

	key := sweepKey(local)
	exists, err := s.logs.Exists(store.GlobalHousehold, key)
	if err != nil {
		s.logger.Error("check sweep marker", "key", key, "error", err)
		return
	}
	if exists {
		return
	}
	if err := s.logs.Record(store.GlobalHousehold, key, model.NotifTypeInactivity, 0, 0); err != nil {
		s.logger.Error("write sweep marker", "key", key, "error", err)
		return
	}

	if err := s.Sweep(now); err != nil {
		s.logger.Error("inactivity sweep", "error", err)
	}
}

// Sweep notifies every eligible inactive user. A user is eligible when
// notifications are on, the inactivity reminder is opted in, the last
// activity is older than three days and no reminder went out in the last
// three days.
func (s *Sweeper) Sweep(now time.Time) error {
	cutoff := now.Add(-inactivityThreshold)
	users, err := s.users.ListInactiveSince(cutoff)
	if err != nil {
		return fmt.Errorf("list inactive users: %w", err)
	}
	s.logger.Info("inactivity sweep started", "candidates", len(users))

	sent := 0
	for _, user := range users {
		if user.LastInactivityNotify != nil && now.Sub(*user.LastInactivityNotify) < reminderCooldown {
			s.logger.Debug("skip recently reminded user", "user_id", user.ID)
			continue
		}

		tokens, err := s.tokens.ListEnabledByUser(user.ID)
		if err != nil {
			s.logger.Error("load tokens", "user_id", user.ID, "error", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		payload := push.Payload{
			Title: inactivityTitle,
			Data:  map[string]string{"type": model.NotifTypeInactivity},
		}

		delivered := 0
		for _, res := range s.sender.SendAll(tokens, payload) {
			switch {
			case res.Err == nil:
				delivered++
			case errors.Is(res.Err, push.ErrExpired):
				if err := s.tokens.DeleteByEndpoint(res.Token.Endpoint); err != nil {
					s.logger.Error("prune expired token", "token_id", res.Token.ID, "error", err)
				}
			default:
				s.logger.Error("send inactivity push", "token_id", res.Token.ID, "error", res.Err)
			}
		}

		if delivered > 0 {
			if err := s.users.TouchInactivityNotified(user.ID, now); err != nil {
				s.logger.Error("update reminder time", "user_id", user.ID, "error", err)
			}
			sent++
		}
	}

	s.logger.Info("inactivity sweep finished", "notified", sent)
	return nil
}

func sweepKey(local time.Time) string {
	return "inactivity_" + local.Format("2006-01-02")
}
