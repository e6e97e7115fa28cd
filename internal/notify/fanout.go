// Package notify delivers partner-action pushes and the daily inactivity
// sweep. Delivery failures are logged and swallowed so a push problem never
// fails the write that triggered it.
package notify

import (
	"errors"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/push"
	"github.com/duetapp/duet/internal/store"
)

const (
	fallbackActorName = "家族"
	letterBodyLimit   = 50
)

// Sender multicasts one payload to a set of device tokens. Satisfied by
// *push.Service.
type Sender interface {
	SendAll(tokens []model.DeviceToken, payload push.Payload) []push.Result
}

// Fanout sends partner-action notifications when a record, cost or
// gratitude message is created.
type Fanout struct {
	users      *store.UserStore
	households *store.HouseholdStore
	tokens     *store.DeviceTokenStore
	logs       *store.NotificationLogStore
	sender     Sender
	logger     *slog.Logger
}

func NewFanout(users *store.UserStore, households *store.HouseholdStore, tokens *store.DeviceTokenStore, logs *store.NotificationLogStore, sender Sender, logger *slog.Logger) *Fanout {
	return &Fanout{
		users:      users,
		households: households,
		tokens:     tokens,
		logs:       logs,
		sender:     sender,
		logger:     logger.With("component", "fanout"),
	}
}

// RecordCreated notifies the actor's partners about a new activity record.
func (f *Fanout) RecordCreated(rec *model.ActivityRecord) {
	key := store.Key(model.NotifTypeTask, rec.ID)
	if f.alreadyNotified(rec.HouseholdID, key) {
		return
	}

	recipients, ok := f.partnerRecipients(rec.HouseholdID, rec.MemberID)
	if !ok {
		return
	}

	body := rec.Task
	if body == "" {
		body = rec.Category
	}
	payload := push.Payload{
		Title: actorName(rec.MemberName) + "さんが家事を記録しました",
		Body:  body,
		Data: map[string]string{
			"type":        model.NotifTypeTask,
			"householdId": strconv.FormatInt(rec.HouseholdID, 10),
			"docId":       strconv.FormatInt(rec.ID, 10),
		},
	}

	for _, uid := range recipients {
		f.deliver(uid, payload)
	}
	f.writeMarker(rec.HouseholdID, key, model.NotifTypeTask, rec.ID, rec.MemberID)
}

// CostCreated notifies the payer's partners about a new cost record.
func (f *Fanout) CostCreated(cost *model.CostRecord) {
	key := store.Key(model.NotifTypeCost, cost.ID)
	if f.alreadyNotified(cost.HouseholdID, key) {
		return
	}

	recipients, ok := f.partnerRecipients(cost.HouseholdID, cost.PayerID)
	if !ok {
		return
	}

	payload := push.Payload{
		Title: actorName(cost.PayerName) + "さんがコストを記録しました",
		Body:  "¥" + groupYen(cost.Amount),
		Data: map[string]string{
			"type":        model.NotifTypeCost,
			"householdId": strconv.FormatInt(cost.HouseholdID, 10),
			"docId":       strconv.FormatInt(cost.ID, 10),
		},
	}

	for _, uid := range recipients {
		f.deliver(uid, payload)
	}
	f.writeMarker(cost.HouseholdID, key, model.NotifTypeCost, cost.ID, cost.PayerID)
}

// GratitudeCreated notifies the recipient of a gratitude message, or every
// partner when the message is a broadcast. Messages whose sender or explicit
// recipient is not a household member are dropped silently.
func (f *Fanout) GratitudeCreated(msg *model.GratitudeMessage) {
	key := store.Key(model.NotifTypeLetter, msg.ID)
	if f.alreadyNotified(msg.HouseholdID, key) {
		return
	}

	members, err := f.households.ListMembers(msg.HouseholdID)
	if err != nil {
		f.logger.Error("load members", "household_id", msg.HouseholdID, "error", err)
		return
	}
	memberSet := make(map[int64]bool, len(members))
	for _, m := range members {
		memberSet[m.UserID] = true
	}

	if !memberSet[msg.FromUserID] {
		f.logger.Warn("gratitude sender not a household member", "household_id", msg.HouseholdID, "from_user_id", msg.FromUserID)
		return
	}

	var recipients []int64
	if msg.ToUserID != nil {
		if !memberSet[*msg.ToUserID] {
			f.logger.Warn("gratitude recipient not a household member", "household_id", msg.HouseholdID, "to_user_id", *msg.ToUserID)
			return
		}
		recipients = []int64{*msg.ToUserID}
	} else {
		for _, m := range members {
			if m.UserID != msg.FromUserID {
				recipients = append(recipients, m.UserID)
			}
		}
	}
	if len(recipients) == 0 {
		return
	}

	payload := push.Payload{
		Title: actorName(msg.FromName) + "さんからメッセージが届きました",
		Body:  truncateRunes(msg.Message, letterBodyLimit),
		Data: map[string]string{
			"type":        model.NotifTypeLetter,
			"householdId": strconv.FormatInt(msg.HouseholdID, 10),
			"docId":       strconv.FormatInt(msg.ID, 10),
			"fromUserId":  strconv.FormatInt(msg.FromUserID, 10),
		},
	}

	for _, uid := range recipients {
		f.deliver(uid, payload)
	}
	f.writeMarker(msg.HouseholdID, key, model.NotifTypeLetter, msg.ID, msg.FromUserID)
}

func (f *Fanout) alreadyNotified(householdID int64, key string) bool {
	exists, err := f.logs.Exists(householdID, key)
	if err != nil {
		f.logger.Error("check notification log", "key", key, "error", err)
		return true
	}
	if exists {
		f.logger.Debug("already notified", "key", key)
	}
	return exists
}

// partnerRecipients returns all household members except the actor.
func (f *Fanout) partnerRecipients(householdID, actorID int64) ([]int64, bool) {
	members, err := f.households.ListMembers(householdID)
	if err != nil {
		f.logger.Error("load members", "household_id", householdID, "error", err)
		return nil, false
	}
	var recipients []int64
	for _, m := range members {
		if m.UserID != actorID {
			recipients = append(recipients, m.UserID)
		}
	}
	return recipients, len(recipients) > 0
}

// deliver sends the payload to one user's enabled tokens, honoring their
// notification preferences and pruning expired endpoints.
func (f *Fanout) deliver(userID int64, payload push.Payload) {
	user, err := f.users.GetByID(userID)
	if err != nil {
		f.logger.Error("load user", "user_id", userID, "error", err)
		return
	}
	if user == nil || !user.NotificationsEnabled || !user.NotifyPartnerActions {
		return
	}

	tokens, err := f.tokens.ListEnabledByUser(userID)
	if err != nil {
		f.logger.Error("load tokens", "user_id", userID, "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	sent := 0
	for _, res := range f.sender.SendAll(tokens, payload) {
		switch {
		case res.Err == nil:
			sent++
		case errors.Is(res.Err, push.ErrExpired):
			if err := f.tokens.DeleteByEndpoint(res.Token.Endpoint); err != nil {
				f.logger.Error("prune expired token", "token_id", res.Token.ID, "error", err)
			} else {
				f.logger.Info("pruned expired token", "token_id", res.Token.ID, "user_id", userID)
			}
		default:
			f.logger.Error("send push", "token_id", res.Token.ID, "error", res.Err)
		}
	}
	f.logger.Info("notification sent", "user_id", userID, "delivered", sent, "tokens", len(tokens))
}

func (f *Fanout) writeMarker(householdID int64, key, notifType string, docID, actorID int64) {
	if err := f.logs.Record(householdID, key, notifType, docID, actorID); err != nil {
		f.logger.Error("write notification log", "key", key, "error", err)
	}
}

func actorName(name string) string {
	if name == "" {
		return fallbackActorName
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// groupYen renders an amount with thousands separators.
func groupYen(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	result := string(out)
	if neg {
		return "-" + result
	}
	return result
}
