package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/duetapp/duet/internal/apperr"
	"github.com/duetapp/duet/internal/completion"
	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/store"
)

const (
	suggestionWindow = 20
	reportDays       = 7
	maxTokens        = 500
	temperature      = 0.7
)

// Completer produces a chat completion. Satisfied by *completion.Client.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

// Service generates AI suggestions and weekly reports for a household.
type Service struct {
	users      *store.UserStore
	households *store.HouseholdStore
	records    *store.RecordStore
	insights   *store.InsightStore
	completer  Completer
	logger     *slog.Logger
}

func NewService(users *store.UserStore, households *store.HouseholdStore, records *store.RecordStore, insights *store.InsightStore, completer Completer, logger *slog.Logger) *Service {
	return &Service{
		users:      users,
		households: households,
		records:    records,
		insights:   insights,
		completer:  completer,
		logger:     logger.With("component", "insight"),
	}
}

// GenerateSuggestion builds a short suggestion from the most recent
// records. Plus plan only.
func (s *Service) GenerateSuggestion(ctx context.Context, callerID, householdID int64) (string, error) {
	if err := s.authorize(callerID, householdID); err != nil {
		return "", err
	}

	records, err := s.records.ListRecent(householdID, suggestionWindow)
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		return EmptySuggestion, nil
	}

	nicknames, err := s.households.Nicknames(householdID)
	if err != nil {
		return "", fmt.Errorf("load roster: %w", err)
	}

	stats := Aggregate(records, nicknames)
	text, err := s.complete(ctx, BuildSuggestionPrompt(stats))
	if err != nil {
		return "", err
	}

	if _, err := s.insights.Create(householdID, model.InsightSuggestion, text); err != nil {
		s.logger.Error("persist suggestion", "household_id", householdID, "error", err)
	}

	s.logger.Info("suggestion generated", "household_id", householdID, "records", len(records))
	return text, nil
}

// GenerateWeeklyReport builds the multi-section report from the last
// 7 days of records. Plus plan only.
func (s *Service) GenerateWeeklyReport(ctx context.Context, callerID, householdID int64) (string, error) {
	if err := s.authorize(callerID, householdID); err != nil {
		return "", err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -reportDays)
	records, err := s.records.ListSince(householdID, cutoff)
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}
	if len(records) == 0 {
		return EmptyReport, nil
	}

	nicknames, err := s.households.Nicknames(householdID)
	if err != nil {
		return "", fmt.Errorf("load roster: %w", err)
	}

	stats := Aggregate(records, nicknames)
	text, err := s.complete(ctx, BuildReportPrompt(stats))
	if err != nil {
		return "", err
	}

	if _, err := s.insights.Create(householdID, model.InsightReport, text); err != nil {
		s.logger.Error("persist report", "household_id", householdID, "error", err)
	}

	s.logger.Info("weekly report generated", "household_id", householdID, "records", len(records))
	return text, nil
}

// authorize runs every gate before any external call is made.
func (s *Service) authorize(callerID, householdID int64) error {
	if callerID == 0 {
		return apperr.New(apperr.Unauthenticated, "ユーザーが認証されていません")
	}
	if householdID == 0 {
		return apperr.New(apperr.InvalidArgument, "householdIdが指定されていません")
	}

	user, err := s.users.GetByID(callerID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return apperr.New(apperr.NotFound, "ユーザー情報が見つかりません")
	}
	if user.Plan != model.PlanPlus {
		return apperr.New(apperr.PermissionDenied, "この機能はPlus会員限定です")
	}
	return nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	text, err := s.completer.Complete(ctx, SystemInstruction, prompt, maxTokens, temperature)
	switch {
	case errors.Is(err, completion.ErrRateLimited):
		return "", apperr.New(apperr.ResourceExhausted, "APIの利用制限に達しました。しばらくしてから再度お試しください。")
	case errors.Is(err, completion.ErrUnauthorized):
		return "", apperr.New(apperr.Unauthenticated, "OpenAI APIキーが無効です。")
	case err != nil:
		return "", fmt.Errorf("generate completion: %w", err)
	}
	return text, nil
}
