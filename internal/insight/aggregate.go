// Package insight aggregates household activity and turns it into
// AI-generated suggestions and weekly reports.
package insight

import (
	"math"

	"github.com/duetapp/duet/internal/model"
)

const fallbackName = "不明"

// MemberStat is one member's share of the aggregated window.
type MemberStat struct {
	Count        int
	TotalMinutes int
}

// CategoryStat totals one chore category.
type CategoryStat struct {
	Count        int
	TotalMinutes int
}

// Stats is the aggregate of an activity window. Member and category keys
// keep first-seen order so prompts are stable for a given window.
type Stats struct {
	Members       []string
	MemberStats   map[string]MemberStat
	Categories    []string
	CategoryStats map[string]CategoryStat
	TotalMinutes  int
}

// Aggregate folds records into per-member and per-category totals. Member
// display names are resolved from the roster by member id, falling back to
// the name recorded at creation time.
func Aggregate(records []model.ActivityRecord, nicknames map[int64]string) *Stats {
	s := &Stats{
		MemberStats:   make(map[string]MemberStat),
		CategoryStats: make(map[string]CategoryStat),
	}

	for _, rec := range records {
		name := nicknames[rec.MemberID]
		if name == "" {
			name = rec.MemberName
		}
		if name == "" {
			name = fallbackName
		}

		category := rec.Category
		if category == "" {
			category = "その他"
		}

		if _, ok := s.MemberStats[name]; !ok {
			s.Members = append(s.Members, name)
		}
		ms := s.MemberStats[name]
		ms.Count++
		ms.TotalMinutes += rec.TimeMinutes
		s.MemberStats[name] = ms

		if _, ok := s.CategoryStats[category]; !ok {
			s.Categories = append(s.Categories, category)
		}
		cs := s.CategoryStats[category]
		cs.Count++
		cs.TotalMinutes += rec.TimeMinutes
		s.CategoryStats[category] = cs

		s.TotalMinutes += rec.TimeMinutes
	}

	return s
}

// Empty reports whether the window had no records.
func (s *Stats) Empty() bool {
	return len(s.Members) == 0
}

// Balances returns each member's rounded percent share of total minutes.
// With no recorded time everyone gets an even 50.
func (s *Stats) Balances() map[string]int {
	balances := make(map[string]int, len(s.Members))
	for _, name := range s.Members {
		if s.TotalMinutes > 0 {
			share := float64(s.MemberStats[name].TotalMinutes) / float64(s.TotalMinutes) * 100
			balances[name] = int(math.Round(share))
		} else {
			balances[name] = 50
		}
	}
	return balances
}

// MemberPair returns the first two member names, synthesizing placeholders
// when the window has fewer than two members.
func (s *Stats) MemberPair() (string, string) {
	user1, user2 := "メンバー1", "メンバー2"
	if len(s.Members) > 0 {
		user1 = s.Members[0]
	}
	if len(s.Members) > 1 {
		user2 = s.Members[1]
	}
	return user1, user2
}
