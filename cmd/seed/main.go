// Command seed populates a development database with a demo household so
// the API can be exercised without a mobile client.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/duetapp/duet/internal/database"
	"github.com/duetapp/duet/internal/logging"
	"github.com/duetapp/duet/internal/model"
	"github.com/duetapp/duet/internal/store"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	logger := logging.Setup(os.Getenv("DUET_LOG_LEVEL"))

	dbPath := os.Getenv("DUET_DB_PATH")
	if dbPath == "" {
		dbPath = "duet.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	records := store.NewRecordStore(db)
	costs := store.NewCostStore(db)
	gratitude := store.NewGratitudeStore(db)

	house, err := households.Create("さとう家")
	if err != nil {
		logger.Error("create household failed", "error", err)
		os.Exit(1)
	}

	aki := mustUser(logger, users, "aki@example.com", "Aki", "aki-demo-secret")
	rin := mustUser(logger, users, "rin@example.com", "Rin", "rin-demo-secret")
	if err := users.SetPlan(aki.ID, "plus"); err != nil {
		logger.Error("set plan failed", "error", err)
		os.Exit(1)
	}

	if _, err := households.AddMember(house.ID, aki.ID, "あき", "admin"); err != nil {
		logger.Error("add member failed", "error", err)
		os.Exit(1)
	}
	if _, err := households.AddMember(house.ID, rin.ID, "りん", "member"); err != nil {
		logger.Error("add member failed", "error", err)
		os.Exit(1)
	}

	week := []struct {
		userID  int64
		name    string
		cat     string
		task    string
		minutes int
	}{
		{aki.ID, "あき", "料理", "朝食の準備", 20},
		{rin.ID, "りん", "掃除", "リビングの掃除機がけ", 15},
		{aki.ID, "あき", "料理", "夕食の準備", 45},
		{rin.ID, "りん", "洗濯", "洗濯物を干す", 10},
		{aki.ID, "あき", "買い物", "週末の食材まとめ買い", 60},
		{rin.ID, "りん", "料理", "お弁当作り", 25},
		{aki.ID, "あき", "ゴミ出し", "燃えるゴミ", 5},
	}
	for _, r := range week {
		if _, err := records.Create(house.ID, r.userID, r.name, r.cat, r.task, r.minutes); err != nil {
			logger.Error("seed record failed", "error", err)
			os.Exit(1)
		}
	}

	if _, err := costs.Create(house.ID, aki.ID, "あき", 4280); err != nil {
		logger.Error("seed cost failed", "error", err)
		os.Exit(1)
	}
	if _, err := costs.Create(house.ID, rin.ID, "りん", 12800); err != nil {
		logger.Error("seed cost failed", "error", err)
		os.Exit(1)
	}

	if _, err := gratitude.Create(house.ID, rin.ID, "りん", &aki.ID, "いつもごはんありがとう!"); err != nil {
		logger.Error("seed gratitude failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("seeded household %d with users %d (あき, plus) and %d (りん)\n", house.ID, aki.ID, rin.ID)
	fmt.Println("demo secrets: aki-demo-secret / rin-demo-secret")
}

func mustUser(logger *slog.Logger, users *store.UserStore, email, name, secret string) *model.User {
	u, err := users.Create(email, name)
	if err != nil {
		logger.Error("create user failed", "email", email, "error", err)
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash secret failed", "error", err)
		os.Exit(1)
	}
	if err := users.SetSecret(u.ID, string(hash)); err != nil {
		logger.Error("set secret failed", "error", err)
		os.Exit(1)
	}
	return u
}
