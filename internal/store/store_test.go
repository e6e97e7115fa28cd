package store

import (
	"database/sql"
	"testing"

	"github.com/duetapp/duet/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedHousehold creates a household with two member users and returns
// (householdID, userID1, userID2).
func seedHousehold(t *testing.T, db *sql.DB) (int64, int64, int64) {
	t.Helper()

	hs := NewHouseholdStore(db)
	us := NewUserStore(db)

	h, err := hs.Create("Test House")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	u1, err := us.Create("aki@example.com", "Aki")
	if err != nil {
		t.Fatalf("create user 1: %v", err)
	}
	u2, err := us.Create("rin@example.com", "Rin")
	if err != nil {
		t.Fatalf("create user 2: %v", err)
	}
	if _, err := hs.AddMember(h.ID, u1.ID, "Aki", "admin"); err != nil {
		t.Fatalf("add member 1: %v", err)
	}
	if _, err := hs.AddMember(h.ID, u2.ID, "Rin", "member"); err != nil {
		t.Fatalf("add member 2: %v", err)
	}
	return h.ID, u1.ID, u2.ID
}
