package store

import "testing"

func TestGratitudeBroadcastAndDirected(t *testing.T) {
	db := openTestDB(t)
	hid, uid1, uid2 := seedHousehold(t, db)
	gs := NewGratitudeStore(db)

	broadcast, err := gs.Create(hid, uid1, "Aki", nil, "thanks everyone")
	if err != nil {
		t.Fatalf("create broadcast: %v", err)
	}
	if broadcast.ToUserID != nil {
		t.Error("expected nil recipient for broadcast")
	}

	directed, err := gs.Create(hid, uid1, "Aki", &uid2, "thanks for dinner")
	if err != nil {
		t.Fatalf("create directed: %v", err)
	}
	if directed.ToUserID == nil || *directed.ToUserID != uid2 {
		t.Errorf("recipient = %v, want %d", directed.ToUserID, uid2)
	}

	msgs, err := gs.ListByHousehold(hid, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
}

func TestDeleteBySenderAndRecipient(t *testing.T) {
	db := openTestDB(t)
	hid, uid1, uid2 := seedHousehold(t, db)
	gs := NewGratitudeStore(db)

	gs.Create(hid, uid1, "Aki", &uid2, "sent by 1")
	gs.Create(hid, uid2, "Rin", &uid1, "received by 1")
	gs.Create(hid, uid2, "Rin", nil, "unrelated broadcast")

	sent, err := gs.DeleteBySender(uid1)
	if err != nil {
		t.Fatalf("delete by sender: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent deletions = %d, want 1", sent)
	}

	received, err := gs.DeleteByRecipient(uid1)
	if err != nil {
		t.Fatalf("delete by recipient: %v", err)
	}
	if received != 1 {
		t.Errorf("received deletions = %d, want 1", received)
	}

	remaining, _ := gs.ListByHousehold(hid, 10)
	if len(remaining) != 1 {
		t.Errorf("remaining = %d, want 1", len(remaining))
	}
}
