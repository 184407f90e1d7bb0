package sqlstore

import (
	"testing"
)

func TestSaveAndGetMessages(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	owner := createTestUser(t, "owner")
	event := createTestEvent(t, owner, "Chat")

	for _, text := range []string{"first", "second", "third"} {
		msg, err := testStore.SaveMessage(event.ID, owner.ID, text)
		if err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
		if msg.Author.Name != "owner" || msg.ID == "" {
			t.Errorf("Unexpected saved message: %+v", msg)
		}
	}

	messages, err := testStore.GetEventMessages(event.ID)
	if err != nil {
		t.Fatalf("GetEventMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Text != want {
			t.Errorf("message %d = %q, want %q", i, messages[i].Text, want)
		}
		if i > 0 && messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Errorf("message %d is older than message %d", i, i-1)
		}
	}
}

func TestSaveMessageUnknownAuthor(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	owner := createTestUser(t, "owner")
	event := createTestEvent(t, owner, "Chat")

	if _, err := testStore.SaveMessage(event.ID, "ghost", "boo"); err == nil {
		t.Error("Expected error for unknown author")
	}
}
