package sqlstore

import (
	"errors"
	"testing"

	"github.com/pliu/eventplanner/internal/models"
	"github.com/pliu/eventplanner/internal/store"
)

func TestCreateUser(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	user := &models.User{Name: "Test User", Email: "test@example.com", Password: "hash"}
	if err := testStore.CreateUser(user); err != nil {
		t.Errorf("Failed to create user: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected CreateUser to assign an id")
	}

	// Test duplicate email
	err := testStore.CreateUser(&models.User{Name: "Other", Email: "test@example.com", Password: "hash"})
	if err == nil {
		t.Error("Expected error when creating duplicate email, got nil")
	}
}

func TestGetUserByEmail(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	testStore.CreateUser(&models.User{Name: "Test User", Email: "test@example.com", Password: "hash"})

	user, err := testStore.GetUserByEmail("test@example.com")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.Name != "Test User" {
		t.Errorf("Expected name 'Test User', got '%s'", user.Name)
	}
	if user.NotificationsEnabled {
		t.Error("Expected notifications to default to disabled")
	}

	_, err = testStore.GetUserByEmail("nobody@example.com")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown email, got %v", err)
	}
}

func TestUpdateUserNameAndNotifications(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	user := &models.User{Name: "Before", Email: "u@example.com", Password: "hash"}
	testStore.CreateUser(user)

	if err := testStore.UpdateUserName(user.ID, "After"); err != nil {
		t.Fatalf("UpdateUserName failed: %v", err)
	}
	if err := testStore.SetNotifications(user.ID, true); err != nil {
		t.Fatalf("SetNotifications failed: %v", err)
	}

	got, _ := testStore.GetUserByID(user.ID)
	if got.Name != "After" || !got.NotificationsEnabled {
		t.Errorf("Unexpected user after update: %+v", got)
	}

	if err := testStore.UpdateUserName("missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}
