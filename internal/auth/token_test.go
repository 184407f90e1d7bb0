package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Expected user-1, got %s", userID)
	}
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	other := NewTokens("other-secret", time.Hour)
	expired := NewTokens("secret", time.Nanosecond)

	foreign, _ := other.Issue("user-1")
	stale, _ := expired.Issue("user-1")
	time.Sleep(time.Second)

	tests := []struct {
		name  string
		token string
	}{
		{"Garbage", "not-a-token"},
		{"Wrong Secret", foreign},
		{"Expired", stale},
		{"Empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Verify(tt.token); err != ErrInvalidToken {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
