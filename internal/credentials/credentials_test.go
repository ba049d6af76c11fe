package credentials

import (
	"strings"
	"testing"
)

func TestGenerateGuestUsername(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		username, err := GenerateGuestUsername()
		if err != nil {
			t.Fatalf("GenerateGuestUsername() error: %v", err)
		}

		parts := strings.Split(username, "-")
		if len(parts) != 2 {
			t.Fatalf("username %q is not adjective-noun", username)
		}
		if parts[0] == "" || parts[1] == "" {
			t.Fatalf("username %q has an empty part", username)
		}
		seen[username] = true
	}

	// 1600 combinations: 50 draws all landing on one value means a broken RNG
	if len(seen) < 2 {
		t.Error("50 generated usernames were all identical")
	}
}

func TestGenerateFriendCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateFriendCode()
		if err != nil {
			t.Fatalf("GenerateFriendCode() error: %v", err)
		}
		if len(code) != friendCodeLength {
			t.Errorf("code %q has length %d, want %d", code, len(code), friendCodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(friendCodeAlphabet, r) {
				t.Errorf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}
