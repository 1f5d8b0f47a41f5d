package kv

import "testing"

func TestDatabaseNameRoundTrip(t *testing.T) {
	name, err := DatabaseName("coach-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "matchops_user_coach-42" {
		t.Fatalf("unexpected name: %s", name)
	}
	if !IsUserScoped(name) {
		t.Fatalf("expected %s to be user scoped", name)
	}
	userID, ok := ExtractUserID(name)
	if !ok || userID != "coach-42" {
		t.Fatalf("round trip failed: got %q ok=%v", userID, ok)
	}
}

func TestDatabaseNameValidation(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		wantOK bool
	}{
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"invalid chars", "coach@42", false},
		{"too long", string(make([]byte, 256)), false},
		{"valid", "coach_42-A", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DatabaseName(tc.userID)
			if tc.wantOK && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Fatalf("expected error, got none")
			}
		})
	}
}

func TestIsUserScopedRejectsLegacyName(t *testing.T) {
	if IsUserScoped(LegacyDatabaseName) {
		t.Fatalf("legacy name must not be treated as user scoped")
	}
}
