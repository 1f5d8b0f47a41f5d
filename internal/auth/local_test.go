package auth

import (
	"context"
	"testing"
)

func TestLocalAuthServiceAlwaysReturnsLocalUser(t *testing.T) {
	ctx := context.Background()
	s := NewLocalAuthService()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.GetMode() != ModeLocal {
		t.Fatalf("expected ModeLocal, got %v", s.GetMode())
	}
	if !s.IsAuthenticated(ctx) {
		t.Fatalf("expected local mode to always report authenticated")
	}

	u, err := s.GetCurrentUser(ctx)
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if *u != LocalUser {
		t.Fatalf("expected LocalUser, got %+v", u)
	}

	signedIn, err := s.SignIn(ctx, "anyone@example.com", "anything")
	if err != nil || *signedIn != LocalUser {
		t.Fatalf("expected SignIn to return LocalUser unconditionally, got %+v (err %v)", signedIn, err)
	}

	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	// SignOut is a no-op in local mode: the user is still LocalUser afterward.
	u, err = s.GetCurrentUser(ctx)
	if err != nil || *u != LocalUser {
		t.Fatalf("expected sign-out to leave the local user in place, got %+v (err %v)", u, err)
	}
}

func TestLocalAuthServiceOnAuthStateChangeNeverFires(t *testing.T) {
	s := NewLocalAuthService()
	fired := false
	unsubscribe := s.OnAuthStateChange(func(*User) { fired = true })
	defer unsubscribe()

	ctx := context.Background()
	_, _ = s.SignIn(ctx, "a@b.com", "pw")
	_ = s.SignOut(ctx)

	if fired {
		t.Fatalf("expected local auth state to never change, listener should not fire")
	}
}
