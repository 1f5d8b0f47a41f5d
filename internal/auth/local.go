package auth

import "context"

var _ Service = (*LocalAuthService)(nil)

// LocalAuthService is the AuthService used in local-only mode: every call
// resolves immediately to LocalUser, no network, no password, no session to
// revoke. Sign-up/sign-in are no-ops that return LocalUser and reset-password
// is a no-op that returns a nil error: in local mode there is a single
// implicit user and auth is not a gate.
type LocalAuthService struct {
	listeners []func(*User)
}

// NewLocalAuthService constructs a LocalAuthService. There is no state to
// initialize; Initialize exists only to satisfy Service.
func NewLocalAuthService() *LocalAuthService {
	return &LocalAuthService{}
}

func (s *LocalAuthService) Initialize(ctx context.Context) error { return nil }

func (s *LocalAuthService) GetMode() Mode { return ModeLocal }

func (s *LocalAuthService) GetCurrentUser(ctx context.Context) (*User, error) {
	u := LocalUser
	return &u, nil
}

func (s *LocalAuthService) IsAuthenticated(ctx context.Context) bool { return true }

func (s *LocalAuthService) SignUp(ctx context.Context, email, password string) (*User, error) {
	u := LocalUser
	return &u, nil
}

func (s *LocalAuthService) SignIn(ctx context.Context, email, password string) (*User, error) {
	u := LocalUser
	return &u, nil
}

func (s *LocalAuthService) SignOut(ctx context.Context) error { return nil }

func (s *LocalAuthService) ResetPassword(ctx context.Context, email string) error { return nil }

func (s *LocalAuthService) GetSession(ctx context.Context) (*Session, error) {
	return &Session{}, nil
}

func (s *LocalAuthService) RefreshSession(ctx context.Context) (*Session, error) {
	return &Session{}, nil
}

// OnAuthStateChange is kept for interface compliance; the local user never
// changes within a process, so the listener is never invoked. The returned
// unsubscribe is a no-op.
func (s *LocalAuthService) OnAuthStateChange(fn func(*User)) func() {
	return func() {}
}
