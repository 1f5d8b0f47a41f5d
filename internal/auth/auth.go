// Package auth implements the AuthService contract: a LocalAuthService
// that hands back a frozen local user with no network calls, and a
// CloudAuthService that validates JWTs against a Logto JWKS. Service is the
// narrow surface SyncedDataStore and the HTTP layer need from either side;
// AuthService lifetime is keyed on cloud availability (internal/config),
// not on backend mode, so flipping local<->cloud mode alone must not force
// a re-create.
package auth

import (
	"context"
	"errors"
)

// LocalUser is the frozen identity every LocalAuthService call returns. Any
// local-mode implementation must hand back exactly this value.
var LocalUser = User{ID: "local", Email: nil, IsAnonymous: true, DisplayName: "Local User"}

// User mirrors the AuthService user shape: { id, email|null, isAnonymous }.
type User struct {
	ID          string
	Email       *string
	IsAnonymous bool
	DisplayName string
}

// Session is the minimal bearer-token/expiry pair getSession and
// refreshSession hand back. Both implementations return it with both fields
// empty: CloudAuthService keeps the signed-in user but not the access token
// or its expiry, and LocalAuthService has nothing to present to a backend.
type Session struct {
	AccessToken string
	ExpiresAt   int64
}

var (
	ErrNotAuthenticated  = errors.New("auth: not authenticated")
	ErrInvalidCredential = errors.New("auth: invalid credentials")
	ErrSessionExpired    = errors.New("auth: session expired")
)

// Service is the AuthService contract. Both LocalAuthService and
// CloudAuthService satisfy it.
type Service interface {
	Initialize(ctx context.Context) error
	GetMode() Mode
	GetCurrentUser(ctx context.Context) (*User, error)
	IsAuthenticated(ctx context.Context) bool

	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error

	GetSession(ctx context.Context) (*Session, error)
	RefreshSession(ctx context.Context) (*Session, error)

	// OnAuthStateChange registers a listener invoked whenever the current
	// user changes (sign in, sign out, session revoked). It returns an
	// unsubscribe function, mirroring syncengine.Engine.OnStatusChange.
	OnAuthStateChange(fn func(*User)) func()
}

// Mode identifies which AuthService implementation is active.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)
