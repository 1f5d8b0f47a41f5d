package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var _ Service = (*CloudAuthService)(nil)

const (
	jwksRefreshInterval  = time.Hour
	jwksRefreshRateLimit = 5 * time.Minute
	jwksRefreshTimeout   = 10 * time.Second
	tokenRequestTimeout  = 10 * time.Second
)

// CloudAuthService validates and mints tokens against Logto: JWKS-backed
// bearer-token validation for GetCurrentUser/IsAuthenticated, and the OIDC
// password grant for SignIn.
type CloudAuthService struct {
	endpoint   string // e.g. https://auth.example.com, no trailing slash
	appID      string
	appSecret  string
	httpClient *http.Client

	mu      sync.Mutex
	jwks    *keyfunc.JWKS
	current *User

	listenersMu sync.Mutex
	listeners   []func(*User)
}

// NewCloudAuthService reads LOGTO_ENDPOINT, LOGTO_APP_ID and
// LOGTO_APP_SECRET from the environment. Initialize must be called before
// any other method; it fetches the JWKS used to validate bearer tokens.
func NewCloudAuthService() *CloudAuthService {
	return &CloudAuthService{
		endpoint:   strings.TrimSuffix(os.Getenv("LOGTO_ENDPOINT"), "/"),
		appID:      os.Getenv("LOGTO_APP_ID"),
		appSecret:  os.Getenv("LOGTO_APP_SECRET"),
		httpClient: &http.Client{Timeout: tokenRequestTimeout},
	}
}

func (s *CloudAuthService) Initialize(ctx context.Context) error {
	if s.endpoint == "" {
		return fmt.Errorf("auth: LOGTO_ENDPOINT not set")
	}
	jwks, err := keyfunc.Get(s.endpoint+"/oidc/jwks", keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("[Auth] JWKS refresh failed: %v", err)
		},
		RefreshInterval:   jwksRefreshInterval,
		RefreshRateLimit:  jwksRefreshRateLimit,
		RefreshTimeout:    jwksRefreshTimeout,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return fmt.Errorf("auth: fetch JWKS from %s: %w", s.endpoint, err)
	}
	s.mu.Lock()
	s.jwks = jwks
	s.mu.Unlock()
	return nil
}

func (s *CloudAuthService) GetMode() Mode { return ModeCloud }

// validateToken parses and validates a bearer token against the cached
// JWKS, returning the subject and display claims. Request-scoped
// issuer/audience checks belong to the HTTP middleware layer, not this
// service.
func (s *CloudAuthService) validateToken(tokenString string) (*User, error) {
	s.mu.Lock()
	jwks := s.jwks
	s.mu.Unlock()
	if jwks == nil {
		return nil, fmt.Errorf("auth: not initialized")
	}

	token, err := jwt.Parse(tokenString, jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("auth: token parse failed: %w", err)
	}
	if !token.Valid {
		return nil, ErrSessionExpired
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("auth: token missing sub claim")
	}

	u := &User{ID: sub, IsAnonymous: false}
	if email, ok := claims["email"].(string); ok && email != "" {
		u.Email = &email
	}
	if name, ok := claims["name"].(string); ok {
		u.DisplayName = name
	}
	return u, nil
}

// SetCurrentSession records the user resolved from an inbound request's
// bearer token, so GetCurrentUser/IsAuthenticated reflect the request that
// is driving this service instance. The HTTP layer calls this once per
// request after validating the Authorization header.
func (s *CloudAuthService) SetCurrentSession(tokenString string) (*User, error) {
	u, err := s.validateToken(tokenString)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	s.notify(u)
	return u, nil
}

func (s *CloudAuthService) GetCurrentUser(ctx context.Context) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNotAuthenticated
	}
	u := *s.current
	return &u, nil
}

func (s *CloudAuthService) IsAuthenticated(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

type logtoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

func (s *CloudAuthService) requestToken(form url.Values) (*Session, error) {
	req, err := http.NewRequest(http.MethodPost, s.endpoint+"/oidc/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("auth: build token request: %w", err)
	}
	req.SetBasicAuth(s.appID, s.appSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var tr logtoTokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("auth: parse token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if tr.Error == "invalid_grant" {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("auth: token endpoint returned %d: %s", resp.StatusCode, tr.ErrorDesc)
	}

	return &Session{
		AccessToken: tr.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second).Unix(),
	}, nil
}

// SignIn exchanges email/password for a token via Logto's OIDC password
// grant, then validates the returned token to populate the current user.
func (s *CloudAuthService) SignIn(ctx context.Context, email, password string) (*User, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", email)
	form.Set("password", password)
	form.Set("scope", "openid profile email offline_access")

	session, err := s.requestToken(form)
	if err != nil {
		return nil, err
	}
	return s.SetCurrentSession(session.AccessToken)
}

// SignUp is not implemented against Logto's Management API from inside the
// sync service: account creation happens through Logto's own hosted sign-up
// flow. A caller that already has an account should use SignIn.
func (s *CloudAuthService) SignUp(ctx context.Context, email, password string) (*User, error) {
	return nil, fmt.Errorf("auth: sign-up must go through Logto's hosted flow, not this API")
}

func (s *CloudAuthService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.notify(nil)
	return nil
}

// ResetPassword is also delegated to Logto's hosted account-recovery flow.
func (s *CloudAuthService) ResetPassword(ctx context.Context, email string) error {
	return fmt.Errorf("auth: password reset must go through Logto's hosted flow, not this API")
}

func (s *CloudAuthService) GetSession(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNotAuthenticated
	}
	return &Session{}, nil
}

// RefreshSession does not contact the token endpoint: it returns what
// GetSession returns. No refresh_token grant is requested anywhere in this
// service or in the HTTP layer.
func (s *CloudAuthService) RefreshSession(ctx context.Context) (*Session, error) {
	return s.GetSession(ctx)
}

func (s *CloudAuthService) OnAuthStateChange(fn func(*User)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = func(*User) {}
		}
	}
}

func (s *CloudAuthService) notify(u *User) {
	s.listenersMu.Lock()
	listeners := append([]func(*User){}, s.listeners...)
	s.listenersMu.Unlock()
	go func() {
		for _, l := range listeners {
			l(u)
		}
	}()
}
