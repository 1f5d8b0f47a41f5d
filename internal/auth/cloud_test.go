package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testIdentityProvider fakes just enough of Logto's OIDC surface
// (/oidc/jwks, /oidc/token) to exercise CloudAuthService without a network
// dependency: one RSA keypair, one JWKS document, and a token endpoint that
// signs a JWT for whatever username is posted (rejecting "baduser" to
// exercise the invalid-credential path).
type testIdentityProvider struct {
	key *rsa.PrivateKey
	kid string
	srv *httptest.Server
}

func newTestIdentityProvider(t *testing.T) *testIdentityProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := &testIdentityProvider{key: key, kid: "test-key-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/oidc/jwks", p.serveJWKS)
	mux.HandleFunc("/oidc/token", p.serveToken)
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func b64url(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func (p *testIdentityProvider) serveJWKS(w http.ResponseWriter, r *http.Request) {
	n := b64url(p.key.PublicKey.N.Bytes())
	e := b64url([]byte{0x01, 0x00, 0x01}) // 65537
	jwks := map[string]any{
		"keys": []map[string]any{
			{"kty": "RSA", "kid": p.kid, "use": "sig", "alg": "RS256", "n": n, "e": e},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jwks)
}

func (p *testIdentityProvider) serveToken(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	username := r.Form.Get("username")
	if username == "baduser@example.com" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "invalid username or password",
		})
		return
	}

	email := username
	claims := jwt.MapClaims{
		"sub":   "user-" + username,
		"email": email,
		"name":  "Test User",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = p.kid
	signed, err := token.SignedString(p.key)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": signed,
		"expires_in":   3600,
	})
}

func newTestCloudAuthService(t *testing.T, p *testIdentityProvider) *CloudAuthService {
	t.Helper()
	s := &CloudAuthService{
		endpoint:   p.srv.URL,
		appID:      "test-app",
		appSecret:  "test-secret",
		httpClient: p.srv.Client(),
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func TestCloudAuthServiceSignInValidatesAndPopulatesCurrentUser(t *testing.T) {
	ctx := context.Background()
	p := newTestIdentityProvider(t)
	s := newTestCloudAuthService(t, p)

	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected not authenticated before SignIn")
	}

	u, err := s.SignIn(ctx, "alex@example.com", "correct horse battery staple")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if u.ID != "user-alex@example.com" {
		t.Fatalf("unexpected user id: %+v", u)
	}
	if u.Email == nil || *u.Email != "alex@example.com" {
		t.Fatalf("expected email claim to populate Email, got %+v", u)
	}
	if u.IsAnonymous {
		t.Fatalf("expected cloud user to not be anonymous")
	}

	if !s.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated after SignIn")
	}
	current, err := s.GetCurrentUser(ctx)
	if err != nil || current.ID != u.ID {
		t.Fatalf("expected GetCurrentUser to match the signed-in user, got %+v (err %v)", current, err)
	}
}

func TestCloudAuthServiceSignInRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	p := newTestIdentityProvider(t)
	s := newTestCloudAuthService(t, p)

	_, err := s.SignIn(ctx, "baduser@example.com", "wrong")
	if err != ErrInvalidCredential {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected a failed sign-in to leave the service unauthenticated")
	}
}

func TestCloudAuthServiceSignOutClearsCurrentUser(t *testing.T) {
	ctx := context.Background()
	p := newTestIdentityProvider(t)
	s := newTestCloudAuthService(t, p)

	if _, err := s.SignIn(ctx, "alex@example.com", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected SignOut to clear authentication")
	}
	if _, err := s.GetCurrentUser(ctx); err != ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated after sign-out, got %v", err)
	}
}

func TestCloudAuthServiceOnAuthStateChangeFiresOnSignInAndSignOut(t *testing.T) {
	ctx := context.Background()
	p := newTestIdentityProvider(t)
	s := newTestCloudAuthService(t, p)

	events := make(chan *User, 4)
	unsubscribe := s.OnAuthStateChange(func(u *User) { events <- u })
	defer unsubscribe()

	if _, err := s.SignIn(ctx, "alex@example.com", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	select {
	case u := <-events:
		if u == nil || u.ID != "user-alex@example.com" {
			t.Fatalf("expected sign-in event with the new user, got %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for sign-in auth state event")
	}

	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	select {
	case u := <-events:
		if u != nil {
			t.Fatalf("expected sign-out event with a nil user, got %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for sign-out auth state event")
	}
}
