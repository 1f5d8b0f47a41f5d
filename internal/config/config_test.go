package config

import (
	"context"
	"errors"
	"testing"

	"github.com/relentnet/matchops-sync/internal/kv"
)

// failingStore errors on every read so the fallthrough path is observable.
type failingStore struct {
	kv.Store
}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend unavailable")
}

func cloudEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CLOUD_ENDPOINT", "https://cloud.example")
	t.Setenv("CLOUD_PUBLIC_KEY", "pk_test")
}

func TestGetBackendModeDefaultsToLocal(t *testing.T) {
	t.Setenv("BACKEND_MODE", "")
	t.Setenv("CLOUD_ENDPOINT", "")
	t.Setenv("CLOUD_PUBLIC_KEY", "")

	r := New(kv.NewMemoryStore())
	if got := r.GetBackendMode(context.Background(), "u1"); got != ModeLocal {
		t.Fatalf("expected local default, got %s", got)
	}
}

func TestGetBackendModePreferenceOutranksProcessDefault(t *testing.T) {
	cloudEnv(t)
	t.Setenv("BACKEND_MODE", "cloud")

	r := New(kv.NewMemoryStore())
	ctx := context.Background()
	if err := r.SetMode(ctx, "u1", ModeLocal); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if got := r.GetBackendMode(ctx, "u1"); got != ModeLocal {
		t.Fatalf("expected the per-user preference to win, got %s", got)
	}
}

func TestGetBackendModeCloudPreferenceDowngradesWhenUnavailable(t *testing.T) {
	t.Setenv("BACKEND_MODE", "")
	t.Setenv("CLOUD_ENDPOINT", "")
	t.Setenv("CLOUD_PUBLIC_KEY", "")

	r := New(kv.NewMemoryStore())
	ctx := context.Background()
	if err := r.SetMode(ctx, "u1", ModeCloud); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if got := r.GetBackendMode(ctx, "u1"); got != ModeLocal {
		t.Fatalf("expected cloud preference to downgrade to local when cloud is unavailable, got %s", got)
	}
}

func TestGetBackendModeFallsThroughOnStorageFailure(t *testing.T) {
	cloudEnv(t)
	t.Setenv("BACKEND_MODE", "cloud")

	r := New(failingStore{})
	if got := r.GetBackendMode(context.Background(), "u1"); got != ModeCloud {
		t.Fatalf("expected a failed preference read to fall through to the process default, got %s", got)
	}
}

func TestEnableCloudFailsWhenUnavailable(t *testing.T) {
	t.Setenv("CLOUD_ENDPOINT", "")
	t.Setenv("CLOUD_PUBLIC_KEY", "")

	r := New(kv.NewMemoryStore())
	if err := r.EnableCloud(context.Background(), "u1"); err == nil {
		t.Fatalf("expected EnableCloud to fail without cloud configuration")
	}
}

func TestRefreshCloudAvailabilityReportsChange(t *testing.T) {
	t.Setenv("CLOUD_ENDPOINT", "")
	t.Setenv("CLOUD_PUBLIC_KEY", "")

	r := New(kv.NewMemoryStore())
	if r.CloudAvailable() {
		t.Fatalf("expected cloud to start unavailable")
	}

	cloudEnv(t)
	if !r.RefreshCloudAvailability() {
		t.Fatalf("expected availability change to be reported")
	}
	if !r.CloudAvailable() {
		t.Fatalf("expected cloud available after refresh")
	}
	if r.RefreshCloudAvailability() {
		t.Fatalf("expected no change on a second refresh")
	}
}
