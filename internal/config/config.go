// Package config resolves the effective backend mode: per-user
// preference stored in KV, falling back to a process-level flag, falling
// back to "local". Cloud availability is a separate capability that gates
// the "cloud" mode and independently controls AuthService lifetime.
package config

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/relentnet/matchops-sync/internal/kv"
)

// Mode is the effective backend selection.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

// PreferenceKey is the KV key a per-user mode preference is stored under.
const PreferenceKey = "matchops_backend_mode"

// Resolver resolves the effective backend mode for a user and tracks cloud
// availability so callers can decide whether AuthService needs re-creation.
type Resolver struct {
	store          kv.Store
	processDefault Mode
	cloudAvailable bool
}

// New builds a Resolver. processDefault comes from the BACKEND_MODE env var
// (falling back to "local"); cloudAvailable comes from the presence of
// CLOUD_ENDPOINT and CLOUD_PUBLIC_KEY.
func New(store kv.Store) *Resolver {
	return &Resolver{
		store:          store,
		processDefault: processModeFromEnv(),
		cloudAvailable: IsCloudAvailable(),
	}
}

func processModeFromEnv() Mode {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("BACKEND_MODE"))) {
	case "cloud":
		return ModeCloud
	default:
		return ModeLocal
	}
}

// IsCloudAvailable reports whether CLOUD_ENDPOINT and CLOUD_PUBLIC_KEY are
// both set — the sole determinant of cloud capability.
func IsCloudAvailable() bool {
	return os.Getenv("CLOUD_ENDPOINT") != "" && os.Getenv("CLOUD_PUBLIC_KEY") != ""
}

type storedPreference struct {
	Mode Mode `json:"mode"`
}

// GetBackendMode resolves the effective mode for a user. Any KV read failure
// falls through to the lower-priority source rather than propagating an
// error; mode resolution never fails outright.
func (r *Resolver) GetBackendMode(ctx context.Context, userID string) Mode {
	if pref, ok := r.readPreference(ctx, userID); ok {
		if pref == ModeCloud && !r.cloudAvailable {
			return ModeLocal
		}
		return pref
	}
	if r.processDefault == ModeCloud && !r.cloudAvailable {
		return ModeLocal
	}
	return r.processDefault
}

func (r *Resolver) readPreference(ctx context.Context, userID string) (Mode, bool) {
	raw, found, err := r.store.Get(ctx, preferenceKeyFor(userID))
	if err != nil {
		log.Printf("[Config] Failed to read backend mode preference for %s: %v", userID, err)
		return "", false
	}
	if !found {
		return "", false
	}
	var pref storedPreference
	if err := json.Unmarshal(raw, &pref); err != nil {
		log.Printf("[Config] Corrupt backend mode preference for %s: %v", userID, err)
		return "", false
	}
	if pref.Mode != ModeLocal && pref.Mode != ModeCloud {
		return "", false
	}
	return pref.Mode, true
}

func preferenceKeyFor(userID string) string {
	return PreferenceKey + ":" + userID
}

// EnableCloud persists a per-user "cloud" preference. It fails if cloud is
// not available; it never deletes local data.
func (r *Resolver) EnableCloud(ctx context.Context, userID string) error {
	if !r.cloudAvailable {
		return errCloudUnavailable
	}
	return r.setPreference(ctx, userID, ModeCloud)
}

// SetMode persists an explicit per-user mode preference (used for reverting
// to local mode; never deletes local data).
func (r *Resolver) SetMode(ctx context.Context, userID string, mode Mode) error {
	return r.setPreference(ctx, userID, mode)
}

func (r *Resolver) setPreference(ctx context.Context, userID string, mode Mode) error {
	data, err := json.Marshal(storedPreference{Mode: mode})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, preferenceKeyFor(userID), data)
}

// CloudAvailable reports the resolver's cached cloud-availability capability.
func (r *Resolver) CloudAvailable() bool { return r.cloudAvailable }

// RefreshCloudAvailability re-reads env and reports whether availability
// changed — callers use this to decide whether AuthService must be
// re-created. AuthService lifetime is keyed on cloud availability, never on
// the mode alone.
func (r *Resolver) RefreshCloudAvailability() (changed bool) {
	current := IsCloudAvailable()
	changed = current != r.cloudAvailable
	r.cloudAvailable = current
	return changed
}
