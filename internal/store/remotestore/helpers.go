package remotestore

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const maxNameLen = 100

var errNoRows = pgx.ErrNoRows

// timeValue scans a Postgres timestamptz into a time.Time and renders it the
// same RFC3339Nano shape LocalDataStore uses, so callers of the DataStore
// contract see one timestamp format regardless of backend.
type timeValue struct {
	t time.Time
}

func (v *timeValue) Scan(value any) error {
	switch val := value.(type) {
	case time.Time:
		v.t = val
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("timeValue: unsupported scan type %T", value)
	}
}

func (v timeValue) Value() (driver.Value, error) {
	return v.t, nil
}

func (v timeValue) String() string {
	if v.t.IsZero() {
		return ""
	}
	return v.t.UTC().Format(time.RFC3339Nano)
}

// isNoRows reports whether err represents pgx's "no matching row" result —
// used to turn a missing update/lookup target into the contract's (nil, nil)
// rather than a thrown error.
func isNoRows(err error) bool {
	return errors.Is(err, errNoRows)
}

// parseTimeOrNow parses an RFC3339Nano timestamp captured from a prior
// Snapshot; a blank or unparseable value falls back to the current time
// rather than failing a restore over a cosmetic timestamp.
func parseTimeOrNow(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
