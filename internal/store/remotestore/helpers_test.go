package remotestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/relentnet/matchops-sync/internal/errs"
)

func TestClassifyPgError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want errs.Code
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, errs.Conflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errs.AlreadyExists},
		{"query cancelled", &pgconn.PgError{Code: "57014"}, errs.RateLimited},
		{"too many connections", &pgconn.PgError{Code: "53300"}, errs.RateLimited},
		{"deadline", context.DeadlineExceeded, errs.Network},
		{"cancelled", context.Canceled, errs.Network},
		{"unknown", errors.New("boom"), errs.Backend},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyPgError(tc.err)
			if got == nil || got.Code != tc.want {
				t.Fatalf("classifyPgError(%v) = %v, want code %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyPgErrorPreservesAlreadyTypedErrors(t *testing.T) {
	typed := errs.New(errs.Validation, "bad name")
	got := classifyPgError(typed)
	if got != typed {
		t.Fatalf("expected an already-typed error to pass through unchanged, got %v", got)
	}
}

func TestNullableAndDenullRoundTrip(t *testing.T) {
	if nullable("") != nil {
		t.Fatalf("expected empty string to map to nil")
	}
	if nullable("season-1") != "season-1" {
		t.Fatalf("expected non-empty string to pass through")
	}
	if denull(nil) != "" {
		t.Fatalf("expected nil to map back to empty string")
	}
	s := "season-1"
	if denull(&s) != "season-1" {
		t.Fatalf("expected pointer value to round-trip")
	}
}

func TestTimeValueString(t *testing.T) {
	var zero timeValue
	if zero.String() != "" {
		t.Fatalf("expected zero time to render empty, got %q", zero.String())
	}

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	v := timeValue{t: at}
	if v.String() != "2026-03-14T09:26:53Z" {
		t.Fatalf("unexpected rendering: %q", v.String())
	}
}

func TestWithRetryStopsOnNonTransientError(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, &pgconn.PgError{Code: "40001"}
	})
	if !errs.Is(err, errs.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a non-transient failure to not be retried, got %d calls", calls)
	}
}

func TestWithRetryRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	got, err := withRetry(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient blip")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected eventual success, got %q err %v", got, err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
}

func TestWithRetryRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := withRetry(ctx, func(context.Context) (struct{}, error) {
		t.Fatal("fn must not run on a cancelled context")
		return struct{}{}, nil
	})
	if !errs.Is(err, errs.Network) {
		t.Fatalf("expected Network classification for a cancelled context, got %v", err)
	}
}
