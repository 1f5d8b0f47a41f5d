package domain

import "errors"

// Shared validation sentinels. Stores wrap these into their own typed error
// taxonomy (see package errs) but the underlying cause is one of these.
var (
	ErrEmptyName             = errors.New("domain: name is empty")
	ErrNameTooLong           = errors.New("domain: name exceeds maximum length")
	ErrSeriesRequiresTournament = errors.New("domain: boundTournamentSeriesId requires boundTournamentId")
)
