package matching

import "errors"

var (
	// ErrDataUnavailable wraps profile store / block list fetch failures.
	// Callers must not substitute an empty result for it.
	ErrDataUnavailable = errors.New("matching data unavailable")

	// ErrNoPreferenceSet marks a user without a genders-sought preference.
	// It is an explicit "setup incomplete" outcome, not a failure.
	ErrNoPreferenceSet = errors.New("no match preference set")

	// ErrMatchNotFound marks a viewed/liked call against an expired or
	// unknown daily match. Handled as a logged no-op.
	ErrMatchNotFound = errors.New("daily match not found")
)
