package oncology

import "errors"

// Policy violations are surfaced before any SQL is built, so callers can
// tell "you asked for something not allowed" apart from storage failures.
var (
	// ErrColumnNotAllowed means an update named a column outside the
	// allowlist. The update is rejected whole; nothing is applied.
	ErrColumnNotAllowed = errors.New("column not in allowlist")

	// ErrNoColumns means allowlist filtering left an insert with nothing
	// to write.
	ErrNoColumns = errors.New("no valid columns to insert")

	// ErrTooManyKeys means a settings lookup exceeded the key ceiling.
	ErrTooManyKeys = errors.New("too many setting keys")

	// ErrBadSettingKey means a settings key failed the identifier pattern.
	ErrBadSettingKey = errors.New("invalid setting key")
)

// ErrNoInsertID signals that the storage engine reported a successful
// insert but yielded no row id — an engine contract breach, not an
// ordinary storage error.
var ErrNoInsertID = errors.New("insert succeeded but no row id was returned")
