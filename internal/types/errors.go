package types

import "errors"

// Boundary failures surfaced to callers. Store-internal conditions
// (duplicate IDs, missing anchors, aged-out references) are resolved with
// fallback behavior and never reach these.
var (
	// ErrCapacityExceeded rejects adding or reopening a conversation when
	// the active limit is already reached.
	ErrCapacityExceeded = errors.New("too many active conversations")

	// ErrSourceUnavailable rejects a connect or reopen whose origin is no
	// longer live.
	ErrSourceUnavailable = errors.New("source is not live")

	// ErrFetchFailed wraps a persistence or network failure on a
	// historical page request.
	ErrFetchFailed = errors.New("history fetch failed")

	// ErrInvalidReference marks navigation against an ID absent from the
	// bounded buffer. Callers fall back gracefully instead of surfacing it.
	ErrInvalidReference = errors.New("message not in buffer")
)
