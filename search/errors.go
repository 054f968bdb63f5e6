package search

import "errors"

// Sentinel errors for the terminal search outcomes. Policy denials and
// blocks surface as Result statuses; the sentinels let callers that
// work with error chains classify them with errors.Is.
var (
	ErrBlocked     = errors.New("search: blocked")
	ErrRateLimited = errors.New("search: rate limited")
	ErrRoutePaused = errors.New("search: route paused")
)

// BlockedError reports a detected challenge or ban. It is terminal:
// the retry loop never retries past it and the route's breaker is fed
// a failure.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "search: blocked: " + e.Reason
}

func (e *BlockedError) Unwrap() error { return ErrBlocked }

// AsBlocked extracts a BlockedError from an error chain.
func AsBlocked(err error) (*BlockedError, bool) {
	var be *BlockedError
	ok := errors.As(err, &be)
	return be, ok
}
