package failcache

import (
	"fmt"
)

// PartialClearError reports a Clear that succeeded on one backend and failed
// on the other. It is logged once per occurrence and handed to hooks; Clear
// itself still returns a plain bool.
type PartialClearError struct {
	RemoteErr   error
	FallbackErr error
}

func (e *PartialClearError) Error() string {
	switch {
	case e.RemoteErr != nil && e.FallbackErr != nil:
		return fmt.Sprintf("clear failed on both backends: remote=%v; fallback=%v",
			e.RemoteErr, e.FallbackErr)
	case e.RemoteErr != nil:
		return fmt.Sprintf("clear: remote flush failed: %v", e.RemoteErr)
	case e.FallbackErr != nil:
		return fmt.Sprintf("clear: fallback clear failed: %v", e.FallbackErr)
	default:
		return "clear: unknown error"
	}
}

func (e *PartialClearError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.RemoteErr != nil {
		errs = append(errs, e.RemoteErr)
	}
	if e.FallbackErr != nil {
		errs = append(errs, e.FallbackErr)
	}
	return errs
}
