package search

import "fmt"

// ProviderUnavailableError is returned when the search provider could not be
// reached after exhausting the retry budget. The retrieval loop treats it as
// fatal for the run.
type ProviderUnavailableError struct {
	Attempts int
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("search provider unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// transientError marks a failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	_, ok := err.(*transientError)
	return ok
}
