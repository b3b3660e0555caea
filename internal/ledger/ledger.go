// Package ledger tracks the decided status of every paper identity within a
// single run, preventing re-querying and re-deciding.
package ledger

import (
	"fmt"
	"sync"

	"github.com/mlindgren/litsurvey/internal/model"
)

// StatusConflictError reports an attempt to overwrite an already-decided
// status with an incompatible one. A paper's fate is decided once.
type StatusConflictError struct {
	ID       string
	Existing model.PaperStatus
	Proposed model.PaperStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("ledger: paper %s already recorded as %s, cannot record %s",
		e.ID, e.Existing, e.Proposed)
}

// Ledger is the per-run record of paper identities and their statuses.
// All methods are safe for concurrent use; the single mutex is the only
// write path the rest of the pipeline relies on.
type Ledger struct {
	mu       sync.Mutex
	statuses map[string]model.PaperStatus
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{statuses: make(map[string]model.PaperStatus)}
}

// Seen reports whether the identity has already been recorded.
func (l *Ledger) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.statuses[id]
	return ok
}

// Record stores the status for an identity. Recording the same status twice
// is a no-op. The only overwrite the data model allows is Accepted to
// IngestFailed (full-text retrieval or parsing failed after acceptance);
// every other change is a StatusConflictError.
func (l *Ledger) Record(id string, status model.PaperStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.statuses[id]
	if !ok {
		l.statuses[id] = status
		return nil
	}
	if existing == status {
		return nil
	}
	if existing == model.StatusAccepted && status == model.StatusIngestFailed {
		l.statuses[id] = status
		return nil
	}
	return &StatusConflictError{ID: id, Existing: existing, Proposed: status}
}

// Status returns the recorded status for an identity.
func (l *Ledger) Status(id string) (model.PaperStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.statuses[id]
	return s, ok
}

// Count returns how many identities hold the given status.
func (l *Ledger) Count(status model.PaperStatus) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.statuses {
		if s == status {
			n++
		}
	}
	return n
}

// Len returns the total number of recorded identities.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.statuses)
}
