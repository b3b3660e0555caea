package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/mlindgren/litsurvey/internal/model"
)

func TestRecordAndSeen(t *testing.T) {
	l := New()

	if l.Seen("p1") {
		t.Error("expected p1 to be unseen in a fresh ledger")
	}

	if err := l.Record("p1", model.StatusAccepted); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !l.Seen("p1") {
		t.Error("expected p1 to be seen after recording")
	}

	status, ok := l.Status("p1")
	if !ok || status != model.StatusAccepted {
		t.Errorf("expected accepted status, got %v (ok=%v)", status, ok)
	}
}

func TestRecordIdempotent(t *testing.T) {
	l := New()

	if err := l.Record("p1", model.StatusRejected); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := l.Record("p1", model.StatusRejected); err != nil {
		t.Errorf("recording the same status twice should be a no-op, got %v", err)
	}
}

func TestRecordConflict(t *testing.T) {
	l := New()

	if err := l.Record("p1", model.StatusRejected); err != nil {
		t.Fatalf("record: %v", err)
	}

	err := l.Record("p1", model.StatusAccepted)
	if err == nil {
		t.Fatal("expected a conflict error when flipping rejected to accepted")
	}
	var conflict *StatusConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StatusConflictError, got %T", err)
	}
	if conflict.ID != "p1" {
		t.Errorf("expected conflict to name p1, got %s", conflict.ID)
	}

	// The original status must survive the rejected write.
	status, _ := l.Status("p1")
	if status != model.StatusRejected {
		t.Errorf("expected status to remain rejected, got %v", status)
	}
}

func TestAcceptedToIngestFailedAllowed(t *testing.T) {
	l := New()

	if err := l.Record("p1", model.StatusAccepted); err != nil {
		t.Fatalf("record accepted: %v", err)
	}
	if err := l.Record("p1", model.StatusIngestFailed); err != nil {
		t.Fatalf("accepted -> ingest_failed should be allowed, got %v", err)
	}

	status, _ := l.Status("p1")
	if status != model.StatusIngestFailed {
		t.Errorf("expected ingest_failed, got %v", status)
	}

	// But the reverse is not a legal transition.
	if err := l.Record("p1", model.StatusAccepted); err == nil {
		t.Error("ingest_failed -> accepted should be rejected")
	}
}

func TestCount(t *testing.T) {
	l := New()
	_ = l.Record("a", model.StatusAccepted)
	_ = l.Record("b", model.StatusAccepted)
	_ = l.Record("c", model.StatusRejected)

	if got := l.Count(model.StatusAccepted); got != 2 {
		t.Errorf("expected 2 accepted, got %d", got)
	}
	if got := l.Len(); got != 3 {
		t.Errorf("expected 3 total, got %d", got)
	}
}

func TestConcurrentRecords(t *testing.T) {
	l := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%10))
			status := model.StatusAccepted
			if n%2 == 0 {
				status = model.StatusRejected
			}
			_ = l.Record(id, status)
		}(i)
	}
	wg.Wait()

	// Whatever won each race, every identity must hold exactly one status.
	if l.Len() != 10 {
		t.Errorf("expected 10 identities, got %d", l.Len())
	}
}
