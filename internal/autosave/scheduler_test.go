package autosave

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nodetec/notestack-sub002/internal/logger"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes []string
}

func (w *recordingWriter) WriteDraft(_ context.Context, _ string, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, content)
	return nil
}

func (w *recordingWriter) all() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.writes...)
}

func TestSchedulerDebouncesToSingleWrite(t *testing.T) {
	w := &recordingWriter{}
	s := NewScheduler(w, logger.New("error", false), 30*time.Millisecond, 20*time.Millisecond)

	// Three changes within the debounce window: one write, last content.
	s.Schedule("d1", "a")
	s.Schedule("d1", "ab")
	s.Schedule("d1", "abc")

	time.Sleep(100 * time.Millisecond)

	writes := w.all()
	if len(writes) != 1 {
		t.Fatalf("expected exactly 1 write, got %d: %v", len(writes), writes)
	}
	if writes[0] != "abc" {
		t.Errorf("expected final content %q, got %q", "abc", writes[0])
	}
}

func TestSchedulerIgnoresIdenticalContent(t *testing.T) {
	w := &recordingWriter{}
	s := NewScheduler(w, logger.New("error", false), 20*time.Millisecond, 20*time.Millisecond)

	s.Schedule("d1", "same")
	time.Sleep(60 * time.Millisecond)
	// Re-render with identical bytes: no new timer, no new write.
	s.Schedule("d1", "same")
	time.Sleep(60 * time.Millisecond)

	if got := len(w.all()); got != 1 {
		t.Errorf("expected 1 write, got %d", got)
	}
}

func TestSchedulerSetActiveResetsTracking(t *testing.T) {
	w := &recordingWriter{}
	s := NewScheduler(w, logger.New("error", false), 20*time.Millisecond, 20*time.Millisecond)

	s.Schedule("d1", "same")
	time.Sleep(60 * time.Millisecond)

	// Reopening the draft resets tracking; the same bytes write again.
	s.SetActive("d1")
	s.Schedule("d1", "same")
	time.Sleep(60 * time.Millisecond)

	if got := len(w.all()); got != 2 {
		t.Errorf("expected 2 writes after reopen, got %d", got)
	}
}

func TestSchedulerStateTransitions(t *testing.T) {
	w := &recordingWriter{}
	s := NewScheduler(w, logger.New("error", false), 20*time.Millisecond, 30*time.Millisecond)

	if got := s.State("d1"); got != StateIdle {
		t.Errorf("unknown draft state = %q, want idle", got)
	}

	s.Schedule("d1", "a")
	if got := s.State("d1"); got != StateUnsaved {
		t.Errorf("state after change = %q, want unsaved", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := s.State("d1"); got != StateSaved {
		t.Errorf("state after debounce = %q, want saved", got)
	}

	time.Sleep(50 * time.Millisecond)
	if got := s.State("d1"); got != StateIdle {
		t.Errorf("state after display window = %q, want idle", got)
	}
}

func TestSchedulerFlushWritesPending(t *testing.T) {
	w := &recordingWriter{}
	s := NewScheduler(w, logger.New("error", false), 10*time.Second, 20*time.Millisecond)

	s.Schedule("d1", "about to exit")
	s.Flush(context.Background())

	writes := w.all()
	if len(writes) != 1 || writes[0] != "about to exit" {
		t.Errorf("Flush did not write the pending change: %v", writes)
	}
}
