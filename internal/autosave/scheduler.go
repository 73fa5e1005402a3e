package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/nodetec/notestack-sub002/internal/logger"
)

// SaveState is the visible autosave status of a draft.
type SaveState string

const (
	StateIdle    SaveState = "idle"
	StateUnsaved SaveState = "unsaved"
	StateSaving  SaveState = "saving"
	StateSaved   SaveState = "saved"
)

// Writer persists a draft's content. The draft service implements it;
// no network I/O happens behind it.
type Writer interface {
	WriteDraft(ctx context.Context, draftID, content string) error
}

// Scheduler debounces editor content changes into the durable store.
// Byte-identical content per draft is ignored so no-op re-renders never
// cause writes. At most one debounce timer is pending at a time: a new
// change cancels and restarts it, so only the latest change is written.
type Scheduler struct {
	mu       sync.Mutex
	writer   Writer
	logger   logger.Logger
	debounce time.Duration
	display  time.Duration

	lastSeen map[string]string
	states   map[string]SaveState

	timer          *time.Timer
	pendingDraft   string
	pendingContent string
}

// NewScheduler creates an autosave scheduler. debounce is the quiet
// window after the last change (reference: 500ms); display is how long
// the "saved" state is shown before returning to idle (reference: 2s).
func NewScheduler(w Writer, log logger.Logger, debounce, display time.Duration) *Scheduler {
	return &Scheduler{
		writer:   w,
		logger:   log,
		debounce: debounce,
		display:  display,
		lastSeen: make(map[string]string),
		states:   make(map[string]SaveState),
	}
}

// Schedule registers a content change for the draft. Unchanged content is
// ignored; a genuine change marks the draft unsaved and (re)starts the
// debounce timer.
func (s *Scheduler) Schedule(draftID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSeen[draftID]; ok && last == content {
		return
	}
	s.lastSeen[draftID] = content
	s.states[draftID] = StateUnsaved

	s.pendingDraft = draftID
	s.pendingContent = content

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

// SetActive resets the last-seen tracking when the editor switches
// drafts, so the first change on a newly opened draft is never
// suppressed by a stale entry.
func (s *Scheduler) SetActive(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.lastSeen, draftID)
	if _, ok := s.states[draftID]; !ok {
		s.states[draftID] = StateIdle
	}
}

// State returns the draft's save state, idle if the draft is unknown.
func (s *Scheduler) State(draftID string) SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[draftID]; ok {
		return st
	}
	return StateIdle
}

// Flush writes any pending change immediately, bypassing the debounce.
// Used on shutdown so a fast exit never loses the last keystrokes.
func (s *Scheduler) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.timer == nil || !s.timer.Stop() {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.fire()
	_ = ctx
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	draftID := s.pendingDraft
	content := s.pendingContent
	if draftID == "" {
		s.mu.Unlock()
		return
	}
	s.pendingDraft = ""
	s.pendingContent = ""
	s.states[draftID] = StateSaving
	s.mu.Unlock()

	err := s.writer.WriteDraft(context.Background(), draftID, content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Error("autosave write failed",
			logger.String("draft_id", draftID),
			logger.Error(err))
		// Leave the draft unsaved; the next change retries.
		s.states[draftID] = StateUnsaved
		delete(s.lastSeen, draftID)
		return
	}

	// A newer change may have arrived while the write ran; it owns the
	// state now.
	if s.lastSeen[draftID] != content {
		return
	}

	s.states[draftID] = StateSaved
	s.logger.Debug("draft autosaved",
		logger.String("draft_id", draftID),
		logger.Int("bytes", len(content)))

	time.AfterFunc(s.display, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Only fall back to idle if nothing happened since the save.
		if s.states[draftID] == StateSaved {
			s.states[draftID] = StateIdle
		}
	})
}
