package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recoveryAdvisory is deliberately uncertain: the interrupted command may
// have reached the backend before the crash, so it must not claim the
// work was lost.
const recoveryAdvisory = "The previous session ended while a request was being processed. It may or may not have completed; please review your recent activity."

// ConversationState is the durable conversation transcript plus the
// processing marker used for crash recovery.
type ConversationState struct {
	Entries       []domain.ConversationEntry
	WasProcessing bool
}

// Journal persists the coaching conversation across sessions, including
// an advisory entry when a prior session ended mid-request.
type Journal struct {
	store ports.StateStore
	clock ports.Clock
	log   *zap.Logger

	mu sync.Mutex
}

func NewJournal(store ports.StateStore, clock ports.Clock, log *zap.Logger) *Journal {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{store: store, clock: clock, log: log}
}

// Load reads the persisted conversation. When the stored processing marker
// is set, a request was in flight when the previous session died: pending
// entries are dropped, a single advisory entry is appended, and the
// cleaned state is persisted before returning.
func (j *Journal) Load(ctx context.Context) (ConversationState, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.loadLocked(ctx)
	if err != nil {
		return ConversationState{}, err
	}

	if !state.WasProcessing {
		return state, nil
	}

	j.log.Info("recovering interrupted conversation",
		zap.Int("entries", len(state.Entries)))

	kept := state.Entries[:0]
	for _, entry := range state.Entries {
		if entry.Pending {
			continue
		}
		kept = append(kept, entry)
	}
	state.Entries = append(kept, domain.ConversationEntry{
		ID:        uuid.NewString(),
		Text:      recoveryAdvisory,
		Sender:    domain.SenderSystem,
		Timestamp: j.clock.Now(),
	})
	state.WasProcessing = false

	if err := j.persistLocked(ctx, state); err != nil {
		return ConversationState{}, err
	}

	return state, nil
}

// Append adds one entry to the transcript.
func (j *Journal) Append(ctx context.Context, entry domain.ConversationEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.loadLocked(ctx)
	if err != nil {
		return err
	}
	state.Entries = append(state.Entries, entry)

	return j.persistLocked(ctx, state)
}

// ReplacePending swaps every pending entry for the given final entries and
// clears the processing marker, all in one write.
func (j *Journal) ReplacePending(ctx context.Context, final ...domain.ConversationEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.loadLocked(ctx)
	if err != nil {
		return err
	}

	kept := state.Entries[:0]
	for _, entry := range state.Entries {
		if entry.Pending {
			continue
		}
		kept = append(kept, entry)
	}
	state.Entries = append(kept, final...)
	state.WasProcessing = false

	return j.persistLocked(ctx, state)
}

// MarkProcessing records whether a request is currently in flight. The
// marker is advisory: it only ever influences the advisory entry on the
// next Load, never the transcript itself.
func (j *Journal) MarkProcessing(ctx context.Context, processing bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.loadLocked(ctx)
	if err != nil {
		return err
	}
	state.WasProcessing = processing

	return j.persistLocked(ctx, state)
}

// Clear removes the persisted conversation entirely.
func (j *Journal) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.store.Delete(ctx, StateKeyJournal); err != nil && !errors.Is(err, domain.ErrStateKeyMissing) {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

func (j *Journal) loadLocked(ctx context.Context) (ConversationState, error) {
	raw, err := j.store.Get(ctx, StateKeyJournal)
	if errors.Is(err, domain.ErrStateKeyMissing) {
		return ConversationState{}, nil
	}
	if err != nil {
		return ConversationState{}, fmt.Errorf("load journal: %w", err)
	}

	var payload journalPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// A corrupt journal is not worth failing the session over; start
		// over with an empty transcript.
		j.log.Warn("discarding unreadable journal", zap.Error(err))
		return ConversationState{}, nil
	}

	return payload.toState(), nil
}

func (j *Journal) persistLocked(ctx context.Context, state ConversationState) error {
	raw, err := json.Marshal(newJournalPayload(state))
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	if err := j.store.Put(ctx, StateKeyJournal, string(raw)); err != nil {
		return fmt.Errorf("persist journal: %w", err)
	}
	return nil
}

type journalPayload struct {
	Entries       []journalEntryPayload `json:"entries"`
	WasProcessing bool                  `json:"was_processing"`
}

type journalEntryPayload struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	Pending   bool   `json:"pending,omitempty"`
}

func newJournalPayload(state ConversationState) journalPayload {
	payload := journalPayload{
		Entries:       make([]journalEntryPayload, 0, len(state.Entries)),
		WasProcessing: state.WasProcessing,
	}
	for _, entry := range state.Entries {
		payload.Entries = append(payload.Entries, journalEntryPayload{
			ID:        entry.ID,
			Text:      entry.Text,
			Sender:    string(entry.Sender),
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
			Pending:   entry.Pending,
		})
	}
	return payload
}

func (p journalPayload) toState() ConversationState {
	state := ConversationState{
		Entries:       make([]domain.ConversationEntry, 0, len(p.Entries)),
		WasProcessing: p.WasProcessing,
	}
	for _, entry := range p.Entries {
		ts, _ := time.Parse(time.RFC3339Nano, entry.Timestamp)
		state.Entries = append(state.Entries, domain.ConversationEntry{
			ID:        entry.ID,
			Text:      entry.Text,
			Sender:    domain.Sender(entry.Sender),
			Timestamp: ts,
			Pending:   entry.Pending,
		})
	}
	return state
}
