// File path: internal/store/store.go
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/model"
)

// Persistence is the durable slot the store reads and writes AppState
// through. Save is expected to no-op (returning a zero time) when auto-save
// is disabled or the user id is empty.
type Persistence interface {
	Load(ctx context.Context, userID string) (model.AppState, error)
	Save(ctx context.Context, userID string, state model.AppState) (time.Time, error)
	SetAutoSave(ctx context.Context, userID string, enabled bool) error
}

// Snapshotter captures a full copy of the state before risky mutations.
type Snapshotter interface {
	Snapshot(ctx context.Context, userID string, state model.AppState, description string) error
}

// Store owns one user's live AppState and is the complete write API over it.
// Every mutation is applied synchronously as a single state replacement, so
// callers always observe a consistent state; durable writes happen in a
// separate explicit Flush so persistence failures are observable instead of
// swallowed.
type Store struct {
	userID      string
	persistence Persistence
	snapshots   Snapshotter

	mu    sync.Mutex
	state model.AppState
	dirty bool
	undo  undoLog
}

// New loads the user's stored state and wraps it in a Store. The persistence
// and snapshot ports are injected; there is no ambient global state.
func New(ctx context.Context, userID string, persistence Persistence, snapshots Snapshotter) (*Store, error) {
	if persistence == nil {
		return nil, errors.New("persistence port required")
	}
	if snapshots == nil {
		return nil, errors.New("snapshot port required")
	}
	state, err := persistence.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Store{
		userID:      userID,
		persistence: persistence,
		snapshots:   snapshots,
		state:       state,
		undo:        undoLog{max: maxUndoEntries},
	}, nil
}

// NewEphemeral returns a store for an anonymous session: empty state, no
// persistence, no snapshots.
func NewEphemeral() *Store {
	return &Store{
		persistence: noopPersistence{},
		snapshots:   noopSnapshotter{},
		state:       model.EmptyState(),
		undo:        undoLog{max: maxUndoEntries},
	}
}

// UserID returns the identity the store persists under; empty for ephemeral
// sessions.
func (s *Store) UserID() string {
	return s.userID
}

// State returns a deep copy of the current AppState.
func (s *Store) State() model.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Flush writes the current state through the persistence port and stamps
// LastSaved from the durable write. Callers invoke it right after a
// mutation; a failed write leaves the in-memory state intact and is
// reported, not swallowed.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Store) flushLocked(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	stamp, err := s.persistence.Save(ctx, s.userID, s.state)
	if err != nil {
		return err
	}
	if !stamp.IsZero() {
		s.state.LastSaved = &stamp
	}
	s.dirty = false
	return nil
}

// SetAutoSave toggles automatic persistence. The preference is written
// through its own persistence slot so it survives a cleared state blob, and
// enabling it immediately flushes whatever was accumulated while disabled.
func (s *Store) SetAutoSave(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistence.SetAutoSave(ctx, s.userID, enabled); err != nil {
		return err
	}
	s.state.AutoSave = enabled
	if enabled {
		s.dirty = true
		return s.flushLocked(ctx)
	}
	return nil
}

// InstallState replaces the whole AppState, snapshotting the previous one
// first. Backup restore and import both land here.
func (s *Store) InstallState(ctx context.Context, next model.AppState, snapshotDescription string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.snapshots.Snapshot(ctx, s.userID, s.state, snapshotDescription); err != nil {
		return err
	}
	if next.TranscriptMetadata == nil {
		next.TranscriptMetadata = []model.TranscriptMetadata{}
	}
	if next.ExtractedItems == nil {
		next.ExtractedItems = []model.ExtractedItem{}
	}
	next.SchemaVersion = model.SchemaVersion
	prev := s.state
	s.state = next.Clone()
	s.dirty = true
	s.undo.push(undoEntry{
		label: snapshotDescription,
		revert: func(model.AppState) model.AppState {
			return prev.Clone()
		},
	})
	common.Logger().Info("store: state installed", "user", s.userID, "reason", snapshotDescription,
		"transcripts", len(s.state.TranscriptMetadata), "items", len(s.state.ExtractedItems))
	return nil
}

// Undo reverses the most recent reversible mutation and returns its label.
// The undo log is independent of the backup ring.
func (s *Store) Undo(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.undo.pop()
	if !ok {
		return "", ErrNothingToUndo
	}
	s.state = entry.revert(s.state)
	s.dirty = true
	return entry.label, nil
}

// ErrNothingToUndo reports an Undo call with an empty undo log.
var ErrNothingToUndo = errors.New("nothing to undo")

type noopPersistence struct{}

func (noopPersistence) Load(ctx context.Context, userID string) (model.AppState, error) {
	return model.EmptyState(), nil
}

func (noopPersistence) Save(ctx context.Context, userID string, state model.AppState) (time.Time, error) {
	return time.Time{}, nil
}

func (noopPersistence) SetAutoSave(ctx context.Context, userID string, enabled bool) error {
	return nil
}

type noopSnapshotter struct{}

func (noopSnapshotter) Snapshot(ctx context.Context, userID string, state model.AppState, description string) error {
	return nil
}
