// File path: internal/store/mutators.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/model"
)

// ErrReasonRequired reports a batch rejection without a non-empty reason.
var ErrReasonRequired = errors.New("rejection reason required")

// TranscriptInput carries the caller-supplied fields for a new transcript
// record; id and timestamp are assigned here.
type TranscriptInput struct {
	Name                 string
	Duration             string
	Type                 model.TranscriptType
	ExtractedItemCount   int
	ProcessingConfidence int
}

// ItemUpdate is a partial edit of an item. Nil fields are left untouched.
type ItemUpdate struct {
	Title       *string
	Description *string
	Category    *model.Category
	Priority    *model.Priority
	DueDate     *string
	Assignee    *string
	Feedback    *string
}

// AddProcessedTranscript records a processed transcript and returns its new
// id so the caller can tag subsequently added items with it. The current
// state is snapshotted first: a fresh transcript is the proxy for "major
// change".
func (s *Store) AddProcessedTranscript(ctx context.Context, in TranscriptInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.snapshots.Snapshot(ctx, s.userID, s.state, "before adding transcript"); err != nil {
		return "", err
	}
	meta := model.TranscriptMetadata{
		ID:                   model.NewID(),
		Name:                 model.Sanitize(in.Name),
		ProcessedAt:          time.Now().UTC(),
		Duration:             in.Duration,
		Type:                 in.Type,
		ExtractedItemCount:   in.ExtractedItemCount,
		ProcessingConfidence: in.ProcessingConfidence,
	}
	if meta.Duration == "" {
		meta.Duration = "Unknown"
	}
	next := s.state.Clone()
	next.TranscriptMetadata = append([]model.TranscriptMetadata{meta}, next.TranscriptMetadata...)
	s.replace(next, undoEntry{
		label: "add transcript",
		revert: func(state model.AppState) model.AppState {
			out := state.Clone()
			kept := out.TranscriptMetadata[:0]
			for _, t := range out.TranscriptMetadata {
				if t.ID != meta.ID {
					kept = append(kept, t)
				}
			}
			out.TranscriptMetadata = kept
			return out
		},
	})
	common.Logger().Info("store: transcript added", "user", s.userID, "transcript", meta.ID, "name", meta.Name)
	return meta.ID, nil
}

// AddExtractedItems assigns ids and timestamps to the incoming batch and
// prepends it to the item list. Bulk appends are low risk, so no snapshot is
// taken. Returns the stored items.
func (s *Store) AddExtractedItems(ctx context.Context, items []model.ExtractedItem) ([]model.ExtractedItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	stored := make([]model.ExtractedItem, len(items))
	ids := make(map[string]struct{}, len(items))
	for i, item := range items {
		item.ID = model.NewID()
		item.Title = model.Sanitize(item.Title)
		item.Description = model.Sanitize(item.Description)
		item.Assignee = model.Sanitize(item.Assignee)
		item.Completed = false
		item.ExtractedAt = now
		stored[i] = item
		ids[item.ID] = struct{}{}
	}
	next := s.state.Clone()
	next.ExtractedItems = append(append([]model.ExtractedItem{}, stored...), next.ExtractedItems...)
	s.replace(next, undoEntry{
		label: fmt.Sprintf("add %d items", len(stored)),
		revert: func(state model.AppState) model.AppState {
			out := state.Clone()
			kept := out.ExtractedItems[:0]
			for _, it := range out.ExtractedItems {
				if _, added := ids[it.ID]; !added {
					kept = append(kept, it)
				}
			}
			out.ExtractedItems = kept
			return out
		},
	})
	common.Logger().Info("store: items added", "user", s.userID, "count", len(stored))
	return stored, nil
}

// ToggleItemApproval flips the approval flag on one item. Missing ids are
// silently ignored so batch callers stay resilient to stale selections;
// completed items are locked.
func (s *Store) ToggleItemApproval(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	if s.state.ExtractedItems[idx].Completed {
		return &model.InvalidStateTransition{ItemID: id, Op: "toggle-approval", Reason: "item is completed"}
	}
	next := s.state.Clone()
	next.ExtractedItems[idx].Approved = !next.ExtractedItems[idx].Approved
	s.replace(next, toggleUndo("toggle approval", id, func(it *model.ExtractedItem) {
		it.Approved = !it.Approved
	}))
	return nil
}

// ToggleItemCompletion flips the completion flag. Completing an unapproved
// item is an invalid transition; re-opening a completed item is allowed.
func (s *Store) ToggleItemCompletion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	item := s.state.ExtractedItems[idx]
	if !item.Completed && !item.Approved {
		return &model.InvalidStateTransition{ItemID: id, Op: "toggle-completion", Reason: "item is not approved"}
	}
	next := s.state.Clone()
	next.ExtractedItems[idx].Completed = !next.ExtractedItems[idx].Completed
	s.replace(next, toggleUndo("toggle completion", id, func(it *model.ExtractedItem) {
		it.Completed = !it.Completed
	}))
	return nil
}

// EditExtractedItem merges the update into the matching item after
// sanitizing and validating the result. Completed items are locked. A
// missing id is a no-op.
func (s *Store) EditExtractedItem(ctx context.Context, id string, updates ItemUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	prev := s.state.ExtractedItems[idx]
	if prev.Completed {
		return &model.InvalidStateTransition{ItemID: id, Op: "edit", Reason: "item is completed"}
	}
	merged := prev
	if updates.Title != nil {
		merged.Title = model.Sanitize(*updates.Title)
	}
	if updates.Description != nil {
		merged.Description = model.Sanitize(*updates.Description)
	}
	if updates.Category != nil {
		merged.Category = *updates.Category
	}
	if updates.Priority != nil {
		merged.Priority = *updates.Priority
	}
	if updates.DueDate != nil {
		merged.DueDate = strings.TrimSpace(*updates.DueDate)
	}
	if updates.Assignee != nil {
		merged.Assignee = model.Sanitize(*updates.Assignee)
	}
	if updates.Feedback != nil {
		merged.Feedback = strings.TrimSpace(*updates.Feedback)
	}
	if errs := model.ValidateItem(merged); len(errs) > 0 {
		return errs
	}
	next := s.state.Clone()
	next.ExtractedItems[idx] = merged
	s.replace(next, undoEntry{
		label: "edit item",
		revert: func(state model.AppState) model.AppState {
			out := state.Clone()
			if i := indexOfItem(out.ExtractedItems, id); i >= 0 {
				out.ExtractedItems[i] = prev
			}
			return out
		},
	})
	return nil
}

// DeleteExtractedItem removes one item after snapshotting the current state.
// Irreversible except through undo or backup restore; missing ids are
// no-ops and take no snapshot.
func (s *Store) DeleteExtractedItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	if err := s.snapshots.Snapshot(ctx, s.userID, s.state, "before deleting item"); err != nil {
		return err
	}
	removed := s.state.ExtractedItems[idx]
	next := s.state.Clone()
	next.ExtractedItems = append(next.ExtractedItems[:idx], next.ExtractedItems[idx+1:]...)
	s.replace(next, undoEntry{
		label: "delete item",
		revert: func(state model.AppState) model.AppState {
			out := state.Clone()
			pos := idx
			if pos > len(out.ExtractedItems) {
				pos = len(out.ExtractedItems)
			}
			items := make([]model.ExtractedItem, 0, len(out.ExtractedItems)+1)
			items = append(items, out.ExtractedItems[:pos]...)
			items = append(items, removed)
			items = append(items, out.ExtractedItems[pos:]...)
			out.ExtractedItems = items
			return out
		},
	})
	common.Logger().Info("store: item deleted", "user", s.userID, "item", id)
	return nil
}

// ClearAllData snapshots the current state and replaces it with the
// canonical empty one. Auto-save resets to its default of enabled.
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.snapshots.Snapshot(ctx, s.userID, s.state, "before clearing all data"); err != nil {
		return err
	}
	if err := s.persistence.SetAutoSave(ctx, s.userID, true); err != nil {
		return err
	}
	prev := s.state
	s.replace(model.EmptyState(), undoEntry{
		label: "clear all data",
		revert: func(model.AppState) model.AppState {
			return prev.Clone()
		},
	})
	common.Logger().Info("store: all data cleared", "user", s.userID,
		"transcripts", len(prev.TranscriptMetadata), "items", len(prev.ExtractedItems))
	return nil
}

// ApproveItems marks every listed item approved. Missing or completed items
// are skipped. Returns the number of items changed.
func (s *Store) ApproveItems(ctx context.Context, ids []string) (int, error) {
	return s.batchItemUpdate(ctx, "approve items", "", ids, func(it *model.ExtractedItem) bool {
		if it.Completed || it.Approved {
			return false
		}
		it.Approved = true
		return true
	})
}

// RejectItems marks every listed item not approved and records the reason
// as feedback on the item. The reason is required.
func (s *Store) RejectItems(ctx context.Context, ids []string, reason string) (int, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return 0, ErrReasonRequired
	}
	return s.batchItemUpdate(ctx, "reject items", "before rejecting items", ids, func(it *model.ExtractedItem) bool {
		if it.Completed {
			return false
		}
		it.Approved = false
		it.Feedback = reason
		return true
	})
}

// CompleteItems marks every listed approved item completed. Unapproved,
// missing or already-completed items are skipped.
func (s *Store) CompleteItems(ctx context.Context, ids []string) (int, error) {
	return s.batchItemUpdate(ctx, "complete items", "", ids, func(it *model.ExtractedItem) bool {
		if it.Completed || !it.Approved {
			return false
		}
		it.Completed = true
		return true
	})
}

// DeleteItems removes every listed item, snapshotting once up front.
// Returns the number of items removed.
func (s *Store) DeleteItems(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s.indexOf(id) >= 0 {
			doomed[id] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}
	if err := s.snapshots.Snapshot(ctx, s.userID, s.state,
		fmt.Sprintf("before deleting %d items", len(doomed))); err != nil {
		return 0, err
	}
	prevItems := append([]model.ExtractedItem(nil), s.state.ExtractedItems...)
	next := s.state.Clone()
	kept := next.ExtractedItems[:0]
	for _, it := range next.ExtractedItems {
		if _, gone := doomed[it.ID]; !gone {
			kept = append(kept, it)
		}
	}
	next.ExtractedItems = kept
	s.replace(next, undoEntry{
		label: fmt.Sprintf("delete %d items", len(doomed)),
		revert: func(state model.AppState) model.AppState {
			out := state.Clone()
			out.ExtractedItems = append([]model.ExtractedItem(nil), prevItems...)
			return out
		},
	})
	common.Logger().Info("store: items deleted", "user", s.userID, "count", len(doomed))
	return len(doomed), nil
}

func (s *Store) batchItemUpdate(ctx context.Context, label, snapshotDescription string, ids []string, apply func(*model.ExtractedItem) bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if snapshotDescription != "" {
		if err := s.snapshots.Snapshot(ctx, s.userID, s.state, snapshotDescription); err != nil {
			return 0, err
		}
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	prevItems := append([]model.ExtractedItem(nil), s.state.ExtractedItems...)
	next := s.state.Clone()
	changed := 0
	for i := range next.ExtractedItems {
		if _, ok := wanted[next.ExtractedItems[i].ID]; !ok {
			continue
		}
		if apply(&next.ExtractedItems[i]) {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	s.replace(next, undoEntry{
		label: label,
		revert: func(state model.AppState) model.AppState {
			out := state.Clone()
			out.ExtractedItems = append([]model.ExtractedItem(nil), prevItems...)
			return out
		},
	})
	return changed, nil
}

// replace installs the next state atomically and records the undo entry.
// Callers hold s.mu.
func (s *Store) replace(next model.AppState, entry undoEntry) {
	s.state = next
	s.dirty = true
	s.undo.push(entry)
}

func (s *Store) indexOf(id string) int {
	return indexOfItem(s.state.ExtractedItems, id)
}

func indexOfItem(items []model.ExtractedItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func toggleUndo(label, id string, flip func(*model.ExtractedItem)) undoEntry {
	return undoEntry{
		label: label,
		revert: func(state model.AppState) model.AppState {
			out := state.Clone()
			if i := indexOfItem(out.ExtractedItems, id); i >= 0 {
				flip(&out.ExtractedItems[i])
			}
			return out
		},
	}
}
