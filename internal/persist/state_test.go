// File path: internal/persist/state_test.go
package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadMissingUserReturnsEmptyState(t *testing.T) {
	store := openTestStore(t)
	state, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.TranscriptMetadata) != 0 || len(state.ExtractedItems) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
	if !state.AutoSave {
		t.Fatal("expected auto-save default true")
	}
	if state.LastSaved != nil {
		t.Fatal("expected no last-saved timestamp")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	state := model.EmptyState()
	state.ExtractedItems = []model.ExtractedItem{{
		ID:          model.NewID(),
		Type:        model.ItemTask,
		Title:       "Send recap",
		Category:    model.CategoryBusiness,
		Priority:    model.PriorityMedium,
		Confidence:  80,
		ExtractedAt: time.Now().UTC(),
	}}
	saved, err := store.Save(ctx, "user-1", state)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.IsZero() {
		t.Fatal("expected save timestamp")
	}
	loaded, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.ExtractedItems) != 1 || loaded.ExtractedItems[0].Title != "Send recap" {
		t.Fatalf("unexpected loaded state: %+v", loaded)
	}
	if loaded.LastSaved == nil {
		t.Fatal("expected last-saved timestamp after save")
	}
}

func TestSaveSkippedWhenAutoSaveDisabled(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	state := model.EmptyState()
	state.AutoSave = false
	saved, err := store.Save(ctx, "user-1", state)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !saved.IsZero() {
		t.Fatal("expected no-op save when auto-save disabled")
	}
	loaded, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.LastSaved != nil {
		t.Fatal("expected nothing persisted")
	}
}

func TestSaveSkippedWithoutUser(t *testing.T) {
	store := openTestStore(t)
	saved, err := store.Save(context.Background(), "", model.EmptyState())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !saved.IsZero() {
		t.Fatal("expected no-op save for anonymous session")
	}
}

func TestAutoSavePreferenceSurvivesStateDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.SetAutoSave(ctx, "user-1", false); err != nil {
		t.Fatalf("set auto-save: %v", err)
	}
	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	enabled, err := store.AutoSave(ctx, "user-1")
	if err != nil {
		t.Fatalf("auto-save: %v", err)
	}
	if enabled {
		t.Fatal("expected auto-save preference to survive state delete")
	}
	loaded, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AutoSave {
		t.Fatal("expected loaded state to carry disabled auto-save")
	}
}

func TestLoadFailsSoftOnCorruptPayload(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO app_states(user_id, payload, last_saved) VALUES (?, ?, ?)`,
		"user-1", "{not json", time.Now().UTC())
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}
	state, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load should fail soft: %v", err)
	}
	if len(state.TranscriptMetadata) != 0 || len(state.ExtractedItems) != 0 {
		t.Fatalf("expected canonical empty state, got %+v", state)
	}
}
