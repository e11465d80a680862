// File path: internal/persist/state.go
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/model"
)

type stateRow struct {
	UserID    string    `db:"user_id"`
	Payload   string    `db:"payload"`
	LastSaved time.Time `db:"last_saved"`
}

// Load returns the stored AppState for a user. Missing or unparseable data
// fails soft to the canonical empty state; the auto-save preference is merged
// in from its own row so the flag survives a cleared or corrupt state blob.
func (s *Store) Load(ctx context.Context, userID string) (model.AppState, error) {
	state := model.EmptyState()
	if err := s.ensureReady(); err != nil {
		return state, err
	}
	if strings.TrimSpace(userID) == "" {
		return state, nil
	}
	logger := common.Logger()

	autoSave, err := s.AutoSave(ctx, userID)
	if err != nil {
		return state, err
	}
	state.AutoSave = autoSave

	var row stateRow
	err = s.db.GetContext(ctx, &row, `SELECT user_id, payload, last_saved FROM app_states WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("select app state: %w", err)
	}

	var stored model.AppState
	if err := json.Unmarshal([]byte(row.Payload), &stored); err != nil {
		logger.Warn("persist: stored state unreadable, falling back to empty", "user", userID, "error", err)
		return state, nil
	}
	if stored.TranscriptMetadata == nil {
		stored.TranscriptMetadata = []model.TranscriptMetadata{}
	}
	if stored.ExtractedItems == nil {
		stored.ExtractedItems = []model.ExtractedItem{}
	}
	if stored.SchemaVersion == 0 {
		stored.SchemaVersion = model.SchemaVersion
	}
	stored.AutoSave = autoSave
	ts := row.LastSaved.UTC()
	stored.LastSaved = &ts
	return stored, nil
}

// Save writes the state blob for a user and returns the stamped save time.
// It is a no-op (zero time, nil error) when auto-save is disabled on the
// state or the user id is absent.
func (s *Store) Save(ctx context.Context, userID string, state model.AppState) (time.Time, error) {
	if err := s.ensureReady(); err != nil {
		return time.Time{}, err
	}
	if strings.TrimSpace(userID) == "" || !state.AutoSave {
		return time.Time{}, nil
	}
	now := time.Now().UTC()
	state.LastSaved = &now
	payload, err := json.Marshal(state)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode app state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO app_states(user_id, payload, last_saved) VALUES (?, ?, ?)
                ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, last_saved = excluded.last_saved`,
		userID, string(payload), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("save app state: %w", err)
	}
	return now, nil
}

// SetAutoSave persists the auto-save preference independently of the main
// state blob so the choice survives a full state clear.
func (s *Store) SetAutoSave(ctx context.Context, userID string, enabled bool) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	value := 0
	if enabled {
		value = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO preferences(user_id, auto_save) VALUES (?, ?)
                ON CONFLICT(user_id) DO UPDATE SET auto_save = excluded.auto_save`, userID, value)
	if err != nil {
		return fmt.Errorf("save auto-save preference: %w", err)
	}
	return nil
}

// AutoSave reads the stored auto-save preference, defaulting to true when no
// preference row exists.
func (s *Store) AutoSave(ctx context.Context, userID string) (bool, error) {
	if err := s.ensureReady(); err != nil {
		return true, err
	}
	if strings.TrimSpace(userID) == "" {
		return true, nil
	}
	var value int
	err := s.db.GetContext(ctx, &value, `SELECT auto_save FROM preferences WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("select auto-save preference: %w", err)
	}
	return value != 0, nil
}

// Delete removes the stored state blob for a user. The preference row is
// left in place intentionally.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM app_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete app state: %w", err)
	}
	return nil
}
