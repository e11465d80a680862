// File path: internal/backup/manager.go
package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/model"
)

// MaxBackups bounds the per-user snapshot ring. Backups are a safety net,
// not an audit log, so older history is allowed to fall off.
const MaxBackups = 10

// Storage is the durable backend the manager writes snapshots through.
type Storage interface {
	InsertBackup(ctx context.Context, userID string, backup model.AutoBackup, keep int) error
	ListBackups(ctx context.Context, userID string) ([]model.AutoBackup, error)
	GetBackup(ctx context.Context, backupID string) (model.AutoBackup, error)
}

// Manager snapshots full AppStates before mutations the caller knows are
// risky. Snapshotting is caller-invoked rather than automatic per mutation
// to keep snapshot churn bounded.
type Manager struct {
	storage Storage
}

func NewManager(storage Storage) (*Manager, error) {
	if storage == nil {
		return nil, errors.New("backup storage required")
	}
	return &Manager{storage: storage}, nil
}

// Snapshot stores a deep copy of state under a human description. A missing
// user id makes this a no-op: anonymous sessions have nothing durable to
// protect.
func (m *Manager) Snapshot(ctx context.Context, userID string, state model.AppState, description string) error {
	if m == nil || strings.TrimSpace(userID) == "" {
		return nil
	}
	backup := model.AutoBackup{
		ID:        model.NewID(),
		Name:      description,
		Timestamp: time.Now().UTC(),
		ItemCount: len(state.ExtractedItems),
		Data:      state.Clone(),
	}
	if err := m.storage.InsertBackup(ctx, userID, backup, MaxBackups); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	common.Logger().Debug("backup: snapshot stored", "user", userID, "name", description, "items", backup.ItemCount)
	return nil
}

// List returns the user's backups, newest first.
func (m *Manager) List(ctx context.Context, userID string) ([]model.AutoBackup, error) {
	if m == nil {
		return nil, errors.New("backup manager not initialised")
	}
	return m.storage.ListBackups(ctx, userID)
}

// Restore returns the snapshot stored under backupID verbatim. Installing it
// as the live AppState is the caller's job. A missing id is a hard error,
// unlike item mutations.
func (m *Manager) Restore(ctx context.Context, backupID string) (model.AppState, error) {
	if m == nil {
		return model.AppState{}, errors.New("backup manager not initialised")
	}
	backup, err := m.storage.GetBackup(ctx, backupID)
	if err != nil {
		return model.AppState{}, err
	}
	return backup.Data.Clone(), nil
}
