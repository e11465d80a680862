// File path: internal/persist/backups.go
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/transcriptflow/transcriptflow/internal/model"
)

type backupRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	ItemCount int       `db:"item_count"`
	Payload   string    `db:"payload"`
}

func (r backupRow) toBackup() (model.AutoBackup, error) {
	var data model.AppState
	if err := json.Unmarshal([]byte(r.Payload), &data); err != nil {
		return model.AutoBackup{}, fmt.Errorf("decode backup payload: %w", err)
	}
	return model.AutoBackup{
		ID:        r.ID,
		Name:      r.Name,
		Timestamp: r.CreatedAt.UTC(),
		ItemCount: r.ItemCount,
		Data:      data,
	}, nil
}

// InsertBackup stores a snapshot and prunes the user's ring down to keep
// entries in the same transaction, newest retained.
func (s *Store) InsertBackup(ctx context.Context, userID string, backup model.AutoBackup, keep int) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	payload, err := json.Marshal(backup.Data)
	if err != nil {
		return fmt.Errorf("encode backup payload: %w", err)
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO backups(id, user_id, name, created_at, item_count, payload)
                        VALUES (?, ?, ?, ?, ?, ?)`,
			backup.ID, userID, backup.Name, backup.Timestamp.UTC(), backup.ItemCount, string(payload))
		if err != nil {
			return fmt.Errorf("insert backup: %w", err)
		}
		if keep <= 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM backups WHERE user_id = ? AND id NOT IN (
                        SELECT id FROM backups WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?)`,
			userID, userID, keep)
		if err != nil {
			return fmt.Errorf("prune backups: %w", err)
		}
		return nil
	})
}

// ListBackups returns a user's backups, newest first.
func (s *Store) ListBackups(ctx context.Context, userID string) ([]model.AutoBackup, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	rows := []backupRow{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, name, created_at, item_count, payload FROM backups
                 WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select backups: %w", err)
	}
	backups := make([]model.AutoBackup, 0, len(rows))
	for _, row := range rows {
		backup, err := row.toBackup()
		if err != nil {
			return nil, err
		}
		backups = append(backups, backup)
	}
	return backups, nil
}

// GetBackup looks up a single backup by id.
func (s *Store) GetBackup(ctx context.Context, backupID string) (model.AutoBackup, error) {
	if err := s.ensureReady(); err != nil {
		return model.AutoBackup{}, err
	}
	var row backupRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, user_id, name, created_at, item_count, payload FROM backups WHERE id = ?`, backupID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AutoBackup{}, fmt.Errorf("backup %s: %w", backupID, model.ErrNotFound)
	}
	if err != nil {
		return model.AutoBackup{}, fmt.Errorf("select backup: %w", err)
	}
	return row.toBackup()
}
