// File path: internal/api/backup_handler.go
package api

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/transcriptflow/transcriptflow/internal/common"
)

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	backups, err := s.backups.List(r.Context(), st.UserID())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	summaries := make([]backupSummary, 0, len(backups))
	for _, b := range backups {
		summaries = append(summaries, backupSummary{
			ID:        b.ID,
			Name:      b.Name,
			Timestamp: b.Timestamp.UTC().Format(time.RFC3339),
			ItemCount: b.ItemCount,
		})
	}
	writeJSON(w, http.StatusOK, backupListResponse{Backups: summaries})
}

// handleRestoreBackup swaps the current state for a stored backup. The state
// being replaced is snapshotted first, so a restore is itself restorable.
func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	id := chi.URLParam(r, "id")
	restored, err := s.backups.Restore(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.InstallState(r.Context(), restored, "before restoring backup"); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.Flush(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: backup restored", "user", st.UserID(), "backup", id)
	writeJSON(w, http.StatusOK, st.State())
}
