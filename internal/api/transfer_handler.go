// File path: internal/api/transfer_handler.go
package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/transfer"
)

// maxImportBytes bounds uploaded state files. Exports are a few hundred KB
// at most even for heavy users.
const maxImportBytes = 16 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	blob, err := transfer.Export(st.State())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blob.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

// handleImport replaces the current state with an uploaded export. The
// replaced state is snapshotted first and the swap is undoable.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	imported, err := transfer.Import(data)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.InstallState(r.Context(), imported, "before importing state"); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.Flush(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: state imported", "user", st.UserID(), "items", len(imported.ExtractedItems))
	writeJSON(w, http.StatusOK, st.State())
}
