// File path: internal/api/state_handler.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/transcriptflow/transcriptflow/internal/common"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st.State())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := st.ClearAllData(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.Flush(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	common.Logger().Info("api: state cleared", "user", st.UserID())
	writeJSON(w, http.StatusOK, st.State())
}

func (s *Server) handleAutoSave(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	var req autoSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := st.SetAutoSave(r.Context(), req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st.State())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	label, err := st.Undo(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.Flush(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{Undone: label, State: st.State()})
}
