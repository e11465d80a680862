// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/transcriptflow/transcriptflow/internal/backup"
	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/extract"
	"github.com/transcriptflow/transcriptflow/internal/fireflies"
	"github.com/transcriptflow/transcriptflow/internal/model"
	"github.com/transcriptflow/transcriptflow/internal/store"
)

// userHeader carries the authenticated user's stable id, resolved by the
// session provider in front of this service. Requests without it operate on
// an ephemeral, never-persisted state.
const userHeader = "X-User-Id"

type Server struct {
	router        chi.Router
	stores        *store.Registry
	backups       *backup.Manager
	extractor     *extract.Service
	recorder      *fireflies.Client
	recorderLimit int
}

// Config controls server construction.
type Config struct {
	RecorderLimit int
}

func NewServer(stores *store.Registry, backups *backup.Manager, extractor *extract.Service, recorder *fireflies.Client, cfg Config) (*Server, error) {
	if stores == nil {
		return nil, errors.New("store registry required")
	}
	if backups == nil {
		return nil, errors.New("backup manager required")
	}
	if extractor == nil {
		return nil, errors.New("extraction service required")
	}
	limit := cfg.RecorderLimit
	if limit <= 0 {
		limit = 10
	}
	srv := &Server{
		router:        chi.NewRouter(),
		stores:        stores,
		backups:       backups,
		extractor:     extractor,
		recorder:      recorder,
		recorderLimit: limit,
	}
	srv.routes()
	common.Logger().Info("api: server ready", "recorder_configured", recorder.Configured())
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/v1/state", s.handleState)
	s.router.Post("/v1/state/clear", s.handleClear)
	s.router.Post("/v1/state/autosave", s.handleAutoSave)
	s.router.Post("/v1/state/undo", s.handleUndo)

	s.router.Post("/v1/transcripts", s.handleProcessTranscript)
	s.router.Get("/v1/recorder/transcripts", s.handleRecorderList)
	s.router.Post("/v1/recorder/transcripts/{id}/process", s.handleRecorderProcess)

	s.router.Post("/v1/items", s.handleAddNote)
	s.router.Post("/v1/items/{id}/approval", s.handleToggleApproval)
	s.router.Post("/v1/items/{id}/completion", s.handleToggleCompletion)
	s.router.Patch("/v1/items/{id}", s.handleEditItem)
	s.router.Delete("/v1/items/{id}", s.handleDeleteItem)
	s.router.Post("/v1/items/batch", s.handleBatch)

	s.router.Get("/v1/backups", s.handleListBackups)
	s.router.Post("/v1/backups/{id}/restore", s.handleRestoreBackup)

	s.router.Get("/v1/export", s.handleExport)
	s.router.Post("/v1/import", s.handleImport)

	s.router.Get("/v1/logs", s.handleLogs)
}

// storeFor resolves the per-user store from the session header.
func (s *Server) storeFor(r *http.Request) (*store.Store, error) {
	return s.stores.ForUser(r.Context(), r.Header.Get(userHeader))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"logs": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	payload := map[string]any{"error": err.Error()}
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		payload["fields"] = verrs
	}
	writeJSON(w, status, payload)
}

// statusFor maps core error types onto HTTP statuses.
func statusFor(err error) int {
	var verrs model.ValidationErrors
	var transition *model.InvalidStateTransition
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrImportParse):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrReasonRequired):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, fireflies.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
