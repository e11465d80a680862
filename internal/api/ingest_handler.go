// File path: internal/api/ingest_handler.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/model"
	"github.com/transcriptflow/transcriptflow/internal/store"
)

// handleProcessTranscript ingests raw transcript text: extraction first, so
// a provider failure never leaves a transcript record without its items,
// then the transcript record and the item batch tagged with its id.
func (s *Server) handleProcessTranscript(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	var req processTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: transcript decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("text is required"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Untitled transcript"
	}
	resp, err := s.processText(r.Context(), st, name, req.Duration, transcriptType(req.Type), req.Text)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	logger.Info("api: transcript processed", "user", st.UserID(), "transcript", resp.TranscriptID, "items", len(resp.Items))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecorderList(w http.ResponseWriter, r *http.Request) {
	limit := s.recorderLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	transcripts, err := s.recorder.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, recorderListResponse{Transcripts: transcripts})
}

// handleRecorderProcess pulls one recording from the meeting recorder and
// runs it through the same pipeline as pasted text.
func (s *Server) handleRecorderProcess(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	id := chi.URLParam(r, "id")
	detail, err := s.recorder.TranscriptContent(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if strings.TrimSpace(detail.Text) == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("recording %s has no transcript text", id))
		return
	}
	name := strings.TrimSpace(detail.Title)
	if name == "" {
		name = "Imported recording"
	}
	resp, err := s.processText(r.Context(), st, name, detail.Duration, model.TranscriptMeeting, detail.Text)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	logger.Info("api: recording processed", "user", st.UserID(), "recording", id, "items", len(resp.Items))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) processText(ctx context.Context, st *store.Store, name, duration string, kind model.TranscriptType, text string) (processTranscriptResponse, error) {
	result, err := s.extractor.ExtractItems(ctx, text, "")
	if err != nil {
		return processTranscriptResponse{}, err
	}
	transcriptID, err := st.AddProcessedTranscript(ctx, store.TranscriptInput{
		Name:                 name,
		Duration:             duration,
		Type:                 kind,
		ExtractedItemCount:   len(result.Items),
		ProcessingConfidence: result.ProcessingConfidence,
	})
	if err != nil {
		return processTranscriptResponse{}, err
	}
	for i := range result.Items {
		result.Items[i].SourceTranscriptID = transcriptID
	}
	stored, err := st.AddExtractedItems(ctx, result.Items)
	if err != nil {
		return processTranscriptResponse{}, err
	}
	if err := st.Flush(ctx); err != nil {
		return processTranscriptResponse{}, err
	}
	return processTranscriptResponse{
		TranscriptID:         transcriptID,
		ProcessingConfidence: result.ProcessingConfidence,
		Items:                stored,
	}, nil
}

func transcriptType(value string) model.TranscriptType {
	switch model.TranscriptType(strings.ToLower(strings.TrimSpace(value))) {
	case model.TranscriptVoiceMemo:
		return model.TranscriptVoiceMemo
	case model.TranscriptBrainstorm:
		return model.TranscriptBrainstorm
	default:
		return model.TranscriptMeeting
	}
}
