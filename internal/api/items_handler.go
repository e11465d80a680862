// File path: internal/api/items_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/transcriptflow/transcriptflow/internal/model"
	"github.com/transcriptflow/transcriptflow/internal/store"
)

// handleAddNote adds one manually written item ("note"), not tied to any
// transcript. Unlike bulk extraction appends, manual input is validated up
// front so the author gets field-level feedback.
func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	var req addNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item := model.ExtractedItem{
		Type:        noteType(req.Type),
		Title:       model.Sanitize(req.Title),
		Description: model.Sanitize(req.Description),
		Category:    noteCategory(req.Category),
		Priority:    notePriority(req.Priority),
		DueDate:     strings.TrimSpace(req.DueDate),
		Assignee:    model.Sanitize(req.Assignee),
		Confidence:  100,
	}
	if errs := model.ValidateItem(item); len(errs) > 0 {
		writeError(w, statusFor(errs), errs)
		return
	}
	stored, err := st.AddExtractedItems(r.Context(), []model.ExtractedItem{item})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.Flush(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored[0])
}

func (s *Server) handleToggleApproval(w http.ResponseWriter, r *http.Request) {
	s.itemMutation(w, r, func(st *store.Store, id string) error {
		return st.ToggleItemApproval(r.Context(), id)
	})
}

func (s *Server) handleToggleCompletion(w http.ResponseWriter, r *http.Request) {
	s.itemMutation(w, r, func(st *store.Store, id string) error {
		return st.ToggleItemCompletion(r.Context(), id)
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	s.itemMutation(w, r, func(st *store.Store, id string) error {
		return st.DeleteExtractedItem(r.Context(), id)
	})
}

func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	var req editItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updates := store.ItemUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Assignee:    req.Assignee,
		Feedback:    req.Feedback,
	}
	if req.Category != nil {
		category := model.Category(*req.Category)
		updates.Category = &category
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		updates.Priority = &priority
	}
	s.itemMutation(w, r, func(st *store.Store, id string) error {
		return st.EditExtractedItem(r.Context(), id, updates)
	})
}

// itemMutation runs one single-item operation, flushes, and returns the
// whole state so the client can re-render without a second round trip.
func (s *Server) itemMutation(w http.ResponseWriter, r *http.Request, op func(*store.Store, string) error) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("item id required"))
		return
	}
	if err := op(st, id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.Flush(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st.State())
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("ids required"))
		return
	}
	var applied int
	ctx := r.Context()
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "approve":
		applied, err = st.ApproveItems(ctx, req.IDs)
	case "reject":
		applied, err = st.RejectItems(ctx, req.IDs, req.Reason)
	case "complete":
		applied, err = st.CompleteItems(ctx, req.IDs)
	case "delete":
		applied, err = st.DeleteItems(ctx, req.IDs)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown batch action %q", req.Action))
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := st.Flush(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Applied: applied, State: st.State()})
}

func noteType(value string) model.ItemType {
	switch model.ItemType(strings.ToLower(strings.TrimSpace(value))) {
	case model.ItemTask, model.ItemEvent, model.ItemContact:
		return model.ItemType(strings.ToLower(strings.TrimSpace(value)))
	default:
		return model.ItemIdea
	}
}

func noteCategory(value string) model.Category {
	switch model.Category(strings.TrimSpace(value)) {
	case model.CategoryBusiness, model.CategoryHome, model.CategoryProjects:
		return model.Category(strings.TrimSpace(value))
	default:
		return model.CategoryPersonal
	}
}

func notePriority(value string) model.Priority {
	switch model.Priority(strings.ToLower(strings.TrimSpace(value))) {
	case model.PriorityLow, model.PriorityHigh:
		return model.Priority(strings.ToLower(strings.TrimSpace(value)))
	default:
		return model.PriorityMedium
	}
}
