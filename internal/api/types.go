// File path: internal/api/types.go
package api

import (
	"github.com/transcriptflow/transcriptflow/internal/fireflies"
	"github.com/transcriptflow/transcriptflow/internal/model"
)

type processTranscriptRequest struct {
	Name     string `json:"name"`
	Duration string `json:"duration,omitempty"`
	Type     string `json:"type,omitempty"`
	Text     string `json:"text"`
}

type processTranscriptResponse struct {
	TranscriptID         string                `json:"transcriptId"`
	ProcessingConfidence int                   `json:"processingConfidence"`
	Items                []model.ExtractedItem `json:"items"`
}

type recorderListResponse struct {
	Transcripts []fireflies.TranscriptSummary `json:"transcripts"`
}

type addNoteRequest struct {
	Type        string `json:"type,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
}

type editItemRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
	Feedback    *string `json:"feedback,omitempty"`
}

type batchRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
	Reason string   `json:"reason,omitempty"`
}

type batchResponse struct {
	Applied int            `json:"applied"`
	State   model.AppState `json:"state"`
}

type autoSaveRequest struct {
	Enabled bool `json:"enabled"`
}

type undoResponse struct {
	Undone string         `json:"undone"`
	State  model.AppState `json:"state"`
}

type backupListResponse struct {
	Backups []backupSummary `json:"backups"`
}

// backupSummary omits the full state payload when listing.
type backupSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	ItemCount int    `json:"itemCount"`
}
