// File path: internal/model/types.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion identifies the AppState wire format. Exports stamp it and
// imports reject payloads carrying a different version.
const SchemaVersion = 1

// TranscriptType classifies the source of an ingested transcript.
type TranscriptType string

const (
	TranscriptMeeting    TranscriptType = "meeting"
	TranscriptVoiceMemo  TranscriptType = "voice-memo"
	TranscriptBrainstorm TranscriptType = "brainstorm"
)

// ItemType classifies an extracted item.
type ItemType string

const (
	ItemTask    ItemType = "task"
	ItemEvent   ItemType = "event"
	ItemIdea    ItemType = "idea"
	ItemContact ItemType = "contact"
)

// Category buckets an item for organization.
type Category string

const (
	CategoryBusiness Category = "Business"
	CategoryPersonal Category = "Personal"
	CategoryHome     Category = "Home"
	CategoryProjects Category = "Projects"
)

// Priority ranks an item's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TranscriptMetadata describes one ingested recording or text source. Records
// are immutable after creation; only a full state clear removes them.
type TranscriptMetadata struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	ProcessedAt          time.Time      `json:"processedAt"`
	Duration             string         `json:"duration"`
	Type                 TranscriptType `json:"type"`
	ExtractedItemCount   int            `json:"extractedItemCount"`
	ProcessingConfidence int            `json:"processingConfidence"`
}

// ExtractedItem is one actionable unit derived from a transcript, or a
// manually added note (empty SourceTranscriptID).
type ExtractedItem struct {
	ID          string   `json:"id"`
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	// Confidence is the extraction pipeline's heuristic score. Upstream
	// sources occasionally report values above 100; stored unclamped,
	// clamped on display only.
	Confidence         int       `json:"confidence"`
	Approved           bool      `json:"approved"`
	Completed          bool      `json:"completed"`
	Feedback           string    `json:"feedback,omitempty"`
	SourceTranscriptID string    `json:"sourceTranscriptId"`
	ExtractedAt        time.Time `json:"extractedAt"`
}

// DisplayConfidence clamps the raw confidence score into 0-100 for rendering.
func (it ExtractedItem) DisplayConfidence() int {
	switch {
	case it.Confidence < 0:
		return 0
	case it.Confidence > 100:
		return 100
	default:
		return it.Confidence
	}
}

// AppState is the aggregate root for one user's data. Sequences are ordered
// newest first. Exactly one live AppState exists per open session.
type AppState struct {
	SchemaVersion      int                  `json:"schemaVersion"`
	TranscriptMetadata []TranscriptMetadata `json:"transcriptMetadata"`
	ExtractedItems     []ExtractedItem      `json:"extractedItems"`
	LastSaved          *time.Time           `json:"lastSaved,omitempty"`
	AutoSave           bool                 `json:"autoSave"`
}

// EmptyState returns the canonical empty AppState used for new users and for
// soft recovery from unreadable stored data.
func EmptyState() AppState {
	return AppState{
		SchemaVersion:      SchemaVersion,
		TranscriptMetadata: []TranscriptMetadata{},
		ExtractedItems:     []ExtractedItem{},
		AutoSave:           true,
	}
}

// Clone returns a deep copy of the state. Mutators and the backup manager
// rely on clones so no caller ever observes a partially applied transition.
func (s AppState) Clone() AppState {
	out := s
	out.TranscriptMetadata = append([]TranscriptMetadata(nil), s.TranscriptMetadata...)
	out.ExtractedItems = append([]ExtractedItem(nil), s.ExtractedItems...)
	if s.LastSaved != nil {
		ts := *s.LastSaved
		out.LastSaved = &ts
	}
	return out
}

// AutoBackup is a named snapshot of a full AppState, taken before risky
// mutations. Snapshots are immutable after creation.
type AutoBackup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	ItemCount int       `json:"itemCount"`
	Data      AppState  `json:"data"`
}

// NewID returns a fresh unique identifier for transcripts, items and backups.
func NewID() string {
	return uuid.NewString()
}
