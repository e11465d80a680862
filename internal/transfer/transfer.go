// File path: internal/transfer/transfer.go
package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/model"
)

// Blob is a downloadable serialization of an AppState.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export serializes the state as UTF-8 JSON with a refreshed lastSaved stamp
// and the current schema version.
func Export(state model.AppState) (Blob, error) {
	out := state.Clone()
	now := time.Now().UTC()
	out.LastSaved = &now
	out.SchemaVersion = model.SchemaVersion
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Blob{}, fmt.Errorf("encode export: %w", err)
	}
	return Blob{
		Filename:    fmt.Sprintf("transcriptflow-state-%s.json", now.Format("2006-01-02")),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// Import parses an exported file back into an AppState. Invalid JSON or an
// unsupported schema version is rejected; the caller's current state is
// never touched on failure. Version 0 payloads (exports that predate the
// version field) are accepted and upgraded.
func Import(data []byte) (model.AppState, error) {
	var state model.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.AppState{}, fmt.Errorf("%w: %v", model.ErrImportParse, err)
	}
	switch state.SchemaVersion {
	case 0:
		state.SchemaVersion = model.SchemaVersion
	case model.SchemaVersion:
	default:
		return model.AppState{}, fmt.Errorf("%w: unsupported schema version %d", model.ErrImportParse, state.SchemaVersion)
	}
	if state.TranscriptMetadata == nil {
		state.TranscriptMetadata = []model.TranscriptMetadata{}
	}
	if state.ExtractedItems == nil {
		state.ExtractedItems = []model.ExtractedItem{}
	}
	return state, nil
}
