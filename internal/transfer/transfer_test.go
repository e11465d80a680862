// File path: internal/transfer/transfer_test.go
package transfer

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/model"
)

func sampleState() model.AppState {
	state := model.EmptyState()
	state.TranscriptMetadata = []model.TranscriptMetadata{{
		ID:                   "t1",
		Name:                 "Weekly Sync",
		ProcessedAt:          time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		Duration:             "30 min",
		Type:                 model.TranscriptMeeting,
		ExtractedItemCount:   1,
		ProcessingConfidence: 90,
	}}
	state.ExtractedItems = []model.ExtractedItem{{
		ID:                 "i1",
		Type:               model.ItemTask,
		Title:              "Send recap",
		Category:           model.CategoryBusiness,
		Priority:           model.PriorityMedium,
		Confidence:         80,
		SourceTranscriptID: "t1",
		ExtractedAt:        time.Date(2026, 6, 1, 10, 5, 0, 0, time.UTC),
	}}
	return state
}

func TestExportImportRoundTrip(t *testing.T) {
	original := sampleState()
	blob, err := Export(original)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(blob.Filename, "transcriptflow-state-") || !strings.HasSuffix(blob.Filename, ".json") {
		t.Fatalf("unexpected filename %q", blob.Filename)
	}
	imported, err := Import(blob.Data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.LastSaved == nil {
		t.Fatal("expected refreshed lastSaved in export")
	}
	// Everything except lastSaved round-trips untouched.
	imported.LastSaved = nil
	original.LastSaved = nil
	if !reflect.DeepEqual(imported, original) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", imported, original)
	}
}

func TestImportRejectsInvalidJSON(t *testing.T) {
	_, err := Import([]byte("{not json"))
	if !errors.Is(err, model.ErrImportParse) {
		t.Fatalf("expected ErrImportParse, got %v", err)
	}
}

func TestImportRejectsUnknownSchemaVersion(t *testing.T) {
	_, err := Import([]byte(`{"schemaVersion": 99, "transcriptMetadata": [], "extractedItems": []}`))
	if !errors.Is(err, model.ErrImportParse) {
		t.Fatalf("expected ErrImportParse, got %v", err)
	}
}

func TestImportUpgradesLegacyPayload(t *testing.T) {
	state, err := Import([]byte(`{"transcriptMetadata": [], "extractedItems": [], "autoSave": true}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if state.SchemaVersion != model.SchemaVersion {
		t.Fatalf("expected upgraded schema version, got %d", state.SchemaVersion)
	}
}

func TestImportNormalizesNilSequences(t *testing.T) {
	state, err := Import([]byte(`{"schemaVersion": 1}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if state.TranscriptMetadata == nil || state.ExtractedItems == nil {
		t.Fatal("expected non-nil sequences")
	}
}
