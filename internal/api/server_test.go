// File path: internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/transcriptflow/transcriptflow/internal/backup"
	"github.com/transcriptflow/transcriptflow/internal/extract"
	"github.com/transcriptflow/transcriptflow/internal/fireflies"
	"github.com/transcriptflow/transcriptflow/internal/llm"
	"github.com/transcriptflow/transcriptflow/internal/model"
	"github.com/transcriptflow/transcriptflow/internal/persist"
	"github.com/transcriptflow/transcriptflow/internal/store"
)

type scriptedProvider struct {
	reply string
	calls int
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	p.calls++
	return p.reply, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

const taskBundle = `{
        "tasks": [{"title": "Send launch recap", "description": "Summarize decisions for the team", "priority": "high", "assignee": "Dana"}],
        "events": [],
        "ideas": [],
        "contacts": []
}`

func newTestServer(t *testing.T, provider llm.Provider, recorder *fireflies.Client) *Server {
	t.Helper()
	ps, err := persist.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open persistence: %v", err)
	}
	t.Cleanup(func() { ps.Close() })
	backups, err := backup.NewManager(ps)
	if err != nil {
		t.Fatalf("backup manager: %v", err)
	}
	registry := store.NewRegistry(ps, backups)
	if recorder == nil {
		recorder = fireflies.New("", "")
	}
	srv, err := NewServer(registry, backups, extract.NewService(provider), recorder, Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch payload := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(payload))
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) model.AppState {
	t.Helper()
	var state model.AppState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v (body %s)", err, rec.Body.String())
	}
	return state
}

func TestProcessTranscriptCreatesTaggedItems(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/v1/transcripts", "user-1", processTranscriptRequest{
		Name: "Launch sync",
		Type: "meeting",
		Text: "We agreed Dana sends the recap after the launch sync.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp processTranscriptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TranscriptID == "" {
		t.Fatal("expected a transcript id")
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	if resp.Items[0].SourceTranscriptID != resp.TranscriptID {
		t.Fatalf("item tagged with %q, want %q", resp.Items[0].SourceTranscriptID, resp.TranscriptID)
	}

	state := decodeState(t, doRequest(t, srv, http.MethodGet, "/v1/state", "user-1", nil))
	if len(state.TranscriptMetadata) != 1 || state.TranscriptMetadata[0].Name != "Launch sync" {
		t.Fatalf("unexpected transcript metadata: %+v", state.TranscriptMetadata)
	}
	if len(state.ExtractedItems) != 1 || state.ExtractedItems[0].Title != "Send launch recap" {
		t.Fatalf("unexpected items: %+v", state.ExtractedItems)
	}
	if state.TranscriptMetadata[0].ExtractedItemCount != 1 {
		t.Fatalf("expected item count 1, got %d", state.TranscriptMetadata[0].ExtractedItemCount)
	}
}

func TestProcessTranscriptRequiresText(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	rec := doRequest(t, srv, http.MethodPost, "/v1/transcripts", "user-1", processTranscriptRequest{Name: "Empty"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddNoteValidatesAndStores(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/v1/items", "user-1", addNoteRequest{Title: "ab"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for short title, got %d", rec.Code)
	}
	var failure struct {
		Fields model.ValidationErrors `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &failure); err != nil {
		t.Fatalf("decode failure: %v", err)
	}
	if len(failure.Fields) == 0 || failure.Fields[0].Field != "title" {
		t.Fatalf("expected title field error, got %+v", failure.Fields)
	}

	rec = doRequest(t, srv, http.MethodPost, "/v1/items", "user-1", addNoteRequest{
		Type:     "task",
		Title:    "<b>Prepare agenda</b>",
		Priority: "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item model.ExtractedItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.ID == "" || item.Title != "bPrepare agenda/b" || item.Type != model.ItemTask {
		t.Fatalf("unexpected stored item: %+v", item)
	}
	if item.Confidence != 100 {
		t.Fatalf("manual note confidence = %d, want 100", item.Confidence)
	}
}

func TestCompletionRequiresApproval(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	rec := doRequest(t, srv, http.MethodPost, "/v1/items", "user-1", addNoteRequest{Title: "Review budget"})
	var item model.ExtractedItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}

	rec = doRequest(t, srv, http.MethodPost, "/v1/items/"+item.ID+"/completion", "user-1", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 completing unapproved item, got %d", rec.Code)
	}

	if rec = doRequest(t, srv, http.MethodPost, "/v1/items/"+item.ID+"/approval", "user-1", nil); rec.Code != http.StatusOK {
		t.Fatalf("approve: %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodPost, "/v1/items/"+item.ID+"/completion", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete after approval: %d", rec.Code)
	}
	state := decodeState(t, rec)
	if !state.ExtractedItems[0].Completed {
		t.Fatal("expected item completed")
	}
}

func TestBatchRejectRequiresReason(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	rec := doRequest(t, srv, http.MethodPost, "/v1/items", "user-1", addNoteRequest{Title: "Draft roadmap"})
	var item model.ExtractedItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}

	rec = doRequest(t, srv, http.MethodPost, "/v1/items/batch", "user-1", batchRequest{Action: "reject", IDs: []string{item.ID}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/v1/items/batch", "user-1", batchRequest{Action: "reject", IDs: []string{item.ID}, Reason: "duplicate"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode batch response: %v", err)
	}
	if resp.Applied != 1 {
		t.Fatalf("applied = %d, want 1", resp.Applied)
	}
	if got := resp.State.ExtractedItems[0].Feedback; got != "duplicate" {
		t.Fatalf("feedback = %q, want %q", got, "duplicate")
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	doRequest(t, srv, http.MethodPost, "/v1/items", "user-1", addNoteRequest{Title: "Keep this item"})

	rec := doRequest(t, srv, http.MethodPost, "/v1/import", "user-1", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	state := decodeState(t, doRequest(t, srv, http.MethodGet, "/v1/state", "user-1", nil))
	if len(state.ExtractedItems) != 1 {
		t.Fatalf("state changed by failed import: %+v", state.ExtractedItems)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	doRequest(t, srv, http.MethodPost, "/v1/items", "user-1", addNoteRequest{Title: "Exported item"})

	rec := doRequest(t, srv, http.MethodGet, "/v1/export", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", got)
	}
	exported := rec.Body.String()

	if rec = doRequest(t, srv, http.MethodPost, "/v1/state/clear", "user-1", nil); rec.Code != http.StatusOK {
		t.Fatalf("clear: %d", rec.Code)
	}
	if state := decodeState(t, rec); len(state.ExtractedItems) != 0 {
		t.Fatalf("expected empty state after clear, got %+v", state.ExtractedItems)
	}

	rec = doRequest(t, srv, http.MethodPost, "/v1/import", "user-1", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if len(state.ExtractedItems) != 1 || state.ExtractedItems[0].Title != "Exported item" {
		t.Fatalf("unexpected imported state: %+v", state.ExtractedItems)
	}
}

func TestBackupListAndRestore(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)

	// First transcript snapshots the empty state; the second snapshots a
	// state that already holds one transcript.
	for i := 0; i < 2; i++ {
		rec := doRequest(t, srv, http.MethodPost, "/v1/transcripts", "user-1", processTranscriptRequest{
			Name: "Session",
			Text: "Dana owns the recap again this week.",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("process transcript %d: %d", i, rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/v1/backups", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list backups: %d", rec.Code)
	}
	var list backupListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode backups: %v", err)
	}
	if len(list.Backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(list.Backups))
	}

	// Restoring the snapshot taken before the first transcript brings
	// back the empty state.
	var oldest backupSummary
	for _, b := range list.Backups {
		if b.ItemCount == 0 {
			oldest = b
		}
	}
	if oldest.ID == "" {
		t.Fatalf("no empty-state backup in %+v", list.Backups)
	}
	rec = doRequest(t, srv, http.MethodPost, "/v1/backups/"+oldest.ID+"/restore", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if len(state.TranscriptMetadata) != 0 || len(state.ExtractedItems) != 0 {
		t.Fatalf("expected restored empty state, got %+v", state)
	}

	// The restore itself is undoable.
	rec = doRequest(t, srv, http.MethodPost, "/v1/state/undo", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("undo restore: %d", rec.Code)
	}
	var undone undoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &undone); err != nil {
		t.Fatalf("decode undo: %v", err)
	}
	if len(undone.State.TranscriptMetadata) != 2 {
		t.Fatalf("expected 2 transcripts after undo, got %d", len(undone.State.TranscriptMetadata))
	}
}

func TestRestoreUnknownBackupReturnsNotFound(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	rec := doRequest(t, srv, http.MethodPost, "/v1/backups/missing/restore", "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUndoWithEmptyLogConflicts(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	rec := doRequest(t, srv, http.MethodPost, "/v1/state/undo", "user-1", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRecorderListWithoutKeyReturnsUnavailable(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	rec := doRequest(t, srv, http.MethodGet, "/v1/recorder/transcripts", "user-1", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRecorderProcessPullsAndExtracts(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode upstream request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Query, "sentences") {
			w.Write([]byte(`{"data": {"transcript": {"title": "Planning call", "duration": 25, "sentences": [
                                {"speaker_name": "Dana", "text": "I will send the recap."}
                        ]}}}`))
			return
		}
		w.Write([]byte(`{"data": {"transcripts": [
                        {"id": "ff-1", "title": "Planning call", "date": "2026-08-27", "duration": 25}
                ]}}`))
	}))
	defer upstream.Close()

	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, fireflies.New(upstream.URL, "test-key"))

	rec := doRequest(t, srv, http.MethodPost, "/v1/recorder/transcripts/ff-1/process", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp processTranscriptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}

	state := decodeState(t, doRequest(t, srv, http.MethodGet, "/v1/state", "user-1", nil))
	if len(state.TranscriptMetadata) != 1 {
		t.Fatalf("expected 1 transcript, got %+v", state.TranscriptMetadata)
	}
	meta := state.TranscriptMetadata[0]
	if meta.Name != "Planning call" || meta.Duration != "25 min" || meta.Type != model.TranscriptMeeting {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestAnonymousStateIsNotPersisted(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{reply: taskBundle}, nil)
	rec := doRequest(t, srv, http.MethodPost, "/v1/items", "", addNoteRequest{Title: "Ephemeral note"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add note: %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/v1/backups", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list backups: %d", rec.Code)
	}
	var list backupListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode backups: %v", err)
	}
	if len(list.Backups) != 0 {
		t.Fatalf("anonymous sessions must not create backups: %+v", list.Backups)
	}
}
