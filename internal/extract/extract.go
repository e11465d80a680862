// File path: internal/extract/extract.go
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/llm"
	"github.com/transcriptflow/transcriptflow/internal/model"
)

// Chunking keeps each extraction request comfortably inside the model's
// context window. Overlap preserves sentences spanning a boundary.
const (
	chunkSize    = 6000
	chunkOverlap = 200
)

// Task, Event, Idea and Contact mirror the shapes the extraction model is
// asked to emit.
type Task struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
}

type Event struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Contact struct {
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Bundle is the raw structured payload returned by the extraction model.
type Bundle struct {
	Tasks    []Task    `json:"tasks"`
	Events   []Event   `json:"events"`
	Ideas    []Idea    `json:"ideas"`
	Contacts []Contact `json:"contacts"`
}

func (b *Bundle) merge(other Bundle) {
	b.Tasks = append(b.Tasks, other.Tasks...)
	b.Events = append(b.Events, other.Events...)
	b.Ideas = append(b.Ideas, other.Ideas...)
	b.Contacts = append(b.Contacts, other.Contacts...)
}

func (b Bundle) count() int {
	return len(b.Tasks) + len(b.Events) + len(b.Ideas) + len(b.Contacts)
}

// Service turns transcript text into extracted items via the LLM provider.
type Service struct {
	provider llm.Provider
	splitter textsplitter.RecursiveCharacter
}

func NewService(provider llm.Provider) *Service {
	return &Service{
		provider: provider,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Result carries the extraction output for one transcript.
type Result struct {
	Items                []model.ExtractedItem
	ProcessingConfidence int
}

// ExtractItems runs the transcript through the provider, chunking long
// inputs, and maps the model's structured payload into store-ready items
// tagged with transcriptID. Contacts without an email or phone are dropped.
func (s *Service) ExtractItems(ctx context.Context, text, transcriptID string) (Result, error) {
	logger := common.Logger()
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("transcript text required")
	}
	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		return Result{}, fmt.Errorf("split transcript: %w", err)
	}
	logger.Info("extract: processing transcript", "chunks", len(chunks), "chars", len(text), "provider", s.provider.Name())

	var bundle Bundle
	for i, chunk := range chunks {
		reply, err := s.provider.Chat(ctx, []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: chunk},
		})
		if err != nil {
			return Result{}, fmt.Errorf("extract chunk %d: %w", i+1, err)
		}
		part, err := parseBundle(reply)
		if err != nil {
			logger.Warn("extract: unparseable model reply, skipping chunk", "chunk", i+1, "error", err)
			continue
		}
		bundle.merge(part)
	}

	items := MapBundle(bundle, transcriptID)
	confidence := processingConfidence(text, len(items))
	logger.Info("extract: transcript processed", "items", len(items), "confidence", confidence)
	return Result{Items: items, ProcessingConfidence: confidence}, nil
}

const systemPrompt = `You extract structured productivity items from meeting transcripts.
Respond with a single JSON object with four arrays: "tasks", "events", "ideas", "contacts".
Each task has: title, description, priority (low|medium|high), dueDate (YYYY-MM-DD), assignee.
Each event has: title, description, date, time.
Each idea has: title, description.
Each contact has: name, role, company, email, phone.
Omit fields you cannot determine. Do not invent items that are not grounded in the transcript.`

// parseBundle tolerates code fences and leading prose around the JSON body.
func parseBundle(reply string) (Bundle, error) {
	body := strings.TrimSpace(reply)
	if idx := strings.Index(body, "{"); idx > 0 {
		body = body[idx:]
	}
	if idx := strings.LastIndex(body, "}"); idx >= 0 {
		body = body[:idx+1]
	}
	var bundle Bundle
	if err := json.Unmarshal([]byte(body), &bundle); err != nil {
		return Bundle{}, fmt.Errorf("decode extraction payload: %w", err)
	}
	return bundle, nil
}

// MapBundle converts a raw extraction payload into store-ready items:
// defaults filled, contacts filtered, confidence scored, transcript tagged.
// Ids and timestamps are assigned later by the store.
func MapBundle(bundle Bundle, transcriptID string) []model.ExtractedItem {
	items := make([]model.ExtractedItem, 0, bundle.count())
	for _, task := range bundle.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			continue
		}
		items = append(items, model.ExtractedItem{
			Type:               model.ItemTask,
			Title:              task.Title,
			Description:        task.Description,
			Category:           model.CategoryBusiness,
			Priority:           normalizePriority(task.Priority),
			DueDate:            task.DueDate,
			Assignee:           task.Assignee,
			Confidence:         taskConfidence(task),
			SourceTranscriptID: transcriptID,
		})
	}
	for _, event := range bundle.Events {
		if strings.TrimSpace(event.Title) == "" {
			continue
		}
		description := event.Description
		if event.Time != "" {
			description = strings.TrimSpace(description + " at " + event.Time)
		}
		items = append(items, model.ExtractedItem{
			Type:               model.ItemEvent,
			Title:              event.Title,
			Description:        description,
			Category:           model.CategoryBusiness,
			Priority:           model.PriorityMedium,
			DueDate:            event.Date,
			Confidence:         eventConfidence(event),
			SourceTranscriptID: transcriptID,
		})
	}
	for _, idea := range bundle.Ideas {
		if strings.TrimSpace(idea.Title) == "" {
			continue
		}
		items = append(items, model.ExtractedItem{
			Type:               model.ItemIdea,
			Title:              idea.Title,
			Description:        idea.Description,
			Category:           model.CategoryProjects,
			Priority:           model.PriorityLow,
			Confidence:         ideaConfidence(idea),
			SourceTranscriptID: transcriptID,
		})
	}
	for _, contact := range bundle.Contacts {
		if strings.TrimSpace(contact.Name) == "" {
			continue
		}
		if strings.TrimSpace(contact.Email) == "" && strings.TrimSpace(contact.Phone) == "" {
			continue
		}
		items = append(items, model.ExtractedItem{
			Type:               model.ItemContact,
			Title:              contact.Name,
			Description:        contactDescription(contact),
			Category:           model.CategoryBusiness,
			Priority:           model.PriorityLow,
			Confidence:         contactConfidence(contact),
			SourceTranscriptID: transcriptID,
		})
	}
	return items
}

func normalizePriority(value string) model.Priority {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return model.PriorityHigh
	case "low":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

func contactDescription(contact Contact) string {
	parts := make([]string, 0, 4)
	if contact.Role != "" {
		parts = append(parts, contact.Role)
	}
	if contact.Company != "" {
		parts = append(parts, contact.Company)
	}
	if contact.Email != "" {
		parts = append(parts, contact.Email)
	}
	if contact.Phone != "" {
		parts = append(parts, contact.Phone)
	}
	return strings.Join(parts, " · ")
}
