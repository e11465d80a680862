// File path: internal/fireflies/client.go
package fireflies

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/transcriptflow/transcriptflow/internal/common"
)

const defaultEndpoint = "https://api.fireflies.ai/graphql"

// ErrNotConfigured reports a client without an API key. Recorder pulls are
// an optional ingestion path; callers surface this as a user-facing message
// rather than a server fault.
var ErrNotConfigured = errors.New("fireflies api key not configured")

// TranscriptSummary is one recording as listed by the recorder service.
type TranscriptSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Duration string `json:"duration"`
	Summary  string `json:"summary,omitempty"`
}

// Client talks to the meeting-recorder's GraphQL API. The transcript text it
// returns is treated as opaque input for the extraction pipeline.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewFromEnv constructs a client from FIREFLIES_API_KEY and, optionally,
// FIREFLIES_ENDPOINT. A missing key yields a client whose calls return
// ErrNotConfigured.
func NewFromEnv() *Client {
	endpoint := strings.TrimSpace(os.Getenv("FIREFLIES_ENDPOINT"))
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return New(endpoint, strings.TrimSpace(os.Getenv("FIREFLIES_API_KEY")))
}

func New(endpoint, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode recorder query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build recorder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recorder request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read recorder response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recorder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode recorder response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("recorder error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode recorder payload: %w", err)
	}
	return nil
}

const listQuery = `query Transcripts($limit: Int) {
  transcripts(limit: $limit) {
    id
    title
    date
    duration
    summary { overview }
  }
}`

// ListRecent returns the most recent recordings, newest first.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]TranscriptSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	var data struct {
		Transcripts []struct {
			ID       string  `json:"id"`
			Title    string  `json:"title"`
			Date     string  `json:"date"`
			Duration float64 `json:"duration"`
			Summary  *struct {
				Overview string `json:"overview"`
			} `json:"summary"`
		} `json:"transcripts"`
	}
	if err := c.query(ctx, listQuery, map[string]any{"limit": limit}, &data); err != nil {
		return nil, err
	}
	out := make([]TranscriptSummary, 0, len(data.Transcripts))
	for _, t := range data.Transcripts {
		summary := TranscriptSummary{
			ID:       t.ID,
			Title:    t.Title,
			Date:     t.Date,
			Duration: formatDuration(t.Duration),
		}
		if t.Summary != nil {
			summary.Summary = t.Summary.Overview
		}
		out = append(out, summary)
	}
	common.Logger().Debug("fireflies: listed transcripts", "count", len(out))
	return out, nil
}

const contentQuery = `query Transcript($id: String!) {
  transcript(id: $id) {
    title
    duration
    sentences {
      speaker_name
      text
    }
  }
}`

// TranscriptDetail is one recording fetched in full: its metadata plus the
// transcript text rendered as "Speaker: sentence" lines.
type TranscriptDetail struct {
	Title    string
	Duration string
	Text     string
}

// TranscriptContent fetches a single recording. Title and duration ride
// along in the same query, so the caller never has to re-list recordings
// to recover them.
func (c *Client) TranscriptContent(ctx context.Context, id string) (TranscriptDetail, error) {
	if strings.TrimSpace(id) == "" {
		return TranscriptDetail{}, errors.New("transcript id required")
	}
	var data struct {
		Transcript struct {
			Title     string  `json:"title"`
			Duration  float64 `json:"duration"`
			Sentences []struct {
				SpeakerName string `json:"speaker_name"`
				Text        string `json:"text"`
			} `json:"sentences"`
		} `json:"transcript"`
	}
	if err := c.query(ctx, contentQuery, map[string]any{"id": id}, &data); err != nil {
		return TranscriptDetail{}, err
	}
	var sb strings.Builder
	for _, sentence := range data.Transcript.Sentences {
		if sentence.SpeakerName != "" {
			sb.WriteString(sentence.SpeakerName)
			sb.WriteString(": ")
		}
		sb.WriteString(sentence.Text)
		sb.WriteString("\n")
	}
	return TranscriptDetail{
		Title:    data.Transcript.Title,
		Duration: formatDuration(data.Transcript.Duration),
		Text:     sb.String(),
	}, nil
}

func formatDuration(minutes float64) string {
	if minutes <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%.0f min", minutes)
}
