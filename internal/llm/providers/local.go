// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
)

// LocalProvider is the no-credentials fallback. It returns an empty
// extraction payload so the rest of the pipeline keeps working in
// development without an API key.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	return `{"tasks": [], "events": [], "ideas": [], "contacts": []}`, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
