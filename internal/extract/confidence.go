// File path: internal/extract/confidence.go
package extract

import "strings"

// Per-item confidence is a completeness heuristic in the 45-98 range: more
// filled-in fields mean the model had more to anchor on.
const (
	confidenceFloor = 45
	confidenceCap   = 98
)

func clampConfidence(score int) int {
	if score < confidenceFloor {
		return confidenceFloor
	}
	if score > confidenceCap {
		return confidenceCap
	}
	return score
}

func taskConfidence(task Task) int {
	score := 60
	if len(strings.TrimSpace(task.Description)) > 10 {
		score += 10
	}
	if task.DueDate != "" {
		score += 12
	}
	if task.Assignee != "" {
		score += 8
	}
	if task.Priority != "" {
		score += 5
	}
	return clampConfidence(score)
}

func eventConfidence(event Event) int {
	score := 58
	if len(strings.TrimSpace(event.Description)) > 10 {
		score += 8
	}
	if event.Date != "" {
		score += 15
	}
	if event.Time != "" {
		score += 10
	}
	return clampConfidence(score)
}

func ideaConfidence(idea Idea) int {
	score := 52
	if len(strings.TrimSpace(idea.Description)) > 20 {
		score += 15
	}
	return clampConfidence(score)
}

func contactConfidence(contact Contact) int {
	score := 55
	if contact.Email != "" {
		score += 18
	}
	if contact.Phone != "" {
		score += 10
	}
	if contact.Role != "" || contact.Company != "" {
		score += 8
	}
	return clampConfidence(score)
}

// processingConfidence scores the whole transcript run: longer transcripts
// that yielded items score higher, capped at 98 like item scores.
func processingConfidence(text string, itemCount int) int {
	words := len(strings.Fields(text))
	score := 50
	switch {
	case words > 2000:
		score += 20
	case words > 500:
		score += 15
	case words > 100:
		score += 8
	}
	if itemCount > 0 {
		score += 10
	}
	if itemCount > 5 {
		score += 5
	}
	return clampConfidence(score)
}
