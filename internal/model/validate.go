// File path: internal/model/validate.go
package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	titleMinLen       = 3
	titleMaxLen       = 200
	descriptionMaxLen = 1000
	assigneeMaxLen    = 100

	// Due dates more than one day in the past are rejected; same-day and
	// yesterday survive timezone skew between the user and the server.
	duePastGrace = 24 * time.Hour
)

var dueDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04",
	"January 2, 2006",
}

var phoneRunPattern = regexp.MustCompile(`\d{3}`)

// Sanitize trims surrounding whitespace and strips angle brackets so stored
// text can never smuggle markup into a rendering layer.
func Sanitize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "<", "")
	text = strings.ReplaceAll(text, ">", "")
	return text
}

// ParseDueDate resolves a free-form due date string against the accepted
// layouts. Returns false when no layout matches.
func ParseDueDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dueDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ValidateItem checks an item payload against the field constraints. The
// returned slice is empty iff the payload is acceptable; a write must be
// rejected if any error is present.
func ValidateItem(candidate ExtractedItem) ValidationErrors {
	return validateItemAt(candidate, time.Now())
}

func validateItemAt(candidate ExtractedItem, now time.Time) ValidationErrors {
	var errs ValidationErrors

	// Limits count characters, not bytes, so multi-byte scripts are
	// measured the same as ASCII.
	title := strings.TrimSpace(candidate.Title)
	if utf8.RuneCountInString(title) < titleMinLen {
		errs = append(errs, FieldError{Field: "title", Message: "title must be at least 3 characters"})
	} else if utf8.RuneCountInString(title) > titleMaxLen {
		errs = append(errs, FieldError{Field: "title", Message: "title must be at most 200 characters"})
	}

	if utf8.RuneCountInString(candidate.Description) > descriptionMaxLen {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 1000 characters"})
	}

	if due := strings.TrimSpace(candidate.DueDate); due != "" {
		ts, ok := ParseDueDate(due)
		if !ok {
			errs = append(errs, FieldError{Field: "dueDate", Message: "due date is not a recognizable date"})
		} else if ts.Before(now.Add(-duePastGrace)) {
			errs = append(errs, FieldError{Field: "dueDate", Message: "due date cannot be more than a day in the past"})
		}
	}

	if utf8.RuneCountInString(candidate.Assignee) > assigneeMaxLen {
		errs = append(errs, FieldError{Field: "assignee", Message: "assignee must be at most 100 characters"})
	}

	if candidate.Type == ItemContact {
		if !strings.Contains(candidate.Description, "@") && !phoneRunPattern.MatchString(candidate.Description) {
			errs = append(errs, FieldError{Field: "description", Message: "contact needs an email address or phone number in the description"})
		}
	}

	return errs
}
