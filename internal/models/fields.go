package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the maximum title length in characters.
const MaxTitleLength = 200

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

var contentURLPattern = regexp.MustCompile(`^https?://.+`)

// ValidationError carries field-level validation messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// SessionFields are the user-editable fields of a session.
// Every write replaces all of them.
type SessionFields struct {
	Title      string
	Tags       []string
	ContentURL string
}

// ParseTags splits a comma delimited tag string, dropping empty pieces and keeping order.
func ParseTags(raw string) []string {
	tags := []string{}
	for piece := range strings.SplitSeq(raw, ",") {
		if tag := strings.TrimSpace(piece); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Normalize returns a copy with the title and content URL trimmed and
// tags trimmed, lowercased and stripped of empty entries.
func (f SessionFields) Normalize() SessionFields {
	tags := make([]string, 0, len(f.Tags))
	for _, tag := range f.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}

	return SessionFields{
		Title:      strings.TrimSpace(f.Title),
		Tags:       tags,
		ContentURL: strings.TrimSpace(f.ContentURL),
	}
}

// Validate checks normalized fields. It returns a *ValidationError listing every bad field.
func (f SessionFields) Validate() error {
	problems := map[string]string{}

	switch n := utf8.RuneCountInString(f.Title); {
	case n == 0:
		problems["title"] = "Title is required"
	case n > MaxTitleLength:
		problems["title"] = "Title too long"
	}

	if f.ContentURL != "" && !contentURLPattern.MatchString(f.ContentURL) {
		problems["content_url"] = "Must be a valid HTTP/HTTPS URL"
	}

	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}
