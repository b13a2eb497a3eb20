package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wolfeidau/sessionhub/internal/models"
)

// TagList decodes either a comma separated string ("yoga, morning") or a JSON array of strings.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*t = models.ParseTags(raw)
		return nil
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings: %w", err)
	}
	*t = tags
	return nil
}

// SaveRequest is the body of save-draft and publish.
// An empty ID creates a new session.
type SaveRequest struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Tags       TagList `json:"tags"`
	ContentURL string  `json:"content_url"`
}

// UnmarshalJSON accepts json_file_url as an alias of content_url.
func (r *SaveRequest) UnmarshalJSON(data []byte) error {
	type plain SaveRequest
	var aux struct {
		plain
		JSONFileURL string `json:"json_file_url"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = SaveRequest(aux.plain)
	if r.ContentURL == "" {
		r.ContentURL = aux.JSONFileURL
	}
	return nil
}

// Fields returns the editable fields carried by the request.
func (r SaveRequest) Fields() models.SessionFields {
	return models.SessionFields{
		Title:      r.Title,
		Tags:       []string(r.Tags),
		ContentURL: r.ContentURL,
	}
}

// SaveResponse is returned by save-draft and publish.
type SaveResponse struct {
	Message string          `json:"message"`
	Session *models.Session `json:"session"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}
