package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SourceEpisode is an episode record as served by the episodes API.
type SourceEpisode struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Members     string     `json:"members"`
	Thumbnail   string     `json:"thumbnail"`
	Description string     `json:"description,omitempty"`
	PublishedAt string     `json:"published_at"`
	File        SourceFile `json:"file"`
}

// SourceFile groups the media fields of a SourceEpisode.
type SourceFile struct {
	URL      string        `json:"url"`
	Type     string        `json:"type,omitempty"`
	Duration NumericString `json:"duration"`
}

// NumericString holds a number the API may encode either as a JSON string or
// as a JSON number. The text is kept verbatim; parsing happens at format time.
type NumericString string

// UnmarshalJSON accepts "123", 123 and 123.5.
func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("duration must be a string or number: %w", err)
	}
	*n = NumericString(num.String())
	return nil
}

// Episode is the display form consumed by the views.
type Episode struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Members          string `json:"members"`
	Thumbnail        string `json:"thumbnail"`
	URL              string `json:"url"`
	PublishedAt      string `json:"publishedAt"`
	Duration         int    `json:"duration"`
	DurationAsString string `json:"durationAsString"`
}

// EpisodeDetail extends Episode with the fields only the episode page shows.
type EpisodeDetail struct {
	Episode
	Description    string `json:"description"`
	PublishedAtISO string `json:"publishedAtISO"`
	MediaType      string `json:"mediaType,omitempty"`
}
