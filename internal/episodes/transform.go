package episodes

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"podcast-home/internal/format"
	"podcast-home/internal/models"
)

// ToDisplay maps a source record to its display form.
func ToDisplay(src models.SourceEpisode, dates *format.DateFormatter) (models.Episode, error) {
	episode, _, err := toDisplay(src, dates)
	return episode, err
}

// ToDetail maps a source record to the episode page form.
func ToDetail(src models.SourceEpisode, dates *format.DateFormatter) (models.EpisodeDetail, error) {
	episode, published, err := toDisplay(src, dates)
	if err != nil {
		return models.EpisodeDetail{}, err
	}
	return models.EpisodeDetail{
		Episode:        episode,
		Description:    src.Description,
		PublishedAtISO: published.UTC().Format(time.RFC3339),
		MediaType:      src.File.Type,
	}, nil
}

// toDisplay also returns the parsed publication time.
func toDisplay(src models.SourceEpisode, dates *format.DateFormatter) (models.Episode, time.Time, error) {
	published, err := format.ParseTimestamp(src.PublishedAt, dates.Location())
	if err != nil {
		return models.Episode{}, time.Time{}, fmt.Errorf("episode %s: %w", src.ID, err)
	}
	seconds, err := format.ParseSeconds(string(src.File.Duration))
	if err != nil {
		return models.Episode{}, time.Time{}, fmt.Errorf("episode %s: %w", src.ID, err)
	}

	return models.Episode{
		ID:               src.ID,
		Title:            src.Title,
		Members:          src.Members,
		Thumbnail:        src.Thumbnail,
		URL:              src.File.URL,
		PublishedAt:      dates.Format(published),
		Duration:         seconds,
		DurationAsString: format.Duration(seconds),
	}, published, nil
}

// FormatAll maps every record, failing on the first record that cannot be
// formatted.
func FormatAll(sources []models.SourceEpisode, dates *format.DateFormatter) ([]models.Episode, error) {
	result := make([]models.Episode, 0, len(sources))
	for _, src := range sources {
		episode, err := ToDisplay(src, dates)
		if err != nil {
			return nil, err
		}
		result = append(result, episode)
	}
	return result, nil
}

// Partition splits list into its first n elements and the rest. Both halves
// share list's backing array; latest is capped at n so appending to it
// reallocates instead of overwriting rest.
func Partition(list []models.Episode, n int) (latest, rest []models.Episode) {
	n = lo.Clamp(n, 0, len(list))
	return list[:n:n], list[n:]
}
