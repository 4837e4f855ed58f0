package episodes

import (
	"context"
	"fmt"

	"podcast-home/internal/format"
	"podcast-home/internal/models"
)

const (
	// DefaultLimit is the number of episodes requested per generation.
	DefaultLimit = 12
	// DefaultLatestCount is the size of the "latest" list.
	DefaultLatestCount = 2
)

// Source is the part of Client the pipeline depends on.
type Source interface {
	List(ctx context.Context, q Query) ([]models.SourceEpisode, error)
	Get(ctx context.Context, id string) (models.SourceEpisode, error)
}

// Lists is the pipeline output handed to the homepage view.
type Lists struct {
	LatestEpisodes []models.Episode `json:"latestEpisodes"`
	AllEpisodes    []models.Episode `json:"allEpisodes"`
}

// Pipeline fetches, formats and partitions episodes.
type Pipeline struct {
	source      Source
	dates       *format.DateFormatter
	limit       int
	latestCount int
}

// NewPipeline wires a pipeline. Non-positive limit or latestCount fall back to
// the defaults.
func NewPipeline(source Source, dates *format.DateFormatter, limit, latestCount int) *Pipeline {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if latestCount <= 0 {
		latestCount = DefaultLatestCount
	}
	return &Pipeline{
		source:      source,
		dates:       dates,
		limit:       limit,
		latestCount: latestCount,
	}
}

// Build runs one fetch → format → partition cycle.
func (p *Pipeline) Build(ctx context.Context) (Lists, error) {
	sources, err := p.source.List(ctx, LatestQuery(p.limit))
	if err != nil {
		return Lists{}, fmt.Errorf("fetch episodes: %w", err)
	}

	formatted, err := FormatAll(sources, p.dates)
	if err != nil {
		return Lists{}, fmt.Errorf("format episodes: %w", err)
	}

	latest, rest := Partition(formatted, p.latestCount)
	return Lists{LatestEpisodes: latest, AllEpisodes: rest}, nil
}

// Detail fetches and formats a single episode.
func (p *Pipeline) Detail(ctx context.Context, id string) (models.EpisodeDetail, error) {
	src, err := p.source.Get(ctx, id)
	if err != nil {
		return models.EpisodeDetail{}, err
	}
	return ToDetail(src, p.dates)
}
