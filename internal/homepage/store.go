// Package homepage keeps the most recently generated homepage data.
package homepage

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"podcast-home/internal/episodes"
	"podcast-home/internal/logging"
	"podcast-home/internal/models"
)

// Builder produces fresh homepage lists. *episodes.Pipeline satisfies it.
type Builder interface {
	Build(ctx context.Context) (episodes.Lists, error)
}

// Snapshot is one successful generation.
type Snapshot struct {
	LatestEpisodes []models.Episode `json:"latestEpisodes"`
	AllEpisodes    []models.Episode `json:"allEpisodes"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// Episodes returns the latest and remaining lists joined in order.
func (s Snapshot) Episodes() []models.Episode {
	result := make([]models.Episode, 0, len(s.LatestEpisodes)+len(s.AllEpisodes))
	result = append(result, s.LatestEpisodes...)
	return append(result, s.AllEpisodes...)
}

// Store holds the last successful snapshot.
type Store struct {
	builder Builder
	logger  *logrus.Logger
	now     func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
	ok       bool
}

// NewStore creates an empty Store fed by builder.
func NewStore(builder Builder, logger *logrus.Logger) *Store {
	return &Store{
		builder: builder,
		logger:  logging.OrDefault(logger),
		now:     time.Now,
	}
}

// Regenerate runs the builder once. On failure the previous snapshot is kept.
func (s *Store) Regenerate(ctx context.Context) error {
	start := s.now()
	lists, err := s.builder.Build(ctx)
	if err != nil {
		return err
	}

	snapshot := Snapshot{
		LatestEpisodes: nonNil(lists.LatestEpisodes),
		AllEpisodes:    nonNil(lists.AllEpisodes),
		GeneratedAt:    s.now().UTC(),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.ok = true
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"latest":   len(snapshot.LatestEpisodes),
		"all":      len(snapshot.AllEpisodes),
		"duration": s.now().Sub(start).String(),
	}).Info("homepage regenerated")
	return nil
}

// Current returns the snapshot and whether one has been generated yet.
func (s *Store) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.ok
}

func nonNil(list []models.Episode) []models.Episode {
	if list == nil {
		return []models.Episode{}
	}
	return list
}
