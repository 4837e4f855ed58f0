// Package catalog keeps an in-memory episode index of a local audio
// directory, refreshed as the directory changes.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"podcast-home/internal/logging"
	"podcast-home/internal/metadata"
	"podcast-home/internal/models"
	"podcast-home/internal/watch"
)

// Entry is one indexed audio file.
type Entry struct {
	Episode models.SourceEpisode
	Path    string
}

// Catalog watches an audio directory and serves its episodes.
type Catalog struct {
	root    string
	allowed map[string]struct{}
	watch   *watch.Dir
	logger  *logrus.Logger

	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
}

// New scans root and starts watching it.
func New(root string, allowed []string, debounce time.Duration, logger *logrus.Logger) (*Catalog, error) {
	c := &Catalog{
		root:    root,
		allowed: make(map[string]struct{}, len(allowed)),
		logger:  logging.OrDefault(logger),
	}

	for _, ext := range allowed {
		c.allowed[strings.ToLower(ext)] = struct{}{}
	}

	dir, err := watch.New(root, watch.Options{
		Recursive: true,
		Delay:     debounce,
		Match:     c.affectsCatalog,
		OnChange: func() {
			if err := c.refresh(); err != nil {
				c.logger.WithError(err).Error("catalog refresh failed")
			}
		},
	}, c.logger)
	if err != nil {
		return nil, err
	}
	c.watch = dir

	if err := c.refresh(); err != nil {
		dir.Close()
		return nil, err
	}

	return c, nil
}

// Root returns the directory being served.
func (c *Catalog) Root() string {
	return c.root
}

// Close stops watching the directory.
func (c *Catalog) Close() error {
	return c.watch.Close()
}

// List returns a copy of every indexed episode.
func (c *Catalog) List() []models.SourceEpisode {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.SourceEpisode, len(c.entries))
	for i, entry := range c.entries {
		result[i] = entry.Episode
	}
	return result
}

// Lookup finds an entry by episode id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// affectsCatalog accepts audio file changes. Removals and renames always
// count since a removed directory may have held audio files.
func (c *Catalog) affectsCatalog(event fsnotify.Event) bool {
	return c.isAllowed(event.Name) || event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}

func (c *Catalog) refresh() error {
	var entries []Entry

	err := filepath.WalkDir(c.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			c.logger.WithError(err).WithField("path", path).Warn("walk error")
			return nil
		}
		if d.IsDir() || !c.isAllowed(path) {
			return nil
		}

		episode, err := metadata.BuildSource(path, c.root)
		if err != nil {
			c.logger.WithError(err).WithField("path", path).Warn("metadata error")
			return nil
		}

		entries = append(entries, Entry{Episode: episode, Path: path})
		return nil
	})
	if err != nil {
		return err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Episode.File.URL < entries[j].Episode.File.URL
	})

	unique := entries[:0]
	byID := make(map[string]int, len(entries))
	for _, entry := range entries {
		if _, dup := byID[entry.Episode.ID]; dup {
			c.logger.WithField("path", entry.Path).Warn("duplicate episode id; keeping first file")
			continue
		}
		unique = append(unique, entry)
		byID[entry.Episode.ID] = len(unique) - 1
	}

	c.mu.Lock()
	c.entries = unique
	c.byID = byID
	c.mu.Unlock()

	c.logger.WithField("episodes", len(unique)).Info("catalog refreshed")
	return nil
}

func (c *Catalog) isAllowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := c.allowed[ext]
	return ok
}
