// Package view renders the homepage and episode pages from html/template
// sources. Templates are embedded; a directory of same-named files may
// override them and is reloaded when it changes.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"podcast-home/internal/logging"
	"podcast-home/internal/models"
	"podcast-home/internal/watch"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

// Static returns the stylesheet and icons the templates reference.
func Static() fs.FS {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Site is the static site identity shown on every page.
type Site struct {
	Title       string
	Description string
}

// Options configures a Renderer.
type Options struct {
	Site        Site
	Locale      language.Tag
	OverrideDir string
	Debounce    time.Duration
}

// HomeData is the model of home.html.
type HomeData struct {
	Site           Site
	Labels         Labels
	PageTitle      string
	LatestEpisodes []models.Episode
	AllEpisodes    []models.Episode
	GeneratedAt    time.Time
}

// EpisodeData is the model of episode.html.
type EpisodeData struct {
	Site      Site
	Labels    Labels
	PageTitle string
	Episode   models.EpisodeDetail
}

// Renderer executes the page templates.
type Renderer struct {
	site   Site
	labels Labels
	dir    string
	logger *logrus.Logger

	mu   sync.RWMutex
	tmpl *template.Template

	watch *watch.Dir
}

// NewRenderer parses the templates and, when opts.OverrideDir is set, starts
// watching it.
func NewRenderer(opts Options, logger *logrus.Logger) (*Renderer, error) {
	r := &Renderer{
		site:   opts.Site,
		labels: LabelsFor(opts.Locale),
		dir:    opts.OverrideDir,
		logger: logging.OrDefault(logger),
	}

	tmpl, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.tmpl = tmpl

	if r.dir == "" {
		return r, nil
	}

	dir, err := watch.New(r.dir, watch.Options{
		Delay: opts.Debounce,
		Match: func(event fsnotify.Event) bool {
			return strings.EqualFold(filepath.Ext(event.Name), ".html")
		},
		OnChange: func() {
			if err := r.reload(); err != nil {
				r.logger.WithError(err).Error("template reload failed; keeping previous templates")
			}
		},
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("watch template dir %s: %w", r.dir, err)
	}
	r.watch = dir

	return r, nil
}

// Close stops watching the override directory.
func (r *Renderer) Close() error {
	if r.watch == nil {
		return nil
	}
	return r.watch.Close()
}

// RenderHome writes the homepage.
func (r *Renderer) RenderHome(w io.Writer, latest, all []models.Episode, generatedAt time.Time) error {
	return r.execute(w, "home.html", HomeData{
		Site:           r.site,
		Labels:         r.labels,
		PageTitle:      r.site.Title,
		LatestEpisodes: latest,
		AllEpisodes:    all,
		GeneratedAt:    generatedAt,
	})
}

// RenderEpisode writes one episode page.
func (r *Renderer) RenderEpisode(w io.Writer, episode models.EpisodeDetail) error {
	return r.execute(w, "episode.html", EpisodeData{
		Site:      r.site,
		Labels:    r.labels,
		PageTitle: episode.Title + " | " + r.site.Title,
		Episode:   episode,
	})
}

// execute renders into a buffer first so a template error never leaves a
// half-written page behind.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) parse() (*template.Template, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		// Episode descriptions come from the episodes API as HTML.
		"trustedHTML": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(embeddedTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}

	if r.dir == "" {
		return tmpl, nil
	}

	overrides, err := filepath.Glob(filepath.Join(r.dir, "*.html"))
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return tmpl, nil
	}
	if _, err := tmpl.ParseFiles(overrides...); err != nil {
		return nil, fmt.Errorf("parse template overrides: %w", err)
	}
	return tmpl, nil
}

func (r *Renderer) reload() error {
	tmpl, err := r.parse()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	r.logger.WithField("dir", r.dir).Info("templates reloaded")
	return nil
}
