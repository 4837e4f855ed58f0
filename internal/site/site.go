// Package site serves the generated homepage, episode pages and the feeds
// derived from them.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"podcast-home/internal/episodes"
	"podcast-home/internal/homepage"
	"podcast-home/internal/httpx"
	"podcast-home/internal/logging"
	"podcast-home/internal/models"
)

// SnapshotSource exposes the latest generated homepage data.
type SnapshotSource interface {
	Current() (homepage.Snapshot, bool)
}

// EpisodeDetailer loads a single episode for its page.
type EpisodeDetailer interface {
	Detail(ctx context.Context, id string) (models.EpisodeDetail, error)
}

// Renderer writes HTML pages.
type Renderer interface {
	RenderHome(w io.Writer, latest, all []models.Episode, generatedAt time.Time) error
	RenderEpisode(w io.Writer, episode models.EpisodeDetail) error
}

// FeedMetadata describes the channel of the RSS feed.
type FeedMetadata struct {
	Title       string
	Description string
	Language    string
}

// Options configures the handler.
type Options struct {
	Revalidate time.Duration
	Feed       FeedMetadata
	Static     fs.FS
}

type siteHandler struct {
	pages    SnapshotSource
	details  EpisodeDetailer
	renderer Renderer
	opts     Options
	logger   *logrus.Logger
	now      func() time.Time
}

// New creates the HTTP handler for the site.
func New(pages SnapshotSource, details EpisodeDetailer, renderer Renderer, opts Options, logger *logrus.Logger) http.Handler {
	return newHandler(pages, details, renderer, opts, logger).routes()
}

func newHandler(pages SnapshotSource, details EpisodeDetailer, renderer Renderer, opts Options, logger *logrus.Logger) *siteHandler {
	logger = logging.OrDefault(logger)

	if opts.Feed.Title == "" {
		opts.Feed.Title = "Podcastr"
	}
	if opts.Feed.Description == "" {
		opts.Feed.Description = opts.Feed.Title
	}

	return &siteHandler{
		pages:    pages,
		details:  details,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *siteHandler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", h.handleHome)
	mux.HandleFunc("/episode/{id}", h.handleEpisode)
	mux.HandleFunc("/api/home", h.handleHomeJSON)
	mux.HandleFunc("/feed.xml", h.handleFeed)
	mux.HandleFunc("/health", h.handleHealth)
	if h.opts.Static != nil {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(h.opts.Static)))
	}

	return httpx.LogRequests(mux, h.logger)
}

func (h *siteHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *siteHandler) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot, ok := h.pages.Current()
	if !ok {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.setCacheHeaders(w, snapshot)
	if err := h.renderer.RenderHome(w, snapshot.LatestEpisodes, snapshot.AllEpisodes, snapshot.GeneratedAt); err != nil {
		h.logger.WithError(err).Error("failed to render homepage")
		renderFailed(w)
	}
}

func (h *siteHandler) handleEpisode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	episode, err := h.details.Detail(r.Context(), id)
	if err != nil {
		if errors.Is(err, episodes.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.logger.WithError(err).WithField("episode", id).Error("failed to load episode")
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.RenderEpisode(w, episode); err != nil {
		h.logger.WithError(err).WithField("episode", id).Error("failed to render episode")
		renderFailed(w)
	}
}

func (h *siteHandler) handleHomeJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot, ok := h.pages.Current()
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.setCacheHeaders(w, snapshot)
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.logger.WithError(err).Error("failed to encode homepage json")
	}
}

func (h *siteHandler) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot, ok := h.pages.Current()
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	base := httpx.RequestBaseURL(r)
	if base == nil {
		h.logger.Error("unable to determine request base URL")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	data, err := buildRSSFeed(h.opts.Feed, base, r.URL.Path, snapshot)
	if err != nil {
		h.logger.WithError(err).Error("failed to build RSS feed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	h.setCacheHeaders(w, snapshot)
	if _, err := w.Write(data); err != nil {
		h.logger.WithError(err).Warn("failed to write RSS feed")
	}
}

// renderFailed answers 500 after a render error. Renderers buffer their
// output, so nothing has reached the client yet.
func renderFailed(w http.ResponseWriter) {
	w.Header().Del("Cache-Control")
	w.Header().Del("Last-Modified")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// setCacheHeaders lets downstream caches keep the page until the next
// scheduled regeneration.
func (h *siteHandler) setCacheHeaders(w http.ResponseWriter, snapshot homepage.Snapshot) {
	remaining := h.opts.Revalidate - h.now().Sub(snapshot.GeneratedAt)
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(remaining.Seconds())))
	w.Header().Set("Last-Modified", snapshot.GeneratedAt.UTC().Format(http.TimeFormat))
}
