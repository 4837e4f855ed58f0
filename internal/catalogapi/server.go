// Package catalogapi serves a local catalog over the same REST shape the
// homepage consumes, using json-server query conventions.
package catalogapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	pathpkg "path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"podcast-home/internal/catalog"
	"podcast-home/internal/httpx"
	"podcast-home/internal/logging"
	"podcast-home/internal/metadata"
	"podcast-home/internal/models"
)

// EpisodeCatalog abstracts the episode index for the handlers.
type EpisodeCatalog interface {
	List() []models.SourceEpisode
	Lookup(id string) (catalog.Entry, bool)
}

type apiHandler struct {
	catalog   EpisodeCatalog
	audioRoot string
	logger    *logrus.Logger
}

var sortKeys = map[string]func(a, b models.SourceEpisode) bool{
	"published_at": func(a, b models.SourceEpisode) bool { return a.PublishedAt < b.PublishedAt },
	"title":        func(a, b models.SourceEpisode) bool { return a.Title < b.Title },
	"id":           func(a, b models.SourceEpisode) bool { return a.ID < b.ID },
}

// New creates the handler that exposes the catalog.
func New(c EpisodeCatalog, audioRoot string, logger *logrus.Logger) http.Handler {
	logger = logging.OrDefault(logger)

	cleanRoot := filepath.Clean(audioRoot)
	absRoot, err := filepath.Abs(cleanRoot)
	if err != nil {
		logger.WithError(err).Warnf("unable to resolve absolute audio root %q", audioRoot)
		absRoot = cleanRoot
	}

	h := &apiHandler{
		catalog:   c,
		audioRoot: absRoot,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/episodes", h.handleList)
	mux.HandleFunc("/episodes/{id}", h.handleGet)
	mux.HandleFunc("/artwork/{id}", h.handleArtwork)
	mux.HandleFunc("/audio/", h.handleAudio)

	return httpx.LogRequests(mux, logger)
}

func (h *apiHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.logger, map[string]string{"status": "ok"})
}

func (h *apiHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	list := h.catalog.List()

	if field := strings.TrimSpace(query.Get("_sort")); field != "" {
		less, ok := sortKeys[field]
		if !ok {
			http.Error(w, "unsupported _sort field", http.StatusBadRequest)
			return
		}
		desc := strings.EqualFold(query.Get("_order"), "desc")
		sort.SliceStable(list, func(i, j int) bool {
			if desc {
				return less(list[j], list[i])
			}
			return less(list[i], list[j])
		})
	}

	if raw := strings.TrimSpace(query.Get("_limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "invalid _limit", http.StatusBadRequest)
			return
		}
		list = lo.Slice(list, 0, limit)
	}

	base := httpx.RequestBaseURL(r)
	writeJSON(w, h.logger, lo.Map(list, func(ep models.SourceEpisode, _ int) models.SourceEpisode {
		return absolutize(ep, base)
	}))
}

func (h *apiHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	entry, ok := h.catalog.Lookup(r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, h.logger, absolutize(entry.Episode, httpx.RequestBaseURL(r)))
}

func (h *apiHandler) handleArtwork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	entry, ok := h.catalog.Lookup(r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	data, mimeType, err := metadata.Artwork(entry.Path)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		h.logger.WithError(err).Warn("failed to write artwork")
	}
}

func (h *apiHandler) handleAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/audio/")
	rel = pathpkg.Clean(rel)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	resolved, err := filepath.Abs(filepath.Join(h.audioRoot, filepath.FromSlash(rel)))
	if err != nil {
		h.logger.WithError(err).WithField("path", rel).Error("failed to resolve audio path")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !pathWithinRoot(h.audioRoot, resolved) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.logger.WithError(err).WithField("path", resolved).Error("failed to stat audio file")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", httpx.MediaType(resolved))
	http.ServeFile(w, r, resolved)
}

// absolutize rewrites the catalog's relative media links against base.
func absolutize(ep models.SourceEpisode, base *url.URL) models.SourceEpisode {
	if base == nil {
		return ep
	}
	ep.File.URL = resolveLink(base, ep.File.URL)
	if ep.Thumbnail != "" {
		ep.Thumbnail = resolveLink(base, ep.Thumbnail)
	}
	return ep
}

func resolveLink(base *url.URL, link string) string {
	if !strings.HasPrefix(link, "/") {
		return link
	}
	target := *base
	target.Path = link
	return target.String()
}

func pathWithinRoot(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
