package site

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"podcast-home/internal/episodes"
	"podcast-home/internal/homepage"
	"podcast-home/internal/logging"
	"podcast-home/internal/models"
)

type fakePages struct {
	snapshot homepage.Snapshot
	ok       bool
}

func (f *fakePages) Current() (homepage.Snapshot, bool) {
	return f.snapshot, f.ok
}

type fakeDetails struct {
	episodes map[string]models.EpisodeDetail
	err      error
}

func (f *fakeDetails) Detail(_ context.Context, id string) (models.EpisodeDetail, error) {
	if f.err != nil {
		return models.EpisodeDetail{}, f.err
	}
	ep, ok := f.episodes[id]
	if !ok {
		return models.EpisodeDetail{}, fmt.Errorf("%w: %s", episodes.ErrNotFound, id)
	}
	return ep, nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderHome(w io.Writer, latest, all []models.Episode, _ time.Time) error {
	for _, ep := range latest {
		fmt.Fprintf(w, "latest:%s\n", ep.ID)
	}
	for _, ep := range all {
		fmt.Fprintf(w, "all:%s\n", ep.ID)
	}
	return nil
}

func (fakeRenderer) RenderEpisode(w io.Writer, ep models.EpisodeDetail) error {
	_, err := fmt.Fprintf(w, "episode:%s", ep.ID)
	return err
}

type failingRenderer struct{}

func (failingRenderer) RenderHome(io.Writer, []models.Episode, []models.Episode, time.Time) error {
	return errors.New("template: home.html: boom")
}

func (failingRenderer) RenderEpisode(io.Writer, models.EpisodeDetail) error {
	return errors.New("template: episode.html: boom")
}

var generatedAt = time.Date(2021, 1, 22, 17, 0, 0, 0, time.UTC)

func testSnapshot() homepage.Snapshot {
	return homepage.Snapshot{
		LatestEpisodes: []models.Episode{
			{ID: "ep-1", Title: "First", Members: "Ana", URL: "https://cdn.example/ep-1.mp3", Thumbnail: "https://cdn.example/ep-1.jpg", DurationAsString: "01:06:21"},
			{ID: "ep-2", Title: "Second", Members: "Bia", URL: "https://cdn.example/ep-2.m4a?sig=1", DurationAsString: "00:10:00"},
		},
		AllEpisodes: []models.Episode{
			{ID: "ep-3", Title: "Third", Members: "Caio", URL: "https://cdn.example/ep-3.mp3", DurationAsString: "00:30:17"},
		},
		GeneratedAt: generatedAt,
	}
}

func newTestHandler(pages SnapshotSource, details EpisodeDetailer) http.Handler {
	h := newHandler(pages, details, fakeRenderer{}, Options{
		Revalidate: 8 * time.Hour,
		Feed:       FeedMetadata{Title: "Podcastr", Description: "Test feed", Language: "pt-BR"},
		Static:     fstest.MapFS{"home.css": {Data: []byte("body{}")}},
	}, logging.Discard())
	h.now = func() time.Time { return generatedAt.Add(time.Hour) }
	return h.routes()
}

func serve(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Host = "podcast.example"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(&fakePages{}, &fakeDetails{})

	rec := serve(handler, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status payload: %v", body)
	}

	if rec := serve(handler, http.MethodPost, "/health"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHomeRendersSnapshot(t *testing.T) {
	handler := newTestHandler(&fakePages{snapshot: testSnapshot(), ok: true}, &fakeDetails{})

	rec := serve(handler, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "latest:ep-1\nlatest:ep-2\nall:ep-3\n" {
		t.Fatalf("unexpected body %q", got)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=25200" {
		t.Fatalf("unexpected cache control %q", cc)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}

	if rec := serve(handler, http.MethodDelete, "/"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := serve(handler, http.MethodGet, "/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestHomeUnavailableBeforeFirstGeneration(t *testing.T) {
	handler := newTestHandler(&fakePages{}, &fakeDetails{})

	for _, path := range []string{"/", "/api/home", "/feed.xml"} {
		if rec := serve(handler, http.MethodGet, path); rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}

func TestHomeJSON(t *testing.T) {
	handler := newTestHandler(&fakePages{snapshot: testSnapshot(), ok: true}, &fakeDetails{})

	rec := serve(handler, http.MethodGet, "/api/home")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		LatestEpisodes []models.Episode `json:"latestEpisodes"`
		AllEpisodes    []models.Episode `json:"allEpisodes"`
		GeneratedAt    time.Time        `json:"generatedAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.LatestEpisodes) != 2 || len(payload.AllEpisodes) != 1 || !payload.GeneratedAt.Equal(generatedAt) {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestEpisodePage(t *testing.T) {
	details := &fakeDetails{episodes: map[string]models.EpisodeDetail{
		"ep-1": {Episode: models.Episode{ID: "ep-1"}},
	}}
	handler := newTestHandler(&fakePages{}, details)

	rec := serve(handler, http.MethodGet, "/episode/ep-1")
	if rec.Code != http.StatusOK || rec.Body.String() != "episode:ep-1" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	if rec := serve(handler, http.MethodGet, "/episode/missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	details.err = errors.New("connection refused")
	if rec := serve(handler, http.MethodGet, "/episode/ep-1"); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestFeedEndpointProducesRSS(t *testing.T) {
	handler := newTestHandler(&fakePages{snapshot: testSnapshot(), ok: true}, &fakeDetails{})

	rec := serve(handler, http.MethodGet, "/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Fatalf("unexpected content type %q", ct)
	}

	var payload struct {
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title     string `xml:"title"`
				Link      string `xml:"link"`
				Enclosure struct {
					URL    string `xml:"url,attr"`
					Length string `xml:"length,attr"`
					Type   string `xml:"type,attr"`
				} `xml:"enclosure"`
				ITunesDuration string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal rss: %v", err)
	}

	if payload.Channel.Title != "Podcastr" {
		t.Fatalf("unexpected channel title: %s", payload.Channel.Title)
	}
	if len(payload.Channel.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(payload.Channel.Items))
	}

	first := payload.Channel.Items[0]
	if first.Link != "http://podcast.example/episode/ep-1" {
		t.Fatalf("unexpected item link %s", first.Link)
	}
	if first.Enclosure.URL != "https://cdn.example/ep-1.mp3" || first.Enclosure.Type != "audio/mpeg" {
		t.Fatalf("unexpected enclosure %+v", first.Enclosure)
	}
	if first.Enclosure.Length != "0" {
		t.Fatalf("expected unknown enclosure length to be sent as 0, got %q", first.Enclosure.Length)
	}
	if first.ITunesDuration != "01:06:21" {
		t.Fatalf("unexpected duration %q", first.ITunesDuration)
	}
	if payload.Channel.Items[1].Enclosure.Type != "audio/mp4" {
		t.Fatalf("expected query string to be ignored for mime type, got %q", payload.Channel.Items[1].Enclosure.Type)
	}
}

func TestStaticAssetsServed(t *testing.T) {
	handler := newTestHandler(&fakePages{}, &fakeDetails{})

	rec := serve(handler, http.MethodGet, "/static/home.css")
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Fatalf("unexpected static response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRenderFailureAnswers500(t *testing.T) {
	details := &fakeDetails{episodes: map[string]models.EpisodeDetail{
		"ep-1": {Episode: models.Episode{ID: "ep-1"}},
	}}
	handler := New(&fakePages{snapshot: testSnapshot(), ok: true}, details, failingRenderer{}, Options{
		Revalidate: 8 * time.Hour,
	}, logging.Discard())

	for _, path := range []string{"/", "/episode/ep-1"} {
		rec := serve(handler, http.MethodGet, path)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
			t.Fatalf("%s: expected error content type, got %q", path, ct)
		}
		if cc := rec.Header().Get("Cache-Control"); cc != "" {
			t.Fatalf("%s: expected no cache header on failure, got %q", path, cc)
		}
	}
}
