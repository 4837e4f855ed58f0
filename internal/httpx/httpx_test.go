package httpx

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func TestLogRequestsAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	handler := LogRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}), logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", id)
	}
	line := buf.String()
	for _, want := range []string{`"status":418`, `"bytes":15`, `"path":"/pot"`, id} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected log line to contain %s, got %s", want, line)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/pot", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "upstream-id" {
		t.Fatalf("expected incoming request id to be reused")
	}
}

func TestRequestBaseURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/feed.xml", nil)
	req.Host = "podcast.example"
	if got := RequestBaseURL(req).String(); got != "http://podcast.example" {
		t.Fatalf("unexpected base %s", got)
	}

	req.Header.Set("X-Forwarded-Proto", "https, http")
	if got := RequestBaseURL(req).String(); got != "https://podcast.example" {
		t.Fatalf("expected forwarded scheme, got %s", got)
	}

	req.Header.Del("X-Forwarded-Proto")
	req.TLS = &tls.ConnectionState{}
	if got := RequestBaseURL(req).String(); got != "https://podcast.example" {
		t.Fatalf("expected tls scheme, got %s", got)
	}

	req.Host = ""
	if RequestBaseURL(req) != nil {
		t.Fatalf("expected nil without a host")
	}
}

func TestMediaType(t *testing.T) {
	cases := map[string]string{
		"episode.mp3":                         "audio/mpeg",
		"https://cdn.example/a/b.M4A?sig=abc": "audio/mp4",
		"shows/finale.flac":                   "audio/flac",
		"no-extension":                        "application/octet-stream",
	}
	for input, want := range cases {
		if got := MediaType(input); got != want {
			t.Fatalf("MediaType(%q) = %q, want %q", input, got, want)
		}
	}
}
