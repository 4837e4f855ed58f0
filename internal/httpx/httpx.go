// Package httpx holds the HTTP plumbing shared by the site and the local
// episodes API.
package httpx

import (
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// LogRequests logs one line per request and tags it with a request id. An
// incoming X-Request-ID is reused.
func LogRequests(next http.Handler, logger *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"bytes":      sw.size,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

// RequestBaseURL derives scheme://host for links that must be absolute,
// honouring X-Forwarded-Proto from a fronting proxy.
func RequestBaseURL(r *http.Request) *url.URL {
	scheme := "http"
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); forwarded != "" {
		if candidate := strings.TrimSpace(strings.Split(forwarded, ",")[0]); candidate != "" {
			scheme = candidate
		}
	} else if r.TLS != nil {
		scheme = "https"
	}

	host := strings.TrimSpace(r.Host)
	if host == "" {
		return nil
	}

	return &url.URL{Scheme: scheme, Host: host}
}

var audioMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

// MediaType guesses the content type of a file name or URL from its
// extension. Query strings are ignored.
func MediaType(nameOrURL string) string {
	if parsed, err := url.Parse(nameOrURL); err == nil {
		nameOrURL = parsed.Path
	}
	ext := strings.ToLower(path.Ext(nameOrURL))
	if known, ok := audioMIMETypes[ext]; ok {
		return known
	}
	if ext != "" {
		if value := mime.TypeByExtension(ext); value != "" {
			return value
		}
	}
	return "application/octet-stream"
}
