// Package metadata turns local audio files into episode API records.
package metadata

import (
	"errors"
	"html"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"podcast-home/internal/httpx"
	"podcast-home/internal/models"
)

type tags struct {
	title      string
	artist     string
	comment    string
	hasPicture bool
}

// BuildSource constructs the API record for the audio file at path. File and
// artwork URLs are relative (/audio/..., /artwork/...) and are made absolute
// by the server that publishes them.
func BuildSource(path string, root string) (models.SourceEpisode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.SourceEpisode{}, err
	}

	relative, err := filepath.Rel(root, path)
	if err != nil {
		relative = filepath.Base(path)
	}
	relative = filepath.ToSlash(relative)

	id := Slug(relative)
	meta := readTags(path)
	title := meta.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	duration := "0"
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if seconds, err := computeMP3Duration(path); err == nil && seconds > 0 {
			duration = strconv.Itoa(int(seconds))
		}
	}

	var thumbnail string
	if meta.hasPicture {
		thumbnail = "/artwork/" + id
	}

	return models.SourceEpisode{
		ID:          id,
		Title:       title,
		Members:     meta.artist,
		Thumbnail:   thumbnail,
		Description: commentHTML(meta.comment),
		PublishedAt: info.ModTime().UTC().Truncate(time.Second).Format(time.RFC3339),
		File: models.SourceFile{
			URL:      "/audio/" + relative,
			Type:     httpx.MediaType(relative),
			Duration: models.NumericString(duration),
		},
	}, nil
}

// Artwork returns the picture embedded in the audio file at path.
func Artwork(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return nil, "", err
	}
	picture := meta.Picture()
	if picture == nil || len(picture.Data) == 0 {
		return nil, "", errors.New("no embedded artwork")
	}

	mimeType := picture.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return picture.Data, mimeType, nil
}

// Slug derives a URL-safe episode id from a relative path.
func Slug(relative string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(relative) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// commentHTML wraps a plain-text comment tag as an escaped paragraph, since
// episode descriptions are served as HTML.
func commentHTML(comment string) string {
	if comment == "" {
		return ""
	}
	return "<p>" + html.EscapeString(comment) + "</p>"
}

func readTags(path string) tags {
	f, err := os.Open(path)
	if err != nil {
		return tags{}
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return tags{}
	}

	picture := meta.Picture()
	return tags{
		title:      strings.TrimSpace(meta.Title()),
		artist:     strings.TrimSpace(meta.Artist()),
		comment:    strings.TrimSpace(meta.Comment()),
		hasPicture: picture != nil && len(picture.Data) > 0,
	}
}

func computeMP3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration().Seconds()
	}

	return total, nil
}
