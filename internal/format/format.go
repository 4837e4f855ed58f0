// Package format turns raw episode values into display strings.
package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Duration renders seconds as HH:MM:SS. Hours are zero padded to two digits
// but may grow wider.
func Duration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// ParseSeconds converts the API's numeric duration text into whole seconds.
// Fractions are truncated.
func ParseSeconds(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty duration")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, fmt.Errorf("duration %q out of range", raw)
	}
	return int(value), nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// interpreted in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// Supported lists the locales with month tables, in matcher preference order.
var Supported = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
	language.Spanish,
}

var matcher = language.NewMatcher(Supported)

var monthAbbreviations = map[language.Tag][12]string{
	language.BrazilianPortuguese: {"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	language.English:             {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	language.Spanish:             {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
}

// MatchLocale resolves a BCP 47 tag to the closest supported locale.
func MatchLocale(locale string) (language.Tag, error) {
	requested, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	_, index, confidence := matcher.Match(requested)
	if confidence == language.No {
		return language.Und, fmt.Errorf("unsupported locale %q", locale)
	}
	return Supported[index], nil
}

// DateFormatter renders dates as "d MMM yy" with localized month names.
type DateFormatter struct {
	locale language.Tag
	months [12]string
	loc    *time.Location
}

// NewDateFormatter builds a formatter for locale that renders in loc.
func NewDateFormatter(locale string, loc *time.Location) (*DateFormatter, error) {
	tag, err := MatchLocale(locale)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DateFormatter{locale: tag, months: monthAbbreviations[tag], loc: loc}, nil
}

// Locale returns the matched locale.
func (f *DateFormatter) Locale() language.Tag {
	return f.locale
}

// Location returns the zone dates are rendered in.
func (f *DateFormatter) Location() *time.Location {
	return f.loc
}

// Format renders t, e.g. "8 jan 21" for pt-BR.
func (f *DateFormatter) Format(t time.Time) string {
	t = t.In(f.loc)
	return fmt.Sprintf("%d %s %02d", t.Day(), f.months[t.Month()-1], t.Year()%100)
}
