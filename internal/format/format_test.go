package format

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestDuration(t *testing.T) {
	cases := map[int]string{
		0:      "00:00:00",
		59:     "00:00:59",
		65:     "00:01:05",
		3600:   "01:00:00",
		3661:   "01:01:01",
		360000: "100:00:00",
	}
	for input, want := range cases {
		if got := Duration(input); got != want {
			t.Fatalf("Duration(%d) = %q, want %q", input, got, want)
		}
	}
}

func TestParseSeconds(t *testing.T) {
	valid := map[string]int{
		"3981":   3981,
		" 42 ":   42,
		"1.9":    1,
		"0":      0,
		"7200.0": 7200,
	}
	for input, want := range valid {
		got, err := ParseSeconds(input)
		if err != nil {
			t.Fatalf("ParseSeconds(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseSeconds(%q) = %d, want %d", input, got, want)
		}
	}

	for _, input := range []string{"", "abc", "-5", "NaN", "Inf"} {
		if _, err := ParseSeconds(input); err == nil {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2021-01-22 17:00:00", time.UTC)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !got.Equal(time.Date(2021, 1, 22, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %s", got)
	}

	got, err = ParseTimestamp("2021-01-08T13:00:00-03:00", time.UTC)
	if err != nil {
		t.Fatalf("ParseTimestamp rfc3339: %v", err)
	}
	if !got.Equal(time.Date(2021, 1, 8, 16, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %s", got)
	}

	if _, err := ParseTimestamp("yesterday", time.UTC); err == nil {
		t.Fatalf("expected error for garbage timestamp")
	}
}

func TestMatchLocale(t *testing.T) {
	tag, err := MatchLocale("pt-BR")
	if err != nil || tag != language.BrazilianPortuguese {
		t.Fatalf("expected pt-BR, got %v %v", tag, err)
	}

	tag, err = MatchLocale("en-GB")
	if err != nil || tag != language.English {
		t.Fatalf("expected en for en-GB, got %v %v", tag, err)
	}

	if _, err := MatchLocale("not a tag!"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDateFormatter(t *testing.T) {
	date := time.Date(2021, 1, 8, 13, 0, 0, 0, time.UTC)

	pt, err := NewDateFormatter("pt-BR", time.UTC)
	if err != nil {
		t.Fatalf("NewDateFormatter: %v", err)
	}
	if got := pt.Format(date); got != "8 jan 21" {
		t.Fatalf("pt-BR format = %q", got)
	}
	if got := pt.Format(time.Date(2009, 2, 21, 0, 0, 0, 0, time.UTC)); got != "21 fev 09" {
		t.Fatalf("pt-BR two-digit year = %q", got)
	}

	en, err := NewDateFormatter("en", time.UTC)
	if err != nil {
		t.Fatalf("NewDateFormatter en: %v", err)
	}
	if got := en.Format(date); got != "8 Jan 21" {
		t.Fatalf("en format = %q", got)
	}

	saoPaulo := time.FixedZone("BRT", -3*3600)
	zoned, err := NewDateFormatter("pt-BR", saoPaulo)
	if err != nil {
		t.Fatalf("NewDateFormatter zoned: %v", err)
	}
	if got := zoned.Format(time.Date(2021, 1, 8, 1, 0, 0, 0, time.UTC)); got != "7 jan 21" {
		t.Fatalf("expected date shifted into location, got %q", got)
	}
}
