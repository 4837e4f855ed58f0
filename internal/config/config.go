package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

var allowedExtensions = []string{
	".mp3",
	".m4a",
	".aac",
	".flac",
	".ogg",
}

const (
	defaultListenAddr        = "127.0.0.1:8080"
	defaultAPIListenAddr     = "127.0.0.1:3333"
	defaultRefreshDebounceMS = 500

	defaultSiteTitle       = "Podcastr"
	defaultSiteDescription = "O melhor para você ouvir, sempre."
	defaultAPIURL          = "http://localhost:3333"
	defaultEpisodeLimit    = 12
	defaultLatestCount     = 2
	defaultRevalidate      = 8 * time.Hour
	defaultLocale          = "pt-BR"
	defaultTimezone        = "UTC"
	defaultRequestTimeout  = 10 * time.Second
)

// AllowedExtensions returns the audio file extensions the local catalog serves (lowercase).
func AllowedExtensions() []string {
	result := make([]string, len(allowedExtensions))
	copy(result, allowedExtensions)
	return result
}

// ResolveAudioRoot returns the directory the local episodes API scans.
// The directory is created when it does not yet exist.
func ResolveAudioRoot() (string, error) {
	dir := strings.TrimSpace(os.Getenv("PODCAST_AUDIO_DIR"))
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(cwd, "audio")
	}

	abs, err := expandPath(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}

	return abs, nil
}

// ListenAddr returns the TCP address the homepage server binds to.
func ListenAddr() string {
	return envOr("PODCAST_LISTEN_ADDR", defaultListenAddr)
}

// APIListenAddr returns the TCP address the local episodes API binds to.
func APIListenAddr() string {
	return envOr("PODCAST_API_LISTEN_ADDR", defaultAPIListenAddr)
}

// RefreshDebounce returns the delay between a file-system change and the
// catalog or template reload it triggers.
func RefreshDebounce() time.Duration {
	value := strings.TrimSpace(os.Getenv("PODCAST_REFRESH_DEBOUNCE_MS"))
	if value == "" {
		return time.Duration(defaultRefreshDebounceMS) * time.Millisecond
	}

	ms, err := strconv.Atoi(value)
	if err != nil || ms < 0 {
		return time.Duration(defaultRefreshDebounceMS) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

// ValidateListenAddr ensures addr is a host:port pair with a usable port.
func ValidateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return errors.New("listen address must have a numeric port between 0 and 65535")
	}
	return nil
}

// Site holds the settings that drive homepage generation.
type Site struct {
	Title          string
	Description    string
	APIURL         string
	EpisodeLimit   int
	LatestCount    int
	Revalidate     time.Duration
	Locale         string
	Location       *time.Location
	TemplateDir    string
	RequestTimeout time.Duration
}

type siteYAML struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	APIURL         string `yaml:"api_url"`
	EpisodeLimit   int    `yaml:"episode_limit"`
	LatestCount    int    `yaml:"latest_count"`
	Revalidate     string `yaml:"revalidate"`
	Locale         string `yaml:"locale"`
	Timezone       string `yaml:"timezone"`
	TemplateDir    string `yaml:"template_dir"`
	RequestTimeout string `yaml:"request_timeout"`
}

// ResolveSite returns the site settings after applying defaults, the YAML
// file (configPath, or PODCAST_CONFIG when empty) and environment overrides.
func ResolveSite(configPath string) (Site, error) {
	site := Site{
		Title:          defaultSiteTitle,
		Description:    defaultSiteDescription,
		APIURL:         defaultAPIURL,
		EpisodeLimit:   defaultEpisodeLimit,
		LatestCount:    defaultLatestCount,
		Revalidate:     defaultRevalidate,
		Locale:         defaultLocale,
		RequestTimeout: defaultRequestTimeout,
	}
	timezone := defaultTimezone

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv("PODCAST_CONFIG"))
	}
	if configPath != "" {
		resolved, err := expandPath(configPath)
		if err != nil {
			return Site{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Site{}, err
		}
		var file siteYAML
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Site{}, fmt.Errorf("parse %s: %w", resolved, err)
		}
		if err := site.applyYAML(file, &timezone); err != nil {
			return Site{}, fmt.Errorf("config %s: %w", resolved, err)
		}
	}

	if err := site.applyEnv(&timezone); err != nil {
		return Site{}, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Site{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	site.Location = loc

	if site.TemplateDir != "" {
		dir, err := expandPath(site.TemplateDir)
		if err != nil {
			return Site{}, err
		}
		site.TemplateDir = dir
	}

	return site, nil
}

func (s *Site) applyYAML(file siteYAML, timezone *string) error {
	if value := strings.TrimSpace(file.Title); value != "" {
		s.Title = value
	}
	if value := strings.TrimSpace(file.Description); value != "" {
		s.Description = value
	}
	if value := strings.TrimSpace(file.APIURL); value != "" {
		s.APIURL = value
	}
	if file.EpisodeLimit > 0 {
		s.EpisodeLimit = file.EpisodeLimit
	}
	if file.LatestCount > 0 {
		s.LatestCount = file.LatestCount
	}
	if value := strings.TrimSpace(file.Locale); value != "" {
		s.Locale = value
	}
	if value := strings.TrimSpace(file.Timezone); value != "" {
		*timezone = value
	}
	if value := strings.TrimSpace(file.TemplateDir); value != "" {
		s.TemplateDir = value
	}
	if err := parseDuration(file.Revalidate, &s.Revalidate); err != nil {
		return fmt.Errorf("revalidate: %w", err)
	}
	if err := parseDuration(file.RequestTimeout, &s.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	return nil
}

func (s *Site) applyEnv(timezone *string) error {
	if value := strings.TrimSpace(os.Getenv("PODCAST_SITE_TITLE")); value != "" {
		s.Title = value
	}
	if value := strings.TrimSpace(os.Getenv("PODCAST_SITE_DESCRIPTION")); value != "" {
		s.Description = value
	}
	if value := strings.TrimSpace(os.Getenv("PODCAST_API_URL")); value != "" {
		s.APIURL = value
	}
	if value := strings.TrimSpace(os.Getenv("PODCAST_LOCALE")); value != "" {
		s.Locale = value
	}
	if value := strings.TrimSpace(os.Getenv("PODCAST_TIMEZONE")); value != "" {
		*timezone = value
	}
	if value := strings.TrimSpace(os.Getenv("PODCAST_TEMPLATE_DIR")); value != "" {
		s.TemplateDir = value
	}
	if err := parsePositiveInt(os.Getenv("PODCAST_EPISODE_LIMIT"), &s.EpisodeLimit); err != nil {
		return fmt.Errorf("PODCAST_EPISODE_LIMIT: %w", err)
	}
	if err := parsePositiveInt(os.Getenv("PODCAST_LATEST_COUNT"), &s.LatestCount); err != nil {
		return fmt.Errorf("PODCAST_LATEST_COUNT: %w", err)
	}
	if err := parseDuration(os.Getenv("PODCAST_REVALIDATE"), &s.Revalidate); err != nil {
		return fmt.Errorf("PODCAST_REVALIDATE: %w", err)
	}
	if err := parseDuration(os.Getenv("PODCAST_REQUEST_TIMEOUT"), &s.RequestTimeout); err != nil {
		return fmt.Errorf("PODCAST_REQUEST_TIMEOUT: %w", err)
	}
	return nil
}

func parseDuration(value string, target *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("duration must be positive")
	}
	*target = d
	return nil
}

func parsePositiveInt(value string, target *int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return errors.New("value must be positive")
	}
	*target = n
	return nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return filepath.Abs(path)
}
