package main

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"podcast-home/internal/config"
	"podcast-home/internal/episodes"
	"podcast-home/internal/format"
	"podcast-home/internal/logging"
)

type commandContext struct {
	configFlag *string

	loggerOnce sync.Once
	log        *logrus.Logger

	siteOnce sync.Once
	site     config.Site
	siteErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// logger writes to stderr so render can use stdout for the page.
func (c *commandContext) logger() *logrus.Logger {
	c.loggerOnce.Do(func() {
		opts := logging.OptionsFromEnv()
		opts.Output = os.Stderr
		c.log = logging.New(opts)
	})
	return c.log
}

func (c *commandContext) ensureSite() (config.Site, error) {
	c.siteOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.site, c.siteErr = config.ResolveSite(path)
	})
	return c.site, c.siteErr
}

// pipeline wires the API client, date formatter and pipeline from the site
// settings.
func (c *commandContext) pipeline() (*episodes.Pipeline, *format.DateFormatter, config.Site, error) {
	site, err := c.ensureSite()
	if err != nil {
		return nil, nil, config.Site{}, err
	}

	dates, err := format.NewDateFormatter(site.Locale, site.Location)
	if err != nil {
		return nil, nil, config.Site{}, err
	}

	client := episodes.NewClient(site.APIURL, &http.Client{Timeout: site.RequestTimeout})
	return episodes.NewPipeline(client, dates, site.EpisodeLimit, site.LatestCount), dates, site, nil
}
