package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"podcast-home/internal/config"
	"podcast-home/internal/homepage"
	"podcast-home/internal/schedule"
	"podcast-home/internal/site"
	"podcast-home/internal/view"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the homepage, regenerating it periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.logger()

			pipeline, dates, siteCfg, err := ctx.pipeline()
			if err != nil {
				return err
			}

			listenAddr := config.ListenAddr()
			if err := config.ValidateListenAddr(listenAddr); err != nil {
				return fmt.Errorf("invalid listen address %q: %w", listenAddr, err)
			}

			renderer, err := view.NewRenderer(view.Options{
				Site:        view.Site{Title: siteCfg.Title, Description: siteCfg.Description},
				Locale:      dates.Locale(),
				OverrideDir: siteCfg.TemplateDir,
				Debounce:    config.RefreshDebounce(),
			}, logger)
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			defer func() {
				if err := renderer.Close(); err != nil {
					logger.WithError(err).Warn("error closing renderer")
				}
			}()

			store := homepage.NewStore(pipeline, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go schedule.NewRevalidator(siteCfg.Revalidate, store.Regenerate, logger).Run(runCtx)

			handler := site.New(store, pipeline, renderer, site.Options{
				Revalidate: siteCfg.Revalidate,
				Feed: site.FeedMetadata{
					Title:       siteCfg.Title,
					Description: siteCfg.Description,
					Language:    dates.Locale().String(),
				},
				Static: view.Static(),
			}, logger)

			logger.WithFields(logrus.Fields{
				"api_url":    siteCfg.APIURL,
				"revalidate": siteCfg.Revalidate.String(),
				"locale":     dates.Locale().String(),
			}).Info("starting homepage server")
			return serveHTTP(runCtx, listenAddr, handler, logger)
		},
	}
}
