package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podcast-home/internal/catalog"
	"podcast-home/internal/catalogapi"
	"podcast-home/internal/config"
)

func newAPICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Serve a local episodes API from an audio directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.logger()

			audioRoot, err := config.ResolveAudioRoot()
			if err != nil {
				return fmt.Errorf("resolve audio root: %w", err)
			}

			listenAddr := config.APIListenAddr()
			if err := config.ValidateListenAddr(listenAddr); err != nil {
				return fmt.Errorf("invalid listen address %q: %w", listenAddr, err)
			}

			cat, err := catalog.New(audioRoot, config.AllowedExtensions(), config.RefreshDebounce(), logger)
			if err != nil {
				return fmt.Errorf("initialise catalog: %w", err)
			}
			defer func() {
				if err := cat.Close(); err != nil {
					logger.WithError(err).Warn("error closing catalog")
				}
			}()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.WithField("audio_dir", audioRoot).Info("serving local episodes")
			return serveHTTP(runCtx, listenAddr, catalogapi.New(cat, audioRoot, logger), logger)
		},
	}
}
