package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"podcast-home/internal/view"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Generate the homepage once and write the HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.logger()

			pipeline, dates, siteCfg, err := ctx.pipeline()
			if err != nil {
				return err
			}

			renderer, err := view.NewRenderer(view.Options{
				Site:        view.Site{Title: siteCfg.Title, Description: siteCfg.Description},
				Locale:      dates.Locale(),
				OverrideDir: siteCfg.TemplateDir,
			}, logger)
			if err != nil {
				return fmt.Errorf("load templates: %w", err)
			}
			defer renderer.Close()

			lists, err := pipeline.Build(cmd.Context())
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if path := strings.TrimSpace(outPath); path != "" {
				file, err := os.Create(path)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}

			if err := renderer.RenderHome(out, lists.LatestEpisodes, lists.AllEpisodes, time.Now()); err != nil {
				return fmt.Errorf("render homepage: %w", err)
			}

			logger.WithFields(logrus.Fields{
				"latest": len(lists.LatestEpisodes),
				"all":    len(lists.AllEpisodes),
			}).Debug("homepage rendered")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the page to this file instead of stdout")
	return cmd
}
