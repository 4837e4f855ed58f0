package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podcast-home/internal/models"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Fetch the episodes once and print both homepage lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, _, _, err := ctx.pipeline()
			if err != nil {
				return err
			}

			lists, err := pipeline.Build(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Latest episodes")
			fmt.Fprintln(out, episodeTable(lists.LatestEpisodes, 0))
			fmt.Fprintln(out, "All episodes")
			fmt.Fprintln(out, episodeTable(lists.AllEpisodes, len(lists.LatestEpisodes)))
			return nil
		},
	}
}

// episodeTable numbers rows from offset+1 so both tables share one sequence.
func episodeTable(list []models.Episode, offset int) string {
	headers := []string{"#", "ID", "Title", "Members", "Published", "Duration"}
	rows := make([][]string, 0, len(list))
	for i, ep := range list {
		rows = append(rows, []string{
			strconv.Itoa(offset + i + 1),
			ep.ID,
			ep.Title,
			ep.Members,
			ep.PublishedAt,
			ep.DurationAsString,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
}
