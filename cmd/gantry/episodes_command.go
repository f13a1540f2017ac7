package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gantry/internal/protocol"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List recorded episodes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.ListEpisodes(limit)
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Episodes) == 0 {
					fmt.Fprintln(out, "No episodes recorded yet")
					return nil
				}

				titler := cases.Title(language.Und)
				rows := make([][]string, 0, len(resp.Episodes))
				for _, ep := range resp.Episodes {
					ended := ep.EndTime
					if ended == "" {
						ended = "-"
					}
					reason := ep.StopReason
					if reason == "" {
						reason = "-"
					}
					rows = append(rows, []string{
						filepath.Base(ep.Dir),
						titler.String(ep.ActionName),
						ep.StartTime,
						ended,
						strconv.Itoa(ep.TotalEvents),
						reason,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Episode", "Action", "Started", "Ended", "Events", "Stop Reason"},
					rows,
					5,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of episodes to list")
	return cmd
}
