package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gantry/internal/protocol"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show motor and recording state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}
				if resp.State == nil {
					return fmt.Errorf("daemon returned no state")
				}

				out := cmd.OutOrStdout()
				state := resp.State

				if state.Recording {
					fmt.Fprintf(out, "Recording: yes (%s, %d events)\n", state.EpisodeDir, state.EventCount)
				} else {
					fmt.Fprintln(out, "Recording: no")
				}
				fmt.Fprintf(out, "Disk free: %.2f GiB", float64(state.DiskFreeBytes)/(1<<30))
				if state.DiskLow {
					fmt.Fprint(out, " (below threshold, recording disabled)")
				}
				fmt.Fprintln(out)

				rows := make([][]string, 0, len(state.Motors))
				for _, m := range state.Motors {
					rows = append(rows, []string{
						strconv.Itoa(m.ID),
						m.Name,
						strconv.Itoa(m.Position),
						m.Direction,
						strconv.Itoa(m.Speed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Motor", "Position", "Direction", "Speed"},
					rows,
					1, 3, 5,
				))
				return nil
			})
		},
	}
}
