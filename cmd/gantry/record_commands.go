package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gantry/internal/protocol"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Control episode recording",
	}

	recordCmd.AddCommand(newRecordStartCommand(ctx))
	recordCmd.AddCommand(newRecordStopCommand(ctx))

	return recordCmd
}

func newRecordStartCommand(ctx *commandContext) *cobra.Command {
	var description string
	var timeout int

	cmd := &cobra.Command{
		Use:   "start <action-name>",
		Short: "Start recording an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.StartLogging(args[0], description, timeout, nil)
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording to %s\n", resp.EpisodeDir)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Free-form episode description")
	cmd.Flags().IntVarP(&timeout, "timeout", "t", 0, "Auto-stop after this many seconds (0 disables)")
	return cmd
}

func newRecordStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.StopLogging()
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", resp.Message, resp.EpisodeDir)
				return nil
			})
		},
	}
}
