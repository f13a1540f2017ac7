package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gantry/internal/protocol"
)

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var speed int

	cmd := &cobra.Command{
		Use:   "move <motor> <inc|dec>",
		Short: "Move a motor toward its travel limit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.Move(args[0], args[1], speed)
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&speed, "speed", "s", 0, "Motion speed (defaults to the configured default)")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <motor>",
		Short: "Stop one motor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.Stop(args[0])
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newStopAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all",
		Short: "Stop every motor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.StopAll()
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check daemon liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *protocol.Client) error {
				resp, err := client.Ping()
				if err != nil {
					return err
				}
				if err := checkResponse(resp); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}
