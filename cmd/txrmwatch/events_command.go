package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"txrmwatch/internal/ipc"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show daemon events",
		Long:  "Show recent scan and processing events. With --follow the command keeps waiting for new events until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				var since uint64
				wait := false
				for {
					resp, err := client.Events(since, limit, wait)
					if err != nil {
						return err
					}
					for _, event := range resp.Events {
						line := fmt.Sprintf("%s  %-14s %s",
							event.Timestamp.Local().Format(time.TimeOnly),
							event.Kind,
							event.Message)
						if event.Path != "" {
							line += "  (" + event.Path + ")"
						}
						fmt.Fprintln(stdout, line)
					}
					since = resp.Next
					if !follow {
						return nil
					}
					wait = true
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep waiting for new events")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum events per fetch")
	return cmd
}
