package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"txrmwatch/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and registry status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				p := newStatusPrinter(cmd.OutOrStdout())

				p.section("Daemon")
				if status.Running {
					p.line("Running", statusOK, fmt.Sprintf("pid %d", status.PID))
				} else {
					p.line("Running", statusError, "not running")
				}
				p.line("Next scan", statusInfo, status.NextScanIn)
				p.line("Registry", statusInfo, status.RegistryDB)
				p.line("Lock file", statusInfo, status.LockFile)
				if status.LastError != "" {
					p.line("Last error", statusWarn, status.LastError)
				}
				p.blank()

				p.section("Monitored Directories")
				if len(status.Directories) == 0 {
					p.line("Directories", statusWarn, "none configured")
				}
				for _, dir := range status.Directories {
					p.item(dir)
				}
				p.blank()

				p.section("Tracked Files")
				p.line("Total", statusInfo, strconv.Itoa(status.Total))
				p.line("Pending", statusInfo, strconv.Itoa(status.Pending))
				p.line("Processing", statusInfo, strconv.Itoa(status.Processing))
				p.line("Completed", statusOK, strconv.Itoa(status.Completed))
				erroredKind := statusInfo
				if status.Errored > 0 {
					erroredKind = statusWarn
				}
				p.line("Errored", erroredKind, strconv.Itoa(status.Errored))
				return nil
			})
		},
	}
}

func newFilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List tracked scan files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				snapshot, err := client.Snapshot()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if len(snapshot.Files) == 0 {
					fmt.Fprintln(stdout, "No tracked files")
					return nil
				}

				rows := make([][]string, 0, len(snapshot.Files))
				for _, file := range snapshot.Files {
					detail := file.Message
					if file.ErrorMessage != "" {
						detail = file.ErrorMessage
					}
					rows = append(rows, []string{
						file.Path,
						strconv.FormatInt(file.Size, 10),
						file.Status,
						file.LastChangeAt,
						detail,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]tableColumn{
						{title: "Path"},
						{title: "Size", right: true},
						{title: "Status"},
						{title: "Last Change"},
						{title: "Detail"},
					},
					rows,
				))
				return nil
			})
		},
	}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Trigger an immediate directory scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ScanNow(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Scan triggered")
				return nil
			})
		},
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <path>",
		Short: "Process a tracked file immediately, skipping the stability wait",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProcessNow(args[0])
				if err != nil {
					return err
				}
				if !resp.Started {
					return fmt.Errorf("process %s: %s", args[0], resp.Message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processing started for %s\n", args[0])
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the txrmwatchd daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stop request sent")
				return nil
			})
		},
	}
}
