package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"txrmwatch/internal/config"
	"txrmwatch/internal/ipc"
)

func newDirsCommand(ctx *commandContext) *cobra.Command {
	dirsCmd := &cobra.Command{
		Use:   "dirs",
		Short: "Manage monitored directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDirsList(ctx, cmd)
		},
	}

	dirsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List monitored directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDirsList(ctx, cmd)
		},
	})

	dirsCmd.AddCommand(&cobra.Command{
		Use:   "add <path>...",
		Short: "Add directories to the monitored set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				current, err := client.Directories()
				if err != nil {
					return err
				}
				dirs := append([]string(nil), current.Directories...)
				for _, arg := range args {
					expanded, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					if containsDir(dirs, expanded) {
						fmt.Fprintf(cmd.OutOrStdout(), "%s already monitored\n", expanded)
						continue
					}
					dirs = append(dirs, expanded)
				}
				resp, err := client.SetDirectories(dirs)
				if err != nil {
					return err
				}
				printDirs(cmd, resp.Directories)
				return nil
			})
		},
	})

	dirsCmd.AddCommand(&cobra.Command{
		Use:   "remove <path>...",
		Short: "Remove directories from the monitored set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				current, err := client.Directories()
				if err != nil {
					return err
				}
				remove := make(map[string]bool, len(args))
				for _, arg := range args {
					expanded, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					remove[expanded] = true
				}
				dirs := make([]string, 0, len(current.Directories))
				for _, dir := range current.Directories {
					if remove[dir] {
						continue
					}
					dirs = append(dirs, dir)
				}
				resp, err := client.SetDirectories(dirs)
				if err != nil {
					return err
				}
				printDirs(cmd, resp.Directories)
				return nil
			})
		},
	})

	return dirsCmd
}

func runDirsList(ctx *commandContext, cmd *cobra.Command) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Directories()
		if err != nil {
			return err
		}
		printDirs(cmd, resp.Directories)
		return nil
	})
}

func printDirs(cmd *cobra.Command, dirs []string) {
	stdout := cmd.OutOrStdout()
	if len(dirs) == 0 {
		fmt.Fprintln(stdout, "No directories monitored")
		return
	}
	fmt.Fprintln(stdout, strings.Join(dirs, "\n"))
}

func containsDir(dirs []string, candidate string) bool {
	for _, dir := range dirs {
		if dir == candidate {
			return true
		}
	}
	return false
}
