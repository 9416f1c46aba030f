package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docpress/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past conversion jobs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversion jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList(statuses)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Jobs)
				}
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No conversion jobs recorded.")
					return nil
				}

				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					rows = append(rows, []string{
						shortToken(job.Token),
						job.Command,
						job.Status,
						fmt.Sprintf("%3.0f%%", job.ProgressPercent),
						summarizeInputs(job.InputPaths),
						job.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				table := renderTable(
					[]string{"TOKEN", "COMMAND", "STATUS", "PROGRESS", "INPUT", "UPDATED"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (pending, running, completed, failed)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit jobs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <token>",
		Short: "Show one conversion job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryDescribe(args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Job)
				}

				job := resp.Job
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Token:    %s\n", job.Token)
				fmt.Fprintf(out, "Command:  %s\n", job.Command)
				fmt.Fprintf(out, "Status:   %s\n", job.Status)
				for _, path := range job.InputPaths {
					fmt.Fprintf(out, "Input:    %s\n", path)
				}
				if job.OutputDir != "" {
					fmt.Fprintf(out, "Output:   %s\n", job.OutputDir)
				}
				if job.ProgressStage != "" {
					fmt.Fprintf(out, "Progress: %s %.0f%% %s\n", job.ProgressStage, job.ProgressPercent, job.ProgressMessage)
				}
				if job.ExitCode != nil {
					fmt.Fprintf(out, "Exit:     %d\n", *job.ExitCode)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", job.ErrorMessage)
				}
				if job.StderrTail != "" {
					fmt.Fprintln(out, "Stderr:")
					for _, line := range strings.Split(job.StderrTail, "\n") {
						fmt.Fprintf(out, "  %s\n", line)
					}
				}
				if job.ResultJSON != "" {
					fmt.Fprintf(out, "Result:   %s\n", job.ResultJSON)
				}
				fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Updated:  %s\n", job.UpdatedAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the job as JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove conversion jobs from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				var removed int64
				if failedOnly {
					resp, err := client.HistoryClearFailed()
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					resp, err := client.HistoryClear()
					if err != nil {
						return err
					}
					removed = resp.Removed
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Remove only failed jobs")
	return cmd
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

func summarizeInputs(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	first := filepath.Base(paths[0])
	if len(paths) == 1 {
		return first
	}
	return fmt.Sprintf("%s (+%d more)", first, len(paths)-1)
}
