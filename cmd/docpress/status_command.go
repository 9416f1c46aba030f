package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"docpress/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, status)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				runningKind := statusError
				if status.Running {
					runningKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("daemon", runningKind, fmt.Sprintf("running=%s pid=%d", yesNo(status.Running), status.PID), colorize))
				fmt.Fprintln(out, renderStatusLine("active jobs", statusInfo, fmt.Sprintf("%d", status.ActiveJobs), colorize))
				fmt.Fprintln(out, renderStatusLine("socket", statusInfo, status.SocketPath, colorize))
				fmt.Fprintln(out, renderStatusLine("history db", statusInfo, status.HistoryDBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("log file", statusInfo, status.LogPath, colorize))

				if len(status.JobStats) > 0 {
					names := make([]string, 0, len(status.JobStats))
					for name := range status.JobStats {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						kind := statusInfo
						if name == "failed" && status.JobStats[name] > 0 {
							kind = statusWarn
						}
						fmt.Fprintln(out, renderStatusLine("jobs "+name, kind, fmt.Sprintf("%d", status.JobStats[name]), colorize))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}
