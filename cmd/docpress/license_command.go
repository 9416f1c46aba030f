package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docpress/internal/ipc"
)

func newLicenseCommand(ctx *commandContext) *cobra.Command {
	licenseCmd := &cobra.Command{
		Use:   "license",
		Short: "Manage the worker license",
	}

	licenseCmd.AddCommand(newLicenseStatusCommand(ctx))
	licenseCmd.AddCommand(newLicenseActivateCommand(ctx))
	licenseCmd.AddCommand(newLicenseDeactivateCommand(ctx))
	return licenseCmd
}

func newLicenseStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current license state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLicenseCommand(ctx, cmd, "license-status", nil, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the raw worker response as JSON")
	return cmd
}

func newLicenseActivateCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "activate <key>",
		Short: "Activate a license key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLicenseCommand(ctx, cmd, "license-activate", []string{args[0]}, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the raw worker response as JSON")
	return cmd
}

func newLicenseDeactivateCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate the current license",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLicenseCommand(ctx, cmd, "license-deactivate", nil, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the raw worker response as JSON")
	return cmd
}

func runLicenseCommand(ctx *commandContext, cmd *cobra.Command, command string, args []string, jsonOut bool) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.License(ipc.LicenseRequest{Command: command, Args: args})
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(cmd, resp)
		}
		if len(resp.Payload) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), compactJSON(resp.Payload))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		return nil
	})
}
