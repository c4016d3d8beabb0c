package main

import (
	"github.com/spf13/cobra"

	"tasktool/internal/api"
	"tasktool/internal/config"
)

func newCalendarCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Inspect the calendar connection",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the backend, whether sync is enabled and the last error",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cfg, func(client *api.Client) error {
					resp, err := client.CalendarStatus(cmd.Context())
					if err != nil {
						return err
					}
					return writeCalendarStatus(resp, *jsonOutput)
				})
			},
		},
		&cobra.Command{
			Use:   "test",
			Short: "Probe the calendar with a short test entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cfg, func(client *api.Client) error {
					resp, err := client.TestCalendar(cmd.Context())
					if err != nil {
						return err
					}
					return writeCalendarStatus(resp, *jsonOutput)
				})
			},
		},
	)
	return cmd
}

func writeCalendarStatus(resp api.CalendarStatusResponse, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(resp)
	}
	state := "disabled"
	if resp.Enabled {
		state = "enabled"
	}
	if err := writePlain("backend: %s (%s)\n", resp.Backend, state); err != nil {
		return err
	}
	if resp.Message != "" {
		if err := writePlain("result: %s\n", resp.Message); err != nil {
			return err
		}
	}
	if resp.LastError != "" {
		return writePlain("last error: %s\n", resp.LastError)
	}
	return nil
}
