package main

import (
	"github.com/spf13/cobra"

	"tasktool/internal/api"
	"tasktool/internal/config"
)

func newReminderCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "List, snooze or dismiss task start reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				reminders, err := client.Reminders(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(reminders)
				}
				return writeReminders(reminders)
			})
		},
	}
	cmd.AddCommand(
		newReminderActionCmd(cfg, jsonOutput, "snooze", "snoozed", "Remind again in five minutes"),
		newReminderActionCmd(cfg, jsonOutput, "dismiss", "dismissed", "Drop a pending reminder"),
	)
	return cmd
}

func newReminderActionCmd(cfg *config.Config, jsonOutput *bool, action, done, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <task-id>",
		Short: short,
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				fn := client.SnoozeReminder
				if action == "dismiss" {
					fn = client.DismissReminder
				}
				resp, err := fn(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s %s\n", resp.TaskID, done)
			})
		},
	}
}
