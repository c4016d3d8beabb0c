package main

import (
	"github.com/spf13/cobra"

	"tasktool/internal/api"
	"tasktool/internal/config"
	"tasktool/internal/format"
	"tasktool/internal/settings"
)

func newSettingsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings (targets, reminders, calendar sync)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cfg, func(client *api.Client) error {
					resp, err := client.GetSettings(cmd.Context())
					if err != nil {
						return err
					}
					return writeSettings(resp, *jsonOutput)
				})
			},
		},
		&cobra.Command{
			Use:       "set <key> <value>",
			Short:     "Change one setting",
			Args:      cobra.ExactArgs(2),
			ValidArgs: settings.AllowedKeys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cfg, func(client *api.Client) error {
					resp, err := client.SetSetting(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					return writeSettings(resp, *jsonOutput)
				})
			},
		},
	)
	return cmd
}

func writeSettings(s api.SettingsResponse, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(s)
	}
	rows := [][]string{
		{"calendar_sync_enabled", boolText(s.CalendarSyncEnabled)},
		{"calendar_category_name", s.CalendarCategoryName},
		{"reminder_lead_minutes", itoa(s.ReminderLeadMinutes)},
		{"date_time_format", s.DateTimeFormat},
		{"monday_target_minutes", itoa(s.MondayTargetMinutes)},
		{"tuesday_target_minutes", itoa(s.TuesdayTargetMinutes)},
		{"wednesday_target_minutes", itoa(s.WednesdayTargetMinutes)},
		{"thursday_target_minutes", itoa(s.ThursdayTargetMinutes)},
		{"friday_target_minutes", itoa(s.FridayTargetMinutes)},
		{"saturday_target_minutes", itoa(s.SaturdayTargetMinutes)},
		{"sunday_target_minutes", itoa(s.SundayTargetMinutes)},
	}
	return writeTable(format.Table{Headers: []string{"Key", "Value"}, Rows: rows})
}
