package main

import (
	"github.com/spf13/cobra"

	"tasktool/internal/api"
	"tasktool/internal/config"
	"tasktool/internal/report"
)

func newReportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Net time, targets and overtime",
	}
	cmd.AddCommand(
		newReportTodayCmd(cfg, jsonOutput),
		newReportDayCmd(cfg, jsonOutput),
		newReportWeekCmd(cfg, jsonOutput),
		newReportMonthCmd(cfg, jsonOutput),
	)
	return cmd
}

func newReportTodayCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Today's balance and month-to-date overtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				today, err := client.TodayReport(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(today)
				}
				return writeToday(today)
			})
		},
	}
}

func newReportDayCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "day [day]",
		Short: "Reconciled summary of one day",
		Args:  optionalDay,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				day, err := client.DayReport(cmd.Context(), dayArg(args))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(day)
				}
				return writeDaySummary(day)
			})
		},
	}
}

func newReportWeekCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "week [day]",
		Short: "The Monday to Sunday week containing day",
		Args:  optionalDay,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				week, err := client.WeekReport(cmd.Context(), dayArg(args))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(week)
				}
				return writeWeek(week)
			})
		},
	}
}

func newReportMonthCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		top     int
		pdfPath string
	)
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Monthly report, optionally written as PDF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := "current"
			if len(args) == 1 {
				month = args[0]
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.MonthReport(cmd.Context(), month, top)
				if err != nil {
					return err
				}
				if pdfPath != "" {
					if err := report.WritePDF(resp, pdfPath); err != nil {
						return err
					}
					if !*jsonOutput {
						return writePlain("wrote %s\n", pdfPath)
					}
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeMonth(resp)
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "number of top tasks (default from config)")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the report to this PDF file")
	return cmd
}
