package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tasktool/internal/api"
	"tasktool/internal/config"
	"tasktool/internal/models"
)

func newDayCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Stamp come and go, take breaks and edit work days",
	}

	cmd.AddCommand(
		newDayShowCmd(cfg, jsonOutput),
		newDayListCmd(cfg, jsonOutput),
		newDayStampCmd(cfg, jsonOutput, "come", "Record arrival"),
		newDayStampCmd(cfg, jsonOutput, "go", "Record leaving"),
		newDayBreakStartCmd(cfg, jsonOutput),
		newDayBreakEndCmd(cfg, jsonOutput),
		newDaySetCmd(cfg, jsonOutput),
		newDayMarkersCmd(cfg, jsonOutput),
	)
	return cmd
}

// anchorTime is the reference for clock-only times given for day.
func anchorTime(day string, now time.Time) (time.Time, error) {
	if day == "" {
		return now, nil
	}
	t, err := models.ParseDayKey(day)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func newDayShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show [day]",
		Short: "Show a work day and its breaks",
		Args:  optionalDay,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				day, err := client.GetDay(cmd.Context(), dayArg(args))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(day)
				}
				return writeDay(day)
			})
		},
	}
}

func newDayListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded days in a range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" || to == "" {
				return errors.New("--from and --to are required")
			}
			return withClient(cfg, func(client *api.Client) error {
				days, err := client.ListDays(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(days)
				}
				for i, day := range days {
					if i > 0 {
						if err := writePlain("\n"); err != nil {
							return err
						}
					}
					if err := writeDay(day); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	return cmd
}

func newDayStampCmd(cfg *config.Config, jsonOutput *bool, which, short string) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   which + " [day]",
		Short: short,
		Long:  short + ". Without --at today uses the current time; other days need --at.",
		Args:  optionalDay,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := dayArg(args)
			anchor, err := anchorTime(day, time.Now())
			if err != nil {
				return err
			}
			stamp, err := optionalTimeArg(at, anchor)
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				stampFn := client.Come
				if which == "go" {
					stampFn = client.Go
				}
				wd, err := stampFn(cmd.Context(), day, stamp)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(wd)
				}
				t := wd.Come
				if which == "go" {
					t = wd.Go
				}
				return writePlain("%s %s %s\n", wd.Day, which, formatClock(t))
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "explicit time (HH:MM)")
	return cmd
}

func newDayBreakStartCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "break-start [day]",
		Short: "Open a break now",
		Args:  optionalDay,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				b, err := client.StartBreak(cmd.Context(), dayArg(args), note)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(b)
				}
				start := b.Start
				return writePlain("break %d started at %s\n", b.ID, formatClock(&start))
			})
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "break note (default \"pause\")")
	return cmd
}

func newDayBreakEndCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "break-end [day]",
		Short: "Close the open break",
		Args:  optionalDay,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.EndBreak(cmd.Context(), dayArg(args))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if !resp.Ended {
					return writePlain("no open break\n")
				}
				return writePlain("break ended\n")
			})
		},
	}
}

func newDaySetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var come, goAt string
	var breaks []string
	cmd := &cobra.Command{
		Use:   "set <day>",
		Short: "Replace a day's come, go and breaks",
		Long: "Replace a day's come, go and breaks. Breaks are given as\n" +
			"HH:MM-HH:MM or HH:MM-HH:MM=note and replace all existing breaks.",
		Args: requireExactlyArgs(1, "day (YYYY-MM-DD) is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildManualDayRequest(args[0], come, goAt, breaks)
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				day, err := client.SaveDay(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(day)
				}
				return writeDay(day)
			})
		},
	}
	cmd.Flags().StringVar(&come, "come", "", "arrival (HH:MM)")
	cmd.Flags().StringVar(&goAt, "go", "", "leaving (HH:MM)")
	cmd.Flags().StringArrayVarP(&breaks, "break", "b", nil, "break HH:MM-HH:MM[=note] (repeatable)")
	return cmd
}

func buildManualDayRequest(day, come, goAt string, breaks []string) (api.ManualDayRequest, error) {
	anchor, err := anchorTime(day, time.Now())
	if err != nil {
		return api.ManualDayRequest{}, err
	}
	req := api.ManualDayRequest{Breaks: []api.BreakInput{}}
	if req.Come, err = optionalTimeArg(come, anchor); err != nil {
		return api.ManualDayRequest{}, fmt.Errorf("--come: %w", err)
	}
	if req.Go, err = optionalTimeArg(goAt, anchor); err != nil {
		return api.ManualDayRequest{}, fmt.Errorf("--go: %w", err)
	}
	for _, raw := range breaks {
		b, err := parseBreakArg(raw, anchor)
		if err != nil {
			return api.ManualDayRequest{}, err
		}
		req.Breaks = append(req.Breaks, b)
	}
	return req, nil
}

// parseBreakArg reads "09:00-09:30" with an optional "=note" suffix. An
// empty end ("12:00-") leaves the break open.
func parseBreakArg(raw string, anchor time.Time) (api.BreakInput, error) {
	value, note, _ := strings.Cut(strings.TrimSpace(raw), "=")
	startRaw, endRaw, ok := strings.Cut(value, "-")
	if !ok {
		return api.BreakInput{}, fmt.Errorf("invalid break %q (use HH:MM-HH:MM)", raw)
	}
	start, err := parseTimeArg(startRaw, anchor)
	if err != nil {
		return api.BreakInput{}, fmt.Errorf("break %q: %w", raw, err)
	}
	end, err := optionalTimeArg(endRaw, anchor)
	if err != nil {
		return api.BreakInput{}, fmt.Errorf("break %q: %w", raw, err)
	}
	return api.BreakInput{Start: start, End: end, Note: strings.TrimSpace(note)}, nil
}

func newDayMarkersCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dayType string
	var isBr, isHo bool
	cmd := &cobra.Command{
		Use:   "markers <day>",
		Short: "Set the day type and business trip or home office flags",
		Args:  requireExactlyArgs(1, "day (YYYY-MM-DD) is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.DayMarkersRequest{DayType: dayType, IsBr: isBr, IsHo: isHo}
			return withClient(cfg, func(client *api.Client) error {
				wd, err := client.SetDayMarkers(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(wd)
				}
				return writePlain("%s %s br=%t ho=%t\n", wd.Day, wd.DayType, wd.IsBr, wd.IsHo)
			})
		},
	}
	cmd.Flags().StringVar(&dayType, "type", string(models.DayNormal), "Normal, AM or UL")
	cmd.Flags().BoolVar(&isBr, "br", false, "business trip")
	cmd.Flags().BoolVar(&isHo, "ho", false, "home office")
	return cmd
}
