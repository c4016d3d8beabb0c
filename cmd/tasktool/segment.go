package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tasktool/internal/api"
	"tasktool/internal/config"
	"tasktool/internal/models"
	"tasktool/internal/timecalc"
)

func newSegmentCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "segment",
		Aliases: []string{"seg"},
		Short:   "Plan work blocks of a task",
	}

	cmd.AddCommand(
		newSegmentAddCmd(cfg, jsonOutput),
		newSegmentListCmd(cfg, jsonOutput),
		newSegmentUpdateCmd(cfg, jsonOutput),
		newSegmentDeleteCmd(cfg),
		newSegmentSyncCmd(cfg, jsonOutput),
		newSegmentSyncAllCmd(cfg, jsonOutput),
		newSegmentUnsyncCmd(cfg, jsonOutput),
	)
	return cmd
}

func newSegmentAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var start, end, duration, note string
	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add a planned segment to a task",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildSegmentCreateRequest(start, end, duration, note, time.Now())
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				seg, err := client.AddSegment(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(seg)
				}
				return writePlain("%d\n", seg.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&start, "start", "s", "", "segment start (HH:MM or YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVarP(&end, "end", "e", "", "segment end")
	cmd.Flags().StringVar(&duration, "duration", "", "segment length from start (45m, 2h, 1:30)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "note")
	return cmd
}

func buildSegmentCreateRequest(start, end, duration, note string, now time.Time) (api.SegmentCreateRequest, error) {
	from, err := parseTimeArg(start, now)
	if err != nil {
		return api.SegmentCreateRequest{}, fmt.Errorf("--start: %w", err)
	}
	req := api.SegmentCreateRequest{Start: from, Note: note}
	switch {
	case end != "" && duration != "":
		return api.SegmentCreateRequest{}, errors.New("use either --end or --duration")
	case end != "":
		to, err := parseTimeArg(end, from)
		if err != nil {
			return api.SegmentCreateRequest{}, fmt.Errorf("--end: %w", err)
		}
		req.End = to
	case duration != "":
		d, ok := timecalc.ParseDuration(duration)
		if !ok {
			return api.SegmentCreateRequest{}, fmt.Errorf("invalid --duration %q", duration)
		}
		req.End = from.Add(d)
	default:
		return api.SegmentCreateRequest{}, errors.New("--end or --duration is required")
	}
	return req, nil
}

func newSegmentListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's segments",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				segments, err := client.ListSegments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(segments)
				}
				return writeSegmentList(segments)
			})
		},
	}
}

func newSegmentUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var date, startClock, endClock, note string
	cmd := &cobra.Command{
		Use:   "update <segment-id>",
		Short: "Move or annotate a segment",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSegmentID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			req := api.SegmentUpdateRequest{}
			if flags.Changed("date") {
				req.Date = &date
			}
			if flags.Changed("start") {
				req.StartClock = &startClock
			}
			if flags.Changed("end") {
				req.EndClock = &endClock
			}
			if flags.Changed("note") {
				req.Note = &note
			}
			if req == (api.SegmentUpdateRequest{}) {
				return errors.New("nothing to update")
			}
			return withClient(cfg, func(client *api.Client) error {
				seg, err := client.UpdateSegment(cmd.Context(), id, req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(seg)
				}
				return writeSegmentList([]models.Segment{seg})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "move to day (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&startClock, "start", "s", "", "new start clock (HH:MM)")
	cmd.Flags().StringVarP(&endClock, "end", "e", "", "new end clock (HH:MM)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "new note")
	return cmd
}

func newSegmentDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <segment-id>",
		Short: "Delete a segment and its calendar entry",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSegmentID(args[0])
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				return client.DeleteSegment(cmd.Context(), id)
			})
		},
	}
}

func newSegmentSyncCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <segment-id>",
		Short: "Write a segment to the calendar",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSegmentID(args[0])
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				seg, err := client.SyncSegment(cmd.Context(), id)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(seg)
				}
				return writePlain("%d synced as %s\n", seg.ID, seg.CalendarEntryID)
			})
		},
	}
}

func newSegmentSyncAllCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all <task-id>",
		Short: "Write every segment of a task to the calendar",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.SyncAllSegments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if err := writePlain("synced %d of %d segments\n", resp.Total-resp.Failed, resp.Total); err != nil {
					return err
				}
				if resp.Failed > 0 {
					return fmt.Errorf("%d segments failed to sync", resp.Failed)
				}
				return nil
			})
		},
	}
}

func newSegmentUnsyncCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "unsync <segment-id>",
		Short: "Remove a segment from the calendar",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSegmentID(args[0])
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				seg, err := client.UnsyncSegment(cmd.Context(), id)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(seg)
				}
				return writePlain("%d unsynced\n", seg.ID)
			})
		},
	}
}
