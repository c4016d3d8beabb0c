package main

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tasktool/internal/api"
	"tasktool/internal/config"
	"tasktool/internal/launcher"
	"tasktool/internal/models"
	"tasktool/internal/timecalc"
)

func newTaskCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Create, track and inspect tasks",
	}

	cmd.AddCommand(
		newTaskAddCmd(cfg, jsonOutput),
		newTaskQuickCmd(cfg, jsonOutput),
		newTaskListCmd(cfg, jsonOutput),
		newTaskShowCmd(cfg, jsonOutput),
		newTaskUpdateCmd(cfg, jsonOutput),
		newTaskActionCmd(cfg, jsonOutput, "start", "Start tracking time on a task"),
		newTaskActionCmd(cfg, jsonOutput, "pause", "Pause a task and close its open time log"),
		newTaskActionCmd(cfg, jsonOutput, "stop", "Stop tracking a task"),
		newTaskActionCmd(cfg, jsonOutput, "done", "Mark a task done"),
		newTaskActionCmd(cfg, jsonOutput, "reopen", "Reopen a done or cancelled task"),
		newTaskBookCmd(cfg, jsonOutput),
		newTaskElapsedCmd(cfg, jsonOutput),
		newTaskDeleteCmd(cfg),
		newTaskOpenCmd(cfg),
		newTaskSyncCmd(cfg, jsonOutput),
		newTaskUnsyncCmd(cfg, jsonOutput),
	)
	return cmd
}

type taskAddOptions struct {
	description string
	ticketURL   string
	start       string
	end         string
	duration    string
	status      string
	priority    int
	tags        string
}

func newTaskAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &taskAddOptions{}
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildTaskCreateRequest(cmd, opts, args, time.Now())
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.CreateTask(cmd.Context(), req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writePlain("%s\n", task.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&opts.ticketURL, "url", "u", "", "ticket URL (http or https)")
	cmd.Flags().StringVarP(&opts.start, "start", "s", "", "planned start (HH:MM or YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVarP(&opts.end, "end", "e", "", "planned end")
	cmd.Flags().StringVar(&opts.duration, "duration", "", "planned duration from start (45m, 2h, 1:30)")
	cmd.Flags().StringVar(&opts.status, "status", "", "initial status")
	cmd.Flags().IntVarP(&opts.priority, "priority", "p", 0, "priority")
	cmd.Flags().StringVarP(&opts.tags, "tags", "t", "", "comma separated tags")
	return cmd
}

func buildTaskCreateRequest(cmd *cobra.Command, opts *taskAddOptions, args []string, now time.Time) (api.TaskCreateRequest, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return api.TaskCreateRequest{}, errors.New("title is required")
	}
	req := api.TaskCreateRequest{
		Title:       title,
		Description: opts.description,
		TicketURL:   opts.ticketURL,
		Status:      opts.status,
		Tags:        opts.tags,
	}
	if cmd.Flags().Changed("priority") {
		req.Priority = &opts.priority
	}

	start, err := optionalTimeArg(opts.start, now)
	if err != nil {
		return api.TaskCreateRequest{}, err
	}
	req.Start = start
	end, err := optionalTimeArg(opts.end, now)
	if err != nil {
		return api.TaskCreateRequest{}, err
	}
	req.End = end

	if opts.duration != "" {
		if req.End != nil {
			return api.TaskCreateRequest{}, errors.New("use either --end or --duration")
		}
		if req.Start == nil {
			return api.TaskCreateRequest{}, errors.New("--duration needs --start")
		}
		d, ok := timecalc.ParseDuration(opts.duration)
		if !ok {
			return api.TaskCreateRequest{}, errors.New("invalid --duration " + strconv.Quote(opts.duration))
		}
		e := req.Start.Add(d)
		req.End = &e
	}
	return req, nil
}

func newTaskQuickCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "quick <title | start | duration | url>",
		Short: "Create a task from one line of text",
		Long: "Create a task from pipe separated fields: title, then optional start\n" +
			"(HH:MM or YYYY-MM-DD HH:MM), duration (45m, 2h, 1:30) and ticket URL.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.QuickAdd(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writePlain("%s\n", task.ID)
			})
		},
	}
}

func newTaskListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		scope  string
		search string
		day    string
		from   string
		to     string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			setIfNotEmpty(query, "scope", scope)
			setIfNotEmpty(query, "search", search)
			setIfNotEmpty(query, "day", day)
			setIfNotEmpty(query, "from", from)
			setIfNotEmpty(query, "to", to)
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			return withClient(cfg, func(client *api.Client) error {
				tasks, err := client.ListTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(tasks)
				}
				return writeTaskList(tasks)
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "all, active or done")
	cmd.Flags().StringVar(&search, "search", "", "match title, description or tags")
	cmd.Flags().StringVar(&day, "day", "", "tasks planned on a day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&from, "from", "", "range start")
	cmd.Flags().StringVar(&to, "to", "", "range end")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func newTaskShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its time logs and segments",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.GetTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writeTaskDetail(task)
			})
		},
	}
}

type taskUpdateOptions struct {
	title         string
	description   string
	ticketURL     string
	start         string
	end           string
	status        string
	priority      int
	tags          string
	clearStart    bool
	clearEnd      bool
	clearPriority bool
}

func newTaskUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &taskUpdateOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change task fields",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildTaskUpdateRequest(cmd, opts, time.Now())
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.UpdateTask(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writePlain("%s\n", task.ID)
			})
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "new title")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&opts.ticketURL, "url", "u", "", "new ticket URL (empty clears)")
	cmd.Flags().StringVarP(&opts.start, "start", "s", "", "new planned start")
	cmd.Flags().StringVarP(&opts.end, "end", "e", "", "new planned end")
	cmd.Flags().StringVar(&opts.status, "status", "", "new status")
	cmd.Flags().IntVarP(&opts.priority, "priority", "p", 0, "new priority")
	cmd.Flags().StringVarP(&opts.tags, "tags", "t", "", "new tags")
	cmd.Flags().BoolVar(&opts.clearStart, "clear-start", false, "remove the planned start")
	cmd.Flags().BoolVar(&opts.clearEnd, "clear-end", false, "remove the planned end")
	cmd.Flags().BoolVar(&opts.clearPriority, "clear-priority", false, "remove the priority")
	return cmd
}

func buildTaskUpdateRequest(cmd *cobra.Command, opts *taskUpdateOptions, now time.Time) (api.TaskUpdateRequest, error) {
	flags := cmd.Flags()
	req := api.TaskUpdateRequest{
		ClearStart:    opts.clearStart,
		ClearEnd:      opts.clearEnd,
		ClearPriority: opts.clearPriority,
	}
	if flags.Changed("title") {
		req.Title = &opts.title
	}
	if flags.Changed("description") {
		req.Description = &opts.description
	}
	if flags.Changed("url") {
		req.TicketURL = &opts.ticketURL
	}
	if flags.Changed("status") {
		req.Status = &opts.status
	}
	if flags.Changed("priority") {
		req.Priority = &opts.priority
	}
	if flags.Changed("tags") {
		req.Tags = &opts.tags
	}
	if flags.Changed("start") {
		start, err := parseTimeArg(opts.start, now)
		if err != nil {
			return api.TaskUpdateRequest{}, err
		}
		req.Start = &start
	}
	if flags.Changed("end") {
		end, err := parseTimeArg(opts.end, now)
		if err != nil {
			return api.TaskUpdateRequest{}, err
		}
		req.End = &end
	}
	if req == (api.TaskUpdateRequest{}) {
		return req, errors.New("nothing to update")
	}
	return req, nil
}

func newTaskActionCmd(cfg *config.Config, jsonOutput *bool, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.TaskAction(cmd.Context(), args[0], action)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writeTaskStatus(task)
			})
		},
	}
}

func writeTaskStatus(task models.Task) error {
	return writePlain("%s %s\n", task.ID, task.Status)
}

func newTaskBookCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "book <id>",
		Short: "Add (or with a negative value subtract) ticket minutes",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes == 0 {
				return errors.New("--minutes is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.AddTicketMinutes(cmd.Context(), args[0], minutes)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writePlain("%s booked %d minutes\n", task.ID, task.TicketMinutesBooked)
			})
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "minutes to add, negative to subtract")
	return cmd
}

func newTaskElapsedCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "elapsed <id>",
		Short: "Show tracked time including a running log",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Elapsed(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s\n", resp.Clock)
			})
		},
	}
}

func newTaskDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task and its calendar entries",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				return client.DeleteTask(cmd.Context(), args[0])
			})
		},
	}
}

func newTaskOpenCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Open the task's ticket URL in the browser",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.GetTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if task.TicketURL == "" {
					return errors.New("task has no ticket URL")
				}
				return launcher.New().Open(task.TicketURL)
			})
		},
	}
}

func newTaskSyncCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <id>",
		Short: "Write the task's planned block to the calendar",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.SyncTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writePlain("%s synced as %s\n", task.ID, task.CalendarEntryID)
			})
		},
	}
}

func newTaskUnsyncCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "unsync <id>",
		Short: "Remove the task's block from the calendar",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				task, err := client.UnsyncTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(task)
				}
				return writePlain("%s unsynced\n", task.ID)
			})
		},
	}
}
