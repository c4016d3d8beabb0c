package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tasktool/internal/calendar"
	"tasktool/internal/config"
	"tasktool/internal/notify"
	"tasktool/internal/reminder"
	"tasktool/internal/report"
	"tasktool/internal/server"
	"tasktool/internal/settings"
	"tasktool/internal/store"
	"tasktool/internal/tasks"
	"tasktool/internal/workday"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the tasktool API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			prefs := settings.Load(cfg.SettingsPath, slog.Default().With("component", "settings"))

			backend := calendarBackend(cfg.Calendar)
			gateway := calendar.NewGateway(backend, prefs,
				calendar.WithTimeout(time.Duration(cfg.Calendar.TimeoutSeconds)*time.Second),
				calendar.WithLogger(slog.Default().With("component", "calendar")),
			)
			defer gateway.Close()
			logger.Info("calendar backend", "name", backend.Name())

			hub := notify.NewHub()
			taskService := tasks.NewService(st, gateway,
				tasks.WithLogger(slog.Default().With("component", "tasks")),
				tasks.WithHub(hub),
			)
			ledger := workday.NewLedger(st,
				workday.WithLogger(slog.Default().With("component", "workday")),
				workday.WithHub(hub),
			)
			engine := report.NewEngine(st, prefs)

			reminderLog := slog.Default().With("component", "reminder")
			scheduler := reminder.NewScheduler(taskService, prefs, func(r reminder.Reminder) {
				reminderLog.Info("task starting soon", "task_id", r.TaskID, "title", r.Title, "start", r.Start, "snoozed", r.Snoozed)
			}, reminder.WithLogger(reminderLog))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go scheduler.Run(ctx)

			srv := server.New(addr, server.Deps{
				Tasks:     taskService,
				Ledger:    ledger,
				Reports:   engine,
				Settings:  prefs,
				Reminders: scheduler,
				Calendar:  gateway,
				Hub:       hub,
				TopTasks:  cfg.Reports.TopTasks,
			}, logger)
			return srv.ListenAndServe(ctx)
		},
	}
}

func calendarBackend(cfg config.CalendarConfig) calendar.Backend {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.CalendarBackendNone:
		return calendar.Unavailable{}
	default:
		return calendar.NewDirBackend(cfg.Dir)
	}
}
