package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"tasktool/internal/notify"
	"tasktool/internal/reminder"
	"tasktool/internal/report"
	"tasktool/internal/settings"
	"tasktool/internal/tasks"
	"tasktool/internal/workday"
)

const (
	allowRemoteEnvKey = "TASKTOOL_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// CalendarInfo describes the configured calendar backend.
type CalendarInfo interface {
	BackendName() string
	Enabled() bool
}

// Deps are the services exposed over HTTP.
type Deps struct {
	Tasks     *tasks.Service
	Ledger    *workday.Ledger
	Reports   *report.Engine
	Settings  *settings.Manager
	Reminders *reminder.Scheduler
	Calendar  CalendarInfo
	Hub       *notify.Hub
	TopTasks  int
}

// Server wraps HTTP handlers for the tasktool API.
type Server struct {
	addr      string
	tasks     *tasks.Service
	ledger    *workday.Ledger
	reports   *report.Engine
	settings  *settings.Manager
	reminders *reminder.Scheduler
	calendar  CalendarInfo
	hub       *notify.Hub
	topTasks  int
	logger    *slog.Logger
}

// New creates a new server instance.
func New(addr string, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	topTasks := deps.TopTasks
	if topTasks <= 0 {
		topTasks = report.DefaultTopTasks
	}

	return &Server{
		addr:      addr,
		tasks:     deps.Tasks,
		ledger:    deps.Ledger,
		reports:   deps.Reports,
		settings:  deps.Settings,
		reminders: deps.Reminders,
		calendar:  deps.Calendar,
		hub:       deps.Hub,
		topTasks:  topTasks,
		logger:    logger,
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log().Info("stopping server", "addr", s.addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) publish(topic notify.Topic, key string) {
	s.hub.Publish(notify.Event{Topic: topic, Key: key})
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
