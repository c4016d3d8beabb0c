package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tasktool/internal/api"
	"tasktool/internal/calendar"
	"tasktool/internal/notify"
	"tasktool/internal/settings"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) calendarStatus() api.CalendarStatusResponse {
	resp := api.CalendarStatusResponse{
		Backend:   "none",
		LastError: s.tasks.LastError(),
	}
	if s.calendar != nil {
		resp.Backend = s.calendar.BackendName()
		resp.Enabled = s.calendar.Enabled()
	}
	return resp
}

func (s *Server) handleCalendarStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.calendarStatus())
}

// handleCalendarTest reports the probe outcome in the body; only a
// disabled sync is an error.
func (s *Server) handleCalendarTest(w http.ResponseWriter, r *http.Request) {
	err := s.tasks.TestConnection(r.Context())
	if errors.Is(err, calendar.ErrSyncDisabled) {
		s.writeServiceError(w, r, err)
		return
	}
	resp := s.calendarStatus()
	resp.OK = err == nil
	if err != nil {
		resp.Message = calendar.UserMessage(err)
		s.log().Warn("calendar connection test failed", "backend", resp.Backend, "error", err)
	} else {
		resp.Message = "Calendar connection works."
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Current())
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	var req api.SettingUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	current, err := s.settings.Set(key, req.Value)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidSetting) {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeErrorReq(w, r, http.StatusInternalServerError, makeAPIError(http.StatusInternalServerError, "internal", ErrCodeSettingsWrite, err))
		return
	}
	s.publish(notify.SettingsChanged, key)
	s.writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	if s.reminders == nil {
		s.writeJSON(w, http.StatusOK, []api.ReminderResponse{})
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(s.reminders.Pending()))
}

func (s *Server) handleSnoozeReminder(w http.ResponseWriter, r *http.Request) {
	s.handleReminderAction(w, r, "snooze")
}

func (s *Server) handleDismissReminder(w http.ResponseWriter, r *http.Request) {
	s.handleReminderAction(w, r, "dismiss")
}

func (s *Server) handleReminderAction(w http.ResponseWriter, r *http.Request, action string) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	affected := false
	if s.reminders != nil {
		if action == "snooze" {
			affected = s.reminders.Snooze(id)
		} else {
			affected = s.reminders.Dismiss(id)
		}
	}
	if !affected {
		s.writeErrorReq(w, r, http.StatusNotFound, notFoundCode(fmt.Errorf("no pending reminder for task %s", id), ErrCodeReminderNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, api.ReminderActionResponse{TaskID: id, OK: true})
}
