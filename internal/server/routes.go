package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /health", s.handleHealth)

	// Tasks collection.
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("POST /v1/tasks/quick", s.handleQuickAdd)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)

	// Single task.
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)

	// Task lifecycle and time tracking.
	mux.HandleFunc("POST /v1/tasks/{id}/start", s.handleTaskAction)
	mux.HandleFunc("POST /v1/tasks/{id}/pause", s.handleTaskAction)
	mux.HandleFunc("POST /v1/tasks/{id}/stop", s.handleTaskAction)
	mux.HandleFunc("POST /v1/tasks/{id}/done", s.handleTaskAction)
	mux.HandleFunc("POST /v1/tasks/{id}/reopen", s.handleTaskAction)
	mux.HandleFunc("POST /v1/tasks/{id}/ticket-minutes", s.handleTicketMinutes)
	mux.HandleFunc("GET /v1/tasks/{id}/elapsed", s.handleElapsed)

	// Task-level calendar block.
	mux.HandleFunc("POST /v1/tasks/{id}/sync", s.handleSyncTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}/sync", s.handleUnsyncTask)

	// Segments.
	mux.HandleFunc("GET /v1/tasks/{id}/segments", s.handleListSegments)
	mux.HandleFunc("POST /v1/tasks/{id}/segments", s.handleAddSegment)
	mux.HandleFunc("POST /v1/tasks/{id}/segments/sync", s.handleSyncAllSegments)
	mux.HandleFunc("GET /v1/segments/{id}", s.handleGetSegment)
	mux.HandleFunc("PATCH /v1/segments/{id}", s.handleUpdateSegment)
	mux.HandleFunc("DELETE /v1/segments/{id}", s.handleDeleteSegment)
	mux.HandleFunc("POST /v1/segments/{id}/sync", s.handleSyncSegment)
	mux.HandleFunc("DELETE /v1/segments/{id}/sync", s.handleUnsyncSegment)

	// Calendar connection.
	mux.HandleFunc("GET /v1/calendar", s.handleCalendarStatus)
	mux.HandleFunc("POST /v1/calendar/test", s.handleCalendarTest)

	// Work days and breaks.
	mux.HandleFunc("GET /v1/days", s.handleListDays)
	mux.HandleFunc("GET /v1/days/{day}", s.handleGetDay)
	mux.HandleFunc("PUT /v1/days/{day}", s.handleSaveDay)
	mux.HandleFunc("POST /v1/days/{day}/come", s.handleCome)
	mux.HandleFunc("POST /v1/days/{day}/go", s.handleGo)
	mux.HandleFunc("POST /v1/days/{day}/breaks", s.handleStartBreak)
	mux.HandleFunc("POST /v1/days/{day}/breaks/end", s.handleEndBreak)
	mux.HandleFunc("PUT /v1/days/{day}/markers", s.handleDayMarkers)

	// Reports.
	mux.HandleFunc("GET /v1/reports/today", s.handleTodayReport)
	mux.HandleFunc("GET /v1/reports/days/{day}", s.handleDayReport)
	mux.HandleFunc("GET /v1/reports/week", s.handleWeekReport)
	mux.HandleFunc("GET /v1/reports/months/{month}", s.handleMonthReport)

	// Settings.
	mux.HandleFunc("GET /v1/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /v1/settings/{key}", s.handleSetSetting)

	// Reminders.
	mux.HandleFunc("GET /v1/reminders", s.handleReminders)
	mux.HandleFunc("POST /v1/reminders/{id}/snooze", s.handleSnoozeReminder)
	mux.HandleFunc("POST /v1/reminders/{id}/dismiss", s.handleDismissReminder)

	return mux
}
