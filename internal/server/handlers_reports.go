package server

import (
	"net/http"
	"strings"
)

func (s *Server) handleTodayReport(w http.ResponseWriter, r *http.Request) {
	today, err := s.reports.Today(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, today)
}

func (s *Server) handleDayReport(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayOrBadRequest(w, r)
	if !ok {
		return
	}
	summary, err := s.reports.Day(r.Context(), day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleWeekReport(w http.ResponseWriter, r *http.Request) {
	day, err := queryDay(r, "day")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if day == "" {
		day = s.ledger.Today()
	}
	week, err := s.reports.Week(r.Context(), day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	top, err := queryIntDefault(r, "top", s.topTasks)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	month := strings.TrimSpace(r.PathValue("month"))
	if strings.EqualFold(month, "current") {
		month = s.ledger.Today()[:7]
	}
	rep, err := s.reports.Month(r.Context(), month, top)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}
