package server

import (
	"fmt"
	"net/http"
	"time"

	"tasktool/internal/api"
	"tasktool/internal/models"
)

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	from, err := queryDay(r, "from")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	to, err := queryDay(r, "to")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if from == "" || to == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("from and to are required"), ErrCodeMissingRequired))
		return
	}
	days, err := s.ledger.DaysInRange(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(days))
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayOrBadRequest(w, r)
	if !ok {
		return
	}
	record, err := s.ledger.Day(r.Context(), day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	record.Breaks = nonNil(record.Breaks)
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleSaveDay(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.ManualDayRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	breaks := make([]models.Break, 0, len(req.Breaks))
	for _, b := range req.Breaks {
		breaks = append(breaks, models.Break{Start: b.Start, End: b.End, Note: b.Note})
	}
	record, err := s.ledger.SaveManualDay(r.Context(), day, req.Come, req.Go, breaks)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	record.Breaks = nonNil(record.Breaks)
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCome(w http.ResponseWriter, r *http.Request) {
	s.handleStamp(w, r, true)
}

func (s *Server) handleGo(w http.ResponseWriter, r *http.Request) {
	s.handleStamp(w, r, false)
}

// handleStamp sets come or go. Without an explicit time only today can be
// stamped with the current time.
func (s *Server) handleStamp(w http.ResponseWriter, r *http.Request, come bool) {
	day, ok := s.dayOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.StampRequest
	if !s.decodeOptionalJSONReq(w, r, &req) {
		return
	}

	ctx := r.Context()
	var (
		wd  *models.WorkDay
		err error
	)
	switch {
	case req.At == nil && day == s.ledger.Today() && come:
		wd, err = s.ledger.SetCome(ctx)
	case req.At == nil && day == s.ledger.Today():
		wd, err = s.ledger.SetGo(ctx)
	case come:
		wd, err = s.ledger.SetComeAt(ctx, day, timeOrZero(req.At))
	default:
		wd, err = s.ledger.SetGoAt(ctx, day, timeOrZero(req.At))
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wd)
}

func (s *Server) handleStartBreak(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.BreakStartRequest
	if !s.decodeOptionalJSONReq(w, r, &req) {
		return
	}
	b, err := s.ledger.StartBreak(r.Context(), day, req.Note)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleEndBreak(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayOrBadRequest(w, r)
	if !ok {
		return
	}
	ended, err := s.ledger.EndBreak(r.Context(), day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.BreakEndResponse{Ended: ended})
}

func (s *Server) handleDayMarkers(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.DayMarkersRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	wd, err := s.ledger.SetDayMarkers(r.Context(), day, req.DayType, req.IsBr, req.IsHo)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wd)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
