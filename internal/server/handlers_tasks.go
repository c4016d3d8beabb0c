package server

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"tasktool/internal/api"
	"tasktool/internal/models"
	"tasktool/internal/tasks"
	"tasktool/internal/timecalc"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req api.TaskCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	input := tasks.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		TicketURL:   req.TicketURL,
		Start:       req.Start,
		End:         req.End,
		Priority:    req.Priority,
		Tags:        req.Tags,
	}
	if req.Status != "" {
		status, err := models.ParseTaskStatus(req.Status)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeInvalidStatus))
			return
		}
		input.Status = status
	}

	task, err := s.tasks.Create(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	var req api.QuickAddRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	task, err := s.tasks.QuickAdd(r.Context(), req.Input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if day := strings.TrimSpace(query.Get("day")); day != "" {
		start, err := parseFlexibleTime(day)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, err)
			return
		}
		list, err := s.tasks.ForDay(r.Context(), start)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nonNil(list))
		return
	}

	if from, to := strings.TrimSpace(query.Get("from")), strings.TrimSpace(query.Get("to")); from != "" || to != "" {
		if from == "" || to == "" {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("from and to must be set together"), ErrCodeInvalidTimeRange))
			return
		}
		fromTime, err := parseFlexibleTime(from)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, err)
			return
		}
		toTime, err := parseFlexibleTime(to)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, err)
			return
		}
		list, err := s.tasks.InRange(r.Context(), fromTime, toTime)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nonNil(list))
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	list, err := s.tasks.List(r.Context(), tasks.ListOptions{
		Scope:  tasks.Scope(strings.TrimSpace(query.Get("scope"))),
		Search: query.Get("search"),
		Limit:  limit,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logs, err := s.tasks.TimeLogs(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	segments, err := s.tasks.Segments(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	tracked, err := s.tasks.TrackedDuration(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.TaskDetailResponse{
		Task:           *task,
		TrackedSeconds: int64(tracked.Seconds()),
		TimeLogs:       nonNil(logs),
		Segments:       nonNil(segments),
	})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.TaskUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	patch := tasks.TaskPatch{
		Title:         req.Title,
		Description:   req.Description,
		TicketURL:     req.TicketURL,
		Start:         req.Start,
		ClearStart:    req.ClearStart,
		End:           req.End,
		ClearEnd:      req.ClearEnd,
		Priority:      req.Priority,
		ClearPriority: req.ClearPriority,
		Tags:          req.Tags,
	}
	if req.Status != nil {
		status, err := models.ParseTaskStatus(*req.Status)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeInvalidStatus))
			return
		}
		patch.Status = &status
	}

	task, err := s.tasks.Update(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var (
		task *models.Task
		err  error
	)
	switch action := path.Base(r.URL.Path); action {
	case "start":
		task, err = s.tasks.Start(ctx, id)
	case "pause":
		task, err = s.tasks.Pause(ctx, id)
	case "stop":
		task, err = s.tasks.Stop(ctx, id)
	case "done":
		task, err = s.tasks.MarkDone(ctx, id)
	case "reopen":
		task, err = s.tasks.Reopen(ctx, id)
	default:
		err = badRequest(fmt.Errorf("unknown task action: %s", action))
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTicketMinutes(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.TicketMinutesRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	task, err := s.tasks.AddTicketMinutes(r.Context(), id, req.Delta)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleElapsed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	tracked, err := s.tasks.TrackedDuration(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ElapsedResponse{
		TaskID:  id,
		Seconds: int64(tracked.Seconds()),
		Clock:   timecalc.FormatClock(tracked),
	})
}

func (s *Server) handleSyncTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.SyncTask(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUnsyncTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.DeleteTaskBlock(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
