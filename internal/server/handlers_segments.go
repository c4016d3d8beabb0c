package server

import (
	"net/http"

	"tasktool/internal/api"
	"tasktool/internal/models"
	"tasktool/internal/tasks"
)

func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if _, err := s.tasks.Get(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	segments, err := s.tasks.Segments(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(segments))
}

func (s *Server) handleAddSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.SegmentCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	seg, err := s.tasks.AddSegment(r.Context(), tasks.SegmentInput{
		TaskID: id,
		Start:  req.Start,
		End:    req.End,
		Note:   req.Note,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, seg)
}

func (s *Server) handleSyncAllSegments(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	failed, err := s.tasks.SyncAllSegments(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	segments, err := s.tasks.Segments(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SyncAllResponse{TaskID: id, Total: len(segments), Failed: failed})
}

func (s *Server) handleGetSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.segmentIDOrBadRequest(w, r)
	if !ok {
		return
	}
	seg, err := s.tasks.Segment(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, seg)
}

func (s *Server) handleUpdateSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.segmentIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.SegmentUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	patch := tasks.SegmentPatch{
		Start:      req.Start,
		End:        req.End,
		StartClock: req.StartClock,
		EndClock:   req.EndClock,
		Note:       req.Note,
	}
	if req.Date != nil {
		day, err := models.ParseDayKey(*req.Date)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeInvalidDay))
			return
		}
		patch.Date = &day
	}

	seg, err := s.tasks.UpdateSegment(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, seg)
}

func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.segmentIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.tasks.DeleteSegment(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.segmentIDOrBadRequest(w, r)
	if !ok {
		return
	}
	seg, err := s.tasks.SyncSegment(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, seg)
}

func (s *Server) handleUnsyncSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.segmentIDOrBadRequest(w, r)
	if !ok {
		return
	}
	seg, err := s.tasks.UnsyncSegment(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, seg)
}
