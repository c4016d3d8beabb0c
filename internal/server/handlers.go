package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tasktool/internal/api"
	"tasktool/internal/calendar"
	"tasktool/internal/launcher"
	"tasktool/internal/models"
	"tasktool/internal/report"
	"tasktool/internal/settings"
	"tasktool/internal/tasks"
	"tasktool/internal/workday"
)

const defaultJSONMaxBody = 1 << 20 // 1 MiB

func (s *Server) writeErrorReq(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	code := errorCode(status, err)
	numericCode := errorNumericCode(status, err)
	message := err.Error()
	public := false
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.message != "" {
		message = apiErr.message
		public = true
	}

	fields := []any{"status", status, "code", code, "error_code", numericCode, "error", err}
	if r != nil {
		fields = append(fields, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	}

	switch {
	case status >= 500:
		s.log().Error("request error", fields...)
		if !public {
			message = "internal error"
		}
	case status >= 400 && shouldWarnClientError(status):
		s.log().Warn("request rejected", fields...)
	case status >= 400:
		s.log().Debug("request rejected", fields...)
	}

	s.writeJSON(w, status, api.ErrorResponse{Error: message, Code: code, ErrorCode: numericCode})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

// apiError carries the HTTP classification of an error. A non-empty
// message is shown to clients even for 5xx statuses.
type apiError struct {
	status  int
	code    string
	errCode int
	err     error
	message string
}

func (e apiError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

func makeAPIError(status int, code string, errCode int, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	var existing apiError
	if errors.As(err, &existing) {
		if existing.status != 0 {
			return existing
		}
	}

	return apiError{status: status, code: code, errCode: errCode, err: err}
}

func badRequest(err error) error {
	return badRequestCode(err, ErrCodeInvalidArgument)
}

func badRequestCode(err error, code int) error {
	return makeAPIError(http.StatusBadRequest, "invalid_argument", code, err)
}

func notFoundCode(err error, code int) error {
	return makeAPIError(http.StatusNotFound, "not_found", code, err)
}

func conflictCode(err error, code int) error {
	return makeAPIError(http.StatusConflict, "conflict", code, err)
}

func storeFailure(err error) error {
	return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeStoreFailure, err)
}

func calendarError(status int, code string, errCode int, err error) error {
	return apiError{status: status, code: code, errCode: errCode, err: err, message: calendar.UserMessage(err)}
}

// classifyServiceError maps domain errors onto API errors. Unknown
// errors are treated as storage failures.
func classifyServiceError(err error) error {
	var existing apiError
	if errors.As(err, &existing) {
		return existing
	}

	var backendErr *calendar.BackendError
	switch {
	case errors.Is(err, calendar.ErrSyncDisabled):
		return conflictCode(err, ErrCodeCalendarDisabled)
	case errors.Is(err, calendar.ErrMissingTitle), errors.Is(err, calendar.ErrInvalidRange):
		return badRequestCode(err, ErrCodeCalendarInvalid)
	case errors.As(err, &backendErr):
		switch {
		case errors.Is(err, calendar.ErrUnavailable):
			return calendarError(http.StatusServiceUnavailable, "calendar_unavailable", ErrCodeCalendarUnavailable, err)
		case errors.Is(err, context.DeadlineExceeded):
			return calendarError(http.StatusGatewayTimeout, "calendar_timeout", ErrCodeCalendarTimeout, err)
		case errors.Is(err, calendar.ErrNotFound):
			return calendarError(http.StatusBadGateway, "calendar_not_found", ErrCodeCalendarNotFound, err)
		case errors.Is(err, calendar.ErrPermission):
			return calendarError(http.StatusBadGateway, "calendar_permission", ErrCodeCalendarPermission, err)
		default:
			return calendarError(http.StatusBadGateway, "calendar_failure", ErrCodeCalendarFailure, err)
		}
	case errors.Is(err, launcher.ErrInvalidURL):
		return badRequestCode(err, ErrCodeInvalidURL)
	case errors.Is(err, tasks.ErrValidation), errors.Is(err, workday.ErrValidation):
		return badRequest(err)
	case errors.Is(err, report.ErrInvalidPeriod):
		return badRequestCode(err, ErrCodeInvalidPeriod)
	case errors.Is(err, settings.ErrInvalidSetting):
		return badRequestCode(err, ErrCodeInvalidSetting)
	case errors.Is(err, tasks.ErrSegmentNotFound):
		return notFoundCode(err, ErrCodeSegmentNotFound)
	case errors.Is(err, tasks.ErrNotFound):
		return notFoundCode(err, ErrCodeTaskNotFound)
	default:
		return storeFailure(err)
	}
}

func httpStatusFromError(err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return http.StatusInternalServerError
}

func errorCode(status int, err error) string {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.code != "" {
		return apiErr.code
	}
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal"
	default:
		return ""
	}
}

func errorNumericCode(status int, err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.errCode > 0 {
		return apiErr.errCode
	}
	return defaultErrorCodeByStatus(status)
}

func shouldWarnClientError(status int) bool {
	return status == http.StatusConflict
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(defaultJSONMaxBody))
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("request body must contain a single JSON value")
	}
	return nil
}

// decodeOptionalJSON decodes dst when the request carries a body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := decodeJSON(w, r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func classifyDecodeJSONError(err error) error {
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return badRequestCode(fmt.Errorf("invalid JSON payload"), ErrCodeInvalidJSON)
	}

	return badRequestCode(err, ErrCodeInvalidJSON)
}

func (s *Server) decodeJSONReq(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return false
	}
	return true
}

func (s *Server) decodeOptionalJSONReq(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeOptionalJSON(w, r, dst); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	err = classifyServiceError(err)
	s.writeErrorReq(w, r, httpStatusFromError(err), err)
}

func (s *Server) pathIDOrBadRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return "", false
	}
	return id, true
}

func (s *Server) segmentIDOrBadRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("invalid segment id"), ErrCodeInvalidID))
		return 0, false
	}
	return id, true
}

// dayOrBadRequest resolves the {day} path value; "today" maps to the
// current local day.
func (s *Server) dayOrBadRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	day := strings.TrimSpace(r.PathValue("day"))
	if day == "" || strings.EqualFold(day, "today") {
		return s.ledger.Today(), true
	}
	if _, err := models.ParseDayKey(day); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("invalid day %q: expected YYYY-MM-DD", day), ErrCodeInvalidDay))
		return "", false
	}
	return day, true
}

func requirePathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !validateID(id) {
		return "", badRequestCode(fmt.Errorf("invalid id"), ErrCodeInvalidID)
	}
	return id, nil
}

func validateID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func queryInt(r *http.Request, key string) (int, error) {
	return queryIntDefault(r, key, 0)
}

func queryIntDefault(r *http.Request, key string, def int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, badRequestCode(fmt.Errorf("invalid %s", key), ErrCodeInvalidQuery)
	}
	if parsed < 0 {
		return 0, badRequestCode(fmt.Errorf("%s must be >= 0", key), ErrCodeInvalidQuery)
	}
	return parsed, nil
}

func queryDay(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return "", nil
	}
	if _, err := models.ParseDayKey(value); err != nil {
		return "", badRequestCode(fmt.Errorf("invalid %s: expected YYYY-MM-DD", key), ErrCodeInvalidDay)
	}
	return value, nil
}

func parseFlexibleTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation(models.DayKeyLayout, value, time.Local)
	if err == nil {
		return t, nil
	}
	return time.Time{}, badRequestCode(fmt.Errorf("expected RFC3339 or YYYY-MM-DD format"), ErrCodeInvalidTimeRange)
}
