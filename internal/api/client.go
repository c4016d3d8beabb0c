package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"tasktool/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "TASKTOOL_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the tasktool API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) CreateTask(ctx context.Context, req TaskCreateRequest) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, "/v1/tasks", nil, req, &resp)
	return resp, err
}

func (c *Client) QuickAdd(ctx context.Context, input string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, "/v1/tasks/quick", nil, QuickAddRequest{Input: input}, &resp)
	return resp, err
}

func (c *Client) ListTasks(ctx context.Context, query url.Values) ([]models.Task, error) {
	var resp []models.Task
	err := c.do(ctx, http.MethodGet, "/v1/tasks", query, nil, &resp)
	return resp, err
}

func (c *Client) GetTask(ctx context.Context, id string) (TaskDetailResponse, error) {
	var resp TaskDetailResponse
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req TaskUpdateRequest) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPatch, taskPath(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

// TaskAction runs a lifecycle action: start, pause, stop, done or reopen.
func (c *Client) TaskAction(ctx context.Context, id, action string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/"+url.PathEscape(action), nil, nil, &resp)
	return resp, err
}

func (c *Client) AddTicketMinutes(ctx context.Context, id string, delta int) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/ticket-minutes", nil, TicketMinutesRequest{Delta: delta}, &resp)
	return resp, err
}

func (c *Client) Elapsed(ctx context.Context, id string) (ElapsedResponse, error) {
	var resp ElapsedResponse
	err := c.do(ctx, http.MethodGet, taskPath(id)+"/elapsed", nil, nil, &resp)
	return resp, err
}

func (c *Client) SyncTask(ctx context.Context, id string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/sync", nil, nil, &resp)
	return resp, err
}

func (c *Client) UnsyncTask(ctx context.Context, id string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodDelete, taskPath(id)+"/sync", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListSegments(ctx context.Context, taskID string) ([]models.Segment, error) {
	var resp []models.Segment
	err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/segments", nil, nil, &resp)
	return resp, err
}

func (c *Client) AddSegment(ctx context.Context, taskID string, req SegmentCreateRequest) (models.Segment, error) {
	var resp models.Segment
	err := c.do(ctx, http.MethodPost, taskPath(taskID)+"/segments", nil, req, &resp)
	return resp, err
}

func (c *Client) SyncAllSegments(ctx context.Context, taskID string) (SyncAllResponse, error) {
	var resp SyncAllResponse
	err := c.do(ctx, http.MethodPost, taskPath(taskID)+"/segments/sync", nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateSegment(ctx context.Context, id int64, req SegmentUpdateRequest) (models.Segment, error) {
	var resp models.Segment
	err := c.do(ctx, http.MethodPatch, segmentPath(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteSegment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, segmentPath(id), nil, nil, nil)
}

func (c *Client) SyncSegment(ctx context.Context, id int64) (models.Segment, error) {
	var resp models.Segment
	err := c.do(ctx, http.MethodPost, segmentPath(id)+"/sync", nil, nil, &resp)
	return resp, err
}

func (c *Client) UnsyncSegment(ctx context.Context, id int64) (models.Segment, error) {
	var resp models.Segment
	err := c.do(ctx, http.MethodDelete, segmentPath(id)+"/sync", nil, nil, &resp)
	return resp, err
}

func (c *Client) CalendarStatus(ctx context.Context) (CalendarStatusResponse, error) {
	var resp CalendarStatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/calendar", nil, nil, &resp)
	return resp, err
}

func (c *Client) TestCalendar(ctx context.Context) (CalendarStatusResponse, error) {
	var resp CalendarStatusResponse
	err := c.do(ctx, http.MethodPost, "/v1/calendar/test", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetDay(ctx context.Context, day string) (DayResponse, error) {
	var resp DayResponse
	err := c.do(ctx, http.MethodGet, dayPath(day), nil, nil, &resp)
	return resp, err
}

func (c *Client) ListDays(ctx context.Context, from, to string) ([]DayResponse, error) {
	var resp []DayResponse
	query := url.Values{}
	query.Set("from", from)
	query.Set("to", to)
	err := c.do(ctx, http.MethodGet, "/v1/days", query, nil, &resp)
	return resp, err
}

func (c *Client) Come(ctx context.Context, day string, at *time.Time) (models.WorkDay, error) {
	var resp models.WorkDay
	err := c.do(ctx, http.MethodPost, dayPath(day)+"/come", nil, StampRequest{At: at}, &resp)
	return resp, err
}

func (c *Client) Go(ctx context.Context, day string, at *time.Time) (models.WorkDay, error) {
	var resp models.WorkDay
	err := c.do(ctx, http.MethodPost, dayPath(day)+"/go", nil, StampRequest{At: at}, &resp)
	return resp, err
}

func (c *Client) StartBreak(ctx context.Context, day, note string) (models.Break, error) {
	var resp models.Break
	err := c.do(ctx, http.MethodPost, dayPath(day)+"/breaks", nil, BreakStartRequest{Note: note}, &resp)
	return resp, err
}

func (c *Client) EndBreak(ctx context.Context, day string) (BreakEndResponse, error) {
	var resp BreakEndResponse
	err := c.do(ctx, http.MethodPost, dayPath(day)+"/breaks/end", nil, nil, &resp)
	return resp, err
}

func (c *Client) SaveDay(ctx context.Context, day string, req ManualDayRequest) (DayResponse, error) {
	var resp DayResponse
	err := c.do(ctx, http.MethodPut, dayPath(day), nil, req, &resp)
	return resp, err
}

func (c *Client) SetDayMarkers(ctx context.Context, day string, req DayMarkersRequest) (models.WorkDay, error) {
	var resp models.WorkDay
	err := c.do(ctx, http.MethodPut, dayPath(day)+"/markers", nil, req, &resp)
	return resp, err
}

func (c *Client) TodayReport(ctx context.Context) (TodayResponse, error) {
	var resp TodayResponse
	err := c.do(ctx, http.MethodGet, "/v1/reports/today", nil, nil, &resp)
	return resp, err
}

func (c *Client) DayReport(ctx context.Context, day string) (DaySummaryResponse, error) {
	var resp DaySummaryResponse
	if day == "" {
		day = "today"
	}
	err := c.do(ctx, http.MethodGet, "/v1/reports/days/"+url.PathEscape(day), nil, nil, &resp)
	return resp, err
}

func (c *Client) WeekReport(ctx context.Context, day string) (WeekResponse, error) {
	var resp WeekResponse
	query := url.Values{}
	if day != "" {
		query.Set("day", day)
	}
	err := c.do(ctx, http.MethodGet, "/v1/reports/week", query, nil, &resp)
	return resp, err
}

func (c *Client) MonthReport(ctx context.Context, month string, top int) (MonthResponse, error) {
	var resp MonthResponse
	query := url.Values{}
	if top > 0 {
		query.Set("top", strconv.Itoa(top))
	}
	err := c.do(ctx, http.MethodGet, "/v1/reports/months/"+url.PathEscape(month), query, nil, &resp)
	return resp, err
}

func (c *Client) GetSettings(ctx context.Context) (SettingsResponse, error) {
	var resp SettingsResponse
	err := c.do(ctx, http.MethodGet, "/v1/settings", nil, nil, &resp)
	return resp, err
}

func (c *Client) SetSetting(ctx context.Context, key, value string) (SettingsResponse, error) {
	var resp SettingsResponse
	err := c.do(ctx, http.MethodPut, "/v1/settings/"+url.PathEscape(key), nil, SettingUpdateRequest{Value: value}, &resp)
	return resp, err
}

func (c *Client) Reminders(ctx context.Context) ([]ReminderResponse, error) {
	var resp []ReminderResponse
	err := c.do(ctx, http.MethodGet, "/v1/reminders", nil, nil, &resp)
	return resp, err
}

func (c *Client) SnoozeReminder(ctx context.Context, taskID string) (ReminderActionResponse, error) {
	var resp ReminderActionResponse
	err := c.do(ctx, http.MethodPost, "/v1/reminders/"+url.PathEscape(taskID)+"/snooze", nil, nil, &resp)
	return resp, err
}

func (c *Client) DismissReminder(ctx context.Context, taskID string) (ReminderActionResponse, error) {
	var resp ReminderActionResponse
	err := c.do(ctx, http.MethodPost, "/v1/reminders/"+url.PathEscape(taskID)+"/dismiss", nil, nil, &resp)
	return resp, err
}

func taskPath(id string) string {
	return "/v1/tasks/" + url.PathEscape(id)
}

func segmentPath(id int64) string {
	return "/v1/segments/" + strconv.FormatInt(id, 10)
}

func dayPath(day string) string {
	if day == "" {
		day = "today"
	}
	return "/v1/days/" + url.PathEscape(day)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
