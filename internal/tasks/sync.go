package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tasktool/internal/calendar"
	"tasktool/internal/models"
	"tasktool/internal/notify"
)

// SyncTask mirrors the planned range of the task into the calendar and
// stores the returned entry id. On failure the stored id is kept.
func (s *Service) SyncTask(ctx context.Context, id string) (*models.Task, error) {
	s.setLastError("")
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entryID, err := s.calendar.UpsertBlock(ctx, task.CalendarEntryID, task.Title, taskBody(task), timeOrZero(task.StartLocal), timeOrZero(task.EndLocal))
	if err != nil {
		s.setLastError("Calendar sync failed: " + calendar.UserMessage(err))
		return task, err
	}
	if err := s.store.SetTaskEntryID(ctx, task.ID, entryID, s.now().UTC()); err != nil {
		return task, err
	}
	return s.changed(ctx, task.ID)
}

// DeleteTaskBlock removes the task-level block and clears its entry id.
func (s *Service) DeleteTaskBlock(ctx context.Context, id string) (*models.Task, error) {
	s.setLastError("")
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.CalendarEntryID == "" {
		return task, nil
	}
	if err := s.calendar.DeleteBlock(ctx, task.CalendarEntryID); err != nil {
		s.setLastError("Calendar delete failed: " + calendar.UserMessage(err))
		return task, err
	}
	if err := s.store.SetTaskEntryID(ctx, task.ID, "", s.now().UTC()); err != nil {
		return task, err
	}
	return s.changed(ctx, task.ID)
}

// SyncSegment mirrors one segment into the calendar.
func (s *Service) SyncSegment(ctx context.Context, id int64) (*models.Segment, error) {
	s.setLastError("")
	seg, err := s.Segment(ctx, id)
	if err != nil {
		return nil, err
	}
	task, err := s.Get(ctx, seg.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.syncSegment(ctx, task, seg); err != nil {
		return seg, err
	}
	s.publish(notify.SegmentsChanged, task.ID)
	return seg, nil
}

// SyncAllSegments syncs every segment of the task, continuing past
// failures. It returns the number of segments that failed.
func (s *Service) SyncAllSegments(ctx context.Context, taskID string) (int, error) {
	s.setLastError("")
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return 0, err
	}
	segments, err := s.store.ListSegments(ctx, task.ID)
	if err != nil {
		return 0, err
	}
	failed := 0
	for i := range segments {
		if err := s.syncSegment(ctx, task, &segments[i]); err != nil {
			failed++
			s.logger.Warn("segment sync failed", "task_id", task.ID, "segment_id", segments[i].ID, "error", err)
		}
	}
	if failed < len(segments) {
		s.publish(notify.SegmentsChanged, task.ID)
	}
	return failed, nil
}

// UnsyncSegment removes the calendar block of a segment and keeps the segment.
func (s *Service) UnsyncSegment(ctx context.Context, id int64) (*models.Segment, error) {
	s.setLastError("")
	seg, err := s.Segment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DeleteSegmentBlock(ctx, seg); err != nil {
		return seg, err
	}
	s.publish(notify.SegmentsChanged, seg.TaskID)
	return seg, nil
}

// DeleteSegmentBlock removes the block of seg and clears its entry id. A
// segment without an entry id succeeds without a calendar call.
func (s *Service) DeleteSegmentBlock(ctx context.Context, seg *models.Segment) error {
	if seg.CalendarEntryID == "" {
		return nil
	}
	if err := s.calendar.DeleteBlock(ctx, seg.CalendarEntryID); err != nil {
		s.setLastError(calendar.UserMessage(err))
		return err
	}
	if err := s.store.SetSegmentEntryID(ctx, seg.ID, ""); err != nil {
		return err
	}
	seg.CalendarEntryID = ""
	return nil
}

// TestConnection writes and removes a probe block.
func (s *Service) TestConnection(ctx context.Context) error {
	s.setLastError("")
	if err := s.calendar.TestConnection(ctx); err != nil {
		s.setLastError("Calendar connection test failed: " + calendar.UserMessage(err))
		return err
	}
	return nil
}

func (s *Service) syncSegment(ctx context.Context, task *models.Task, seg *models.Segment) error {
	entryID, err := s.calendar.UpsertBlock(ctx, seg.CalendarEntryID, task.Title, segmentBody(task, seg), seg.Start, seg.End)
	if err != nil {
		s.setLastError("Calendar sync failed: " + calendar.UserMessage(err))
		return err
	}
	if err := s.store.SetSegmentEntryID(ctx, seg.ID, entryID); err != nil {
		return err
	}
	seg.CalendarEntryID = entryID
	return nil
}

func taskBody(task *models.Task) string {
	return strings.Join([]string{
		task.Description,
		task.TicketURL,
		"TaskID: " + task.ID,
	}, "\n")
}

func segmentBody(task *models.Task, seg *models.Segment) string {
	return strings.Join([]string{
		task.Description,
		task.TicketURL,
		"TaskID: " + task.ID,
		fmt.Sprintf("SegmentID: %d", seg.ID),
		"Note: " + seg.Note,
	}, "\n")
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
