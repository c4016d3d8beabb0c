package tasks

import (
	"context"
	"time"

	"tasktool/internal/models"
	"tasktool/internal/notify"
)

// SegmentInput carries the fields of a new segment.
type SegmentInput struct {
	TaskID string
	Start  time.Time
	End    time.Time
	Note   string
}

// AddSegment stores a planned segment of a task. Incomplete ranges are
// accepted; they cannot be synced until ValidationHint is empty.
func (s *Service) AddSegment(ctx context.Context, input SegmentInput) (*models.Segment, error) {
	task, err := s.Get(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	seg := &models.Segment{
		TaskID: task.ID,
		Start:  localValue(input.Start),
		End:    localValue(input.End),
		Note:   input.Note,
	}
	if err := s.store.CreateSegment(ctx, seg); err != nil {
		return nil, err
	}
	s.publish(notify.SegmentsChanged, task.ID)
	return seg, nil
}

// Segment returns a segment or ErrNotFound.
func (s *Service) Segment(ctx context.Context, id int64) (*models.Segment, error) {
	seg, err := s.store.GetSegment(ctx, id)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, segmentNotFound(id)
	}
	return seg, nil
}

// SegmentPatch carries optional segment changes. Clock fields take "HH:MM"
// text on the segment date, Date moves the segment keeping its times.
type SegmentPatch struct {
	Start      *time.Time
	End        *time.Time
	Date       *time.Time
	StartClock *string
	EndClock   *string
	Note       *string
}

// UpdateSegment applies patch and recomputes the planned minutes.
func (s *Service) UpdateSegment(ctx context.Context, id int64, patch SegmentPatch) (*models.Segment, error) {
	seg, err := s.Segment(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Start != nil {
		seg.Start = localValue(*patch.Start)
	}
	if patch.End != nil {
		seg.End = localValue(*patch.End)
	}
	if patch.Date != nil {
		seg.MoveToDate(patch.Date.In(time.Local))
	}
	if patch.StartClock != nil {
		if err := seg.SetStartClock(*patch.StartClock); err != nil {
			return nil, invalid("%v", err)
		}
	}
	if patch.EndClock != nil {
		if err := seg.SetEndClock(*patch.EndClock); err != nil {
			return nil, invalid("%v", err)
		}
	}
	if patch.Note != nil {
		seg.Note = *patch.Note
	}
	if err := s.store.UpdateSegment(ctx, seg); err != nil {
		return nil, err
	}
	s.publish(notify.SegmentsChanged, seg.TaskID)
	return seg, nil
}

// DeleteSegment removes the calendar block of the segment and then the
// segment. A failed calendar delete keeps the segment.
func (s *Service) DeleteSegment(ctx context.Context, id int64) error {
	seg, err := s.Segment(ctx, id)
	if err != nil {
		return err
	}
	if seg.CalendarEntryID != "" {
		if err := s.DeleteSegmentBlock(ctx, seg); err != nil {
			return err
		}
	}
	if err := s.store.DeleteSegment(ctx, seg.ID); err != nil {
		return err
	}
	s.publish(notify.SegmentsChanged, seg.TaskID)
	return nil
}

// Segments lists the segments of a task ordered by start.
func (s *Service) Segments(ctx context.Context, taskID string) ([]models.Segment, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.store.ListSegments(ctx, task.ID)
}

func localValue(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(time.Local)
}
