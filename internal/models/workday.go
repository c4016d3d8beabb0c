package models

import "time"

// WorkDay is the attendance record of one calendar day.
type WorkDay struct {
	Day     string     `json:"day"`
	Come    *time.Time `json:"come,omitempty"`
	Go      *time.Time `json:"go,omitempty"`
	DayType DayType    `json:"day_type"`
	IsBr    bool       `json:"is_br"`
	IsHo    bool       `json:"is_ho"`
}

// DefaultWorkDay returns the record used for days without a stored row.
func DefaultWorkDay(day string) WorkDay {
	return WorkDay{Day: day, DayType: DayNormal}
}

// Break is a pause within a work day. A nil End marks an open break.
type Break struct {
	ID    int64      `json:"id"`
	Day   string     `json:"day"`
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
	Note  string     `json:"note,omitempty"`
}
