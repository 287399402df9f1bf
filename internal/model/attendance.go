package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-day format used on the wire, in CSV and in query params.
const DateLayout = "2006-01-02"

// AttendanceStatus is the decision recorded for one student on one day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"

	// StatusUnmarked means no decision has been made yet in a marking session.
	// It is never persisted.
	StatusUnmarked AttendanceStatus = "unmarked"

	// StatusNoData marks a calendar day without any record when a date range is
	// rendered continuously. It is never persisted.
	StatusNoData AttendanceStatus = "no-data"
)

// PersistedStatuses lists the values allowed in storage, in display order.
var PersistedStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusLate}

// IsPersisted reports whether s may be stored in an AttendanceRecord.
func (s AttendanceStatus) IsPersisted() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Attended reports whether s counts towards the attendance rate.
func (s AttendanceStatus) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

// ParseStatus parses a persisted status, case-insensitively.
func ParseStatus(raw string) (AttendanceStatus, error) {
	s := AttendanceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsPersisted() {
		return "", fmt.Errorf("unknown attendance status %q", raw)
	}
	return s, nil
}

// AttendanceRecord is one persisted decision. (StudentID, Date) is the natural key;
// ClassInstanceID is denormalized for querying by class.
type AttendanceRecord struct {
	ID              uuid.UUID        `json:"id"`
	StudentID       int              `json:"student_id"`
	ClassInstanceID int              `json:"class_instance_id"`
	Date            time.Time        `json:"date"`
	Status          AttendanceStatus `json:"status"`
	MarkedBy        int              `json:"marked_by"`
	MarkedByRole    string           `json:"marked_by_role"`
	SchoolCode      string           `json:"school_code"`
}

// DateKey returns the record's date formatted with DateLayout.
func (r AttendanceRecord) DateKey() string {
	return r.Date.Format(DateLayout)
}

// Day truncates t to its calendar day in UTC. Records and session keys always use
// this normalized form so equality on dates is plain time equality.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a normalized day.
func ParseDay(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// SubmitAttendanceRequest is the payload for a one-shot sheet submission.
// Statuses maps student ID to a persisted status; every enrolled student must be present.
type SubmitAttendanceRequest struct {
	Statuses        map[int]AttendanceStatus `json:"statuses" binding:"required,dive,keys,min=1,endkeys,attendance_status"`
	Confirm         bool                     `json:"confirm"`
	ConfirmResubmit bool                     `json:"confirm_resubmit"`
}

// SheetQuery selects the sheet of one class on one day.
type SheetQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// RangeQuery selects a date range and rollup period for analytics and exports.
// Missing bounds are filled in by the service.
type RangeQuery struct {
	From   string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Period string `form:"period" binding:"omitempty,oneof=daily weekly monthly"`
}
