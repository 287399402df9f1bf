package model

import "time"

// AttendanceAudit is the persisted trail of one committed sheet.
type AttendanceAudit struct {
	ClassInstanceID int       `json:"class_instance_id"`
	Date            time.Time `json:"date"`
	OperatorID      int       `json:"operator_id"`
	OperatorRole    string    `json:"operator_role"`
	Resubmission    bool      `json:"resubmission"`
	Present         int       `json:"present"`
	Absent          int       `json:"absent"`
	Late            int       `json:"late"`
	CommittedAt     time.Time `json:"committed_at"`
}
