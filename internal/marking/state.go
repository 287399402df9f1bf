package marking

import "github.com/Smalik1203/Classbridge-V1-sub001/internal/model"

// Next is the toggle transition for a single student:
// unmarked → present → absent → unmarked. A late mark (only reachable from stored
// or imported data) toggles to present. Unknown values restart the cycle.
func Next(s model.AttendanceStatus) model.AttendanceStatus {
	switch s {
	case model.StatusUnmarked:
		return model.StatusPresent
	case model.StatusPresent:
		return model.StatusAbsent
	case model.StatusAbsent:
		return model.StatusUnmarked
	case model.StatusLate:
		return model.StatusPresent
	default:
		return model.StatusUnmarked
	}
}

// settable reports whether s can be assigned to a student explicitly.
func settable(s model.AttendanceStatus) bool {
	return s == model.StatusUnmarked || s.IsPersisted()
}

// Stage tracks how far a submission has progressed through confirmation.
type Stage string

const (
	StageEditing   Stage = "editing"
	StageSummary   Stage = "summary"
	StageResubmit  Stage = "resubmit"
	StageCommitted Stage = "committed"
)

// BannerKind classifies the operator-facing status banner.
type BannerKind string

const (
	BannerNone    BannerKind = ""
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is the transient alert shown above the sheet.
type Banner struct {
	Kind    BannerKind `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
}
