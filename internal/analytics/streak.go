package analytics

import (
	"sort"
	"time"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// Streak is a run of consecutive attended records in chronological order.
type Streak struct {
	Length int        `json:"length"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

// chronological returns the usable records sorted by date. Records sharing a date
// keep their input order.
func chronological(records []model.AttendanceRecord) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if usable(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func span(sorted []model.AttendanceRecord, start, end int) Streak {
	if end <= start {
		return Streak{}
	}
	from, to := sorted[start].Date, sorted[end-1].Date
	return Streak{Length: end - start, From: &from, To: &to}
}

// CurrentStreak counts the attended records at the end of the chronological
// sequence, stopping at the most recent absence.
func CurrentStreak(records []model.AttendanceRecord) Streak {
	return currentStreak(chronological(records))
}

func currentStreak(sorted []model.AttendanceRecord) Streak {
	start := len(sorted)
	for start > 0 && sorted[start-1].Status.Attended() {
		start--
	}
	return span(sorted, start, len(sorted))
}

// BestStreak is the longest run of attended records. On ties the earliest run wins.
func BestStreak(records []model.AttendanceRecord) Streak {
	return bestStreak(chronological(records))
}

func bestStreak(sorted []model.AttendanceRecord) Streak {
	bestStart, bestLen := 0, 0
	runStart := -1
	for i, r := range sorted {
		if !r.Status.Attended() {
			runStart = -1
			continue
		}
		if runStart < 0 {
			runStart = i
		}
		if n := i - runStart + 1; n > bestLen {
			bestStart, bestLen = runStart, n
		}
	}
	return span(sorted, bestStart, bestStart+bestLen)
}
