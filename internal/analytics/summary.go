package analytics

import (
	"sort"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// Summary bundles every headline figure for one record set.
type Summary struct {
	Counts
	Rate          int           `json:"rate"`
	Distribution  []StatusShare `json:"distribution"`
	CurrentStreak Streak        `json:"current_streak"`
	BestStreak    Streak        `json:"best_streak"`
	Performance   Performance   `json:"performance"`
	Severity      string        `json:"severity"`
	Skipped       int           `json:"skipped"`
}

// Summarize computes the summary of records.
func Summarize(records []model.AttendanceRecord) Summary {
	sorted := chronological(records)
	var c Counts
	for _, r := range sorted {
		c.add(r.Status)
	}
	rate := c.Rate()
	perf := Classify(rate)
	return Summary{
		Counts:        c,
		Rate:          rate,
		Distribution:  distributionOf(c),
		CurrentStreak: currentStreak(sorted),
		BestStreak:    bestStreak(sorted),
		Performance:   perf,
		Severity:      perf.Severity(),
		Skipped:       len(records) - len(sorted),
	}
}

// StudentSummary is the summary of one student's records.
type StudentSummary struct {
	StudentID int `json:"student_id"`
	Summary
}

// ClassSummary is the summary of one class's records.
type ClassSummary struct {
	ClassInstanceID int `json:"class_instance_id"`
	Summary
}

func groupBy(records []model.AttendanceRecord, key func(model.AttendanceRecord) int) (map[int][]model.AttendanceRecord, []int) {
	groups := make(map[int][]model.AttendanceRecord)
	for _, r := range records {
		k := key(r)
		groups[k] = append(groups[k], r)
	}
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return groups, keys
}

// ByStudent summarizes each student separately, ordered by student ID.
func ByStudent(records []model.AttendanceRecord) []StudentSummary {
	groups, ids := groupBy(records, func(r model.AttendanceRecord) int { return r.StudentID })
	out := make([]StudentSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, StudentSummary{StudentID: id, Summary: Summarize(groups[id])})
	}
	return out
}

// ByClass summarizes each class separately, ordered by class ID.
func ByClass(records []model.AttendanceRecord) []ClassSummary {
	groups, ids := groupBy(records, func(r model.AttendanceRecord) int { return r.ClassInstanceID })
	out := make([]ClassSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, ClassSummary{ClassInstanceID: id, Summary: Summarize(groups[id])})
	}
	return out
}

// AtRisk returns the students whose rate is below threshold, lowest rate first.
// Students without any usable record are not included.
func AtRisk(students []StudentSummary, threshold int) []StudentSummary {
	out := make([]StudentSummary, 0)
	for _, s := range students {
		if s.Total > 0 && s.Rate < threshold {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate < out[j].Rate
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}
