// Package timeline expands aggregated attendance into a continuous run of
// calendar days for charts and heatmaps. Days without records are reported
// with the no-data status so a renderer never has to guess about gaps.
package timeline

import (
	"time"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/analytics"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// MaxDays bounds the length of a filled range.
const MaxDays = 366

// Day is one calendar day of a filled range.
type Day struct {
	Date   string                 `json:"date"`
	Status model.AttendanceStatus `json:"status,omitempty"`
	analytics.Counts
	Rate *int `json:"rate,omitempty"`
}

// HasData reports whether any record fell on the day.
func (d Day) HasData() bool {
	return d.Status != model.StatusNoData
}

// Fill walks every day from..to inclusive and places the daily bucket for that
// day, or a no-data day when there is none. Buckets of other periods are
// ignored. An inverted range yields nothing and ranges are clipped to MaxDays.
func Fill(buckets []analytics.Bucket, from, to time.Time) []Day {
	byKey := make(map[string]analytics.Bucket, len(buckets))
	for _, b := range buckets {
		byKey[b.Key] = b
	}
	return walk(from, to, func(key string) Day {
		b, ok := byKey[key]
		if !ok {
			return Day{Date: key, Status: model.StatusNoData}
		}
		rate := b.Rate
		return Day{Date: key, Counts: b.Counts, Rate: &rate}
	})
}

// FillStudent is Fill for a single student's records: each day carries the
// recorded status. When several records share a day the last one wins.
func FillStudent(records []model.AttendanceRecord, from, to time.Time) []Day {
	byKey := make(map[string]model.AttendanceStatus, len(records))
	for _, r := range records {
		if r.Status.IsPersisted() && !r.Date.IsZero() {
			byKey[model.Day(r.Date).Format(model.DateLayout)] = r.Status
		}
	}
	return walk(from, to, func(key string) Day {
		s, ok := byKey[key]
		if !ok {
			return Day{Date: key, Status: model.StatusNoData}
		}
		return Day{Date: key, Status: s}
	})
}

func walk(from, to time.Time, at func(key string) Day) []Day {
	from, to = model.Day(from), model.Day(to)
	if to.Before(from) {
		return nil
	}
	days := make([]Day, 0)
	for d := from; !d.After(to) && len(days) < MaxDays; d = d.AddDate(0, 0, 1) {
		days = append(days, at(d.Format(model.DateLayout)))
	}
	return days
}
