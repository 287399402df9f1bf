package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// Period selects the bucket size of a rollup.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// ErrUnknownPeriod is returned by ParsePeriod for unsupported values.
var ErrUnknownPeriod = errors.New("unknown rollup period")

// ParsePeriod accepts daily, weekly or monthly. An empty string means daily.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return p, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownPeriod, raw)
	}
}

// Bucket aggregates the records of one day, ISO week or calendar month.
type Bucket struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Counts
	Rate int `json:"rate"`
}

// bucketOf returns the key and the first and last day of the bucket holding day.
func bucketOf(p Period, day time.Time) (string, time.Time, time.Time) {
	day = model.Day(day)
	switch p {
	case Weekly:
		year, week := day.ISOWeek()
		offset := (int(day.Weekday()) + 6) % 7 // days since Monday
		start := day.AddDate(0, 0, -offset)
		return fmt.Sprintf("%04d-W%02d", year, week), start, start.AddDate(0, 0, 6)
	case Monthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start, start.AddDate(0, 1, -1)
	default:
		return day.Format(model.DateLayout), day, day
	}
}

// Rollup groups records into buckets of the given period. A bucket exists only
// when at least one record falls in it; buckets are ordered by start date.
// An unknown period falls back to daily.
func Rollup(records []model.AttendanceRecord, p Period) []Bucket {
	byKey := make(map[string]*Bucket)
	for _, r := range records {
		if !usable(r) {
			continue
		}
		key, start, end := bucketOf(p, r.Date)
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key, Start: start, End: end}
			byKey[key] = b
		}
		b.Counts.add(r.Status)
	}

	buckets := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		b.Rate = b.Counts.Rate()
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}
