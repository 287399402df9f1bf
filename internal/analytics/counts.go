// Package analytics derives rates, streaks and rollups from attendance records.
// Every function is pure: inputs are never modified and no I/O happens here.
// Records with an unknown status or a zero date are left out of every figure.
package analytics

import "github.com/Smalik1203/Classbridge-V1-sub001/internal/model"

// Counts is the per-status tally of a record set.
type Counts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Total   int `json:"total"`
}

// Attended is present plus late.
func (c Counts) Attended() int {
	return c.Present + c.Late
}

// Rate is round(100 * attended / total), or 0 for an empty tally.
func (c Counts) Rate() int {
	if c.Total <= 0 {
		return 0
	}
	// Integer round-half-up.
	return (200*c.Attended() + c.Total) / (2 * c.Total)
}

func (c *Counts) add(s model.AttendanceStatus) {
	switch s {
	case model.StatusPresent:
		c.Present++
	case model.StatusAbsent:
		c.Absent++
	case model.StatusLate:
		c.Late++
	default:
		return
	}
	c.Total++
}

// usable reports whether a record can take part in aggregation.
func usable(r model.AttendanceRecord) bool {
	return r.Status.IsPersisted() && !r.Date.IsZero()
}

// Tally counts the usable records by status.
func Tally(records []model.AttendanceRecord) Counts {
	var c Counts
	for _, r := range records {
		if usable(r) {
			c.add(r.Status)
		}
	}
	return c
}

// Rate is shorthand for Tally(records).Rate().
func Rate(records []model.AttendanceRecord) int {
	return Tally(records).Rate()
}

// StatusShare is one slice of a proportion chart.
type StatusShare struct {
	Status  model.AttendanceStatus `json:"status"`
	Count   int                    `json:"count"`
	Percent int                    `json:"percent"`
}

// Distribution returns the non-zero status counts in present, absent, late order.
func Distribution(records []model.AttendanceRecord) []StatusShare {
	return distributionOf(Tally(records))
}

func distributionOf(c Counts) []StatusShare {
	shares := make([]StatusShare, 0, len(model.PersistedStatuses))
	for _, s := range model.PersistedStatuses {
		var n int
		switch s {
		case model.StatusPresent:
			n = c.Present
		case model.StatusAbsent:
			n = c.Absent
		case model.StatusLate:
			n = c.Late
		}
		if n == 0 {
			continue
		}
		shares = append(shares, StatusShare{
			Status:  s,
			Count:   n,
			Percent: (200*n + c.Total) / (2 * c.Total),
		})
	}
	return shares
}
