// Package attendancecsv reads and writes a student's attendance history as CSV
// with a Date,Status header.
package attendancecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// Header is the first line of every export.
var Header = []string{"Date", "Status"}

// ErrBadHeader is returned by Import when the first row is not Header.
var ErrBadHeader = errors.New("attendancecsv: unexpected header")

// Row is one line of an export. Status is kept verbatim so unknown values
// survive a round trip.
type Row struct {
	Date   string
	Status string
}

// Export writes one row per record, oldest first. Records sharing a date keep
// their input order.
func Export(w io.Writer, records []model.AttendanceRecord) error {
	sorted := make([]model.AttendanceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range sorted {
		if err := cw.Write([]string{r.DateKey(), string(r.Status)}); err != nil {
			return fmt.Errorf("write row %s: %w", r.DateKey(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Import parses an export produced by Export.
func Import(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrBadHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range Header {
		if !strings.EqualFold(strings.TrimPrefix(head[i], "\ufeff"), h) {
			return nil, ErrBadHeader
		}
	}

	rows := make([]Row, 0)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, Row{Date: rec[0], Status: rec[1]})
	}
	return rows, nil
}

// Records converts rows back into attendance records for one student. Rows with
// an unparseable date or status are returned as errors keyed by line.
func Records(rows []Row, studentID int) ([]model.AttendanceRecord, error) {
	out := make([]model.AttendanceRecord, 0, len(rows))
	var errs []error
	for i, row := range rows {
		day, err := model.ParseDay(row.Date)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", i+2, err))
			continue
		}
		status, err := model.ParseStatus(row.Status)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", i+2, err))
			continue
		}
		out = append(out, model.AttendanceRecord{StudentID: studentID, Date: day, Status: status})
	}
	return out, errors.Join(errs...)
}
