// Package register lays out a class's attendance as a students by days grid and
// renders it as an XLSX workbook.
package register

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/analytics"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

const sheetName = "Register"

// Register is the grid for one class. Dates holds only days on which at least
// one record exists.
type Register struct {
	Class model.ClassInstance
	From  time.Time
	To    time.Time
	Dates []time.Time
	Rows  []Row
}

// Row is one student's line. Marks is parallel to Register.Dates; an empty
// status means no record for that day.
type Row struct {
	Student model.Student
	Marks   []model.AttendanceStatus
	Counts  analytics.Counts
}

// Build arranges records into a register. Roster students come first in roster
// order; students with records who are no longer on the roster follow by ID.
func Build(class model.ClassInstance, students []model.Student, records []model.AttendanceRecord, from, to time.Time) Register {
	byDay := make(map[time.Time]bool)
	byStudent := make(map[int]map[time.Time]model.AttendanceStatus)
	for _, r := range records {
		if !r.Status.IsPersisted() || r.Date.IsZero() {
			continue
		}
		day := model.Day(r.Date)
		byDay[day] = true
		if byStudent[r.StudentID] == nil {
			byStudent[r.StudentID] = make(map[time.Time]model.AttendanceStatus)
		}
		byStudent[r.StudentID][day] = r.Status
	}

	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	seen := make(map[int]bool, len(students))
	reg := Register{Class: class, From: model.Day(from), To: model.Day(to), Dates: dates}
	for _, st := range students {
		seen[st.ID] = true
		reg.Rows = append(reg.Rows, buildRow(st, byStudent[st.ID], dates))
	}

	var former []int
	for id := range byStudent {
		if !seen[id] {
			former = append(former, id)
		}
	}
	sort.Ints(former)
	for _, id := range former {
		reg.Rows = append(reg.Rows, buildRow(model.Student{ID: id, ClassID: class.ID}, byStudent[id], dates))
	}
	return reg
}

func buildRow(st model.Student, marks map[time.Time]model.AttendanceStatus, dates []time.Time) Row {
	row := Row{Student: st, Marks: make([]model.AttendanceStatus, len(dates))}
	for i, d := range dates {
		s, ok := marks[d]
		if !ok {
			continue
		}
		row.Marks[i] = s
		switch s {
		case model.StatusPresent:
			row.Counts.Present++
		case model.StatusAbsent:
			row.Counts.Absent++
		case model.StatusLate:
			row.Counts.Late++
		}
		row.Counts.Total++
	}
	return row
}

// Code is the single-letter cell value for a status.
func Code(s model.AttendanceStatus) string {
	switch s {
	case model.StatusPresent:
		return "P"
	case model.StatusAbsent:
		return "A"
	case model.StatusLate:
		return "L"
	}
	return ""
}

// WriteXLSX renders reg as a workbook with one sheet. Columns are student name,
// one per date, then present, absent, late and rate.
func WriteXLSX(w io.Writer, reg Register) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	title := fmt.Sprintf("Class %s  %s to %s", reg.Class.Label(), reg.From.Format(model.DateLayout), reg.To.Format(model.DateLayout))
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return err
	}

	header := []any{"Student"}
	for _, d := range reg.Dates {
		header = append(header, d.Format("01-02"))
	}
	header = append(header, "Present", "Absent", "Late", "Rate %")
	if err := f.SetSheetRow(sheetName, "A3", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.CoordinatesToCellName(len(header), 3)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A3", lastCol, bold); err != nil {
		return err
	}

	for i, row := range reg.Rows {
		name := row.Student.Name
		if name == "" {
			name = fmt.Sprintf("#%d", row.Student.ID)
		}
		values := []any{name}
		for _, m := range row.Marks {
			values = append(values, Code(m))
		}
		values = append(values, row.Counts.Present, row.Counts.Absent, row.Counts.Late, row.Counts.Rate())

		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      3,
		TopLeftCell: "B4",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}

	return f.Write(w)
}
