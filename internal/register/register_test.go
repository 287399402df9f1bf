package register

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func rec(student, d int, s model.AttendanceStatus) model.AttendanceRecord {
	return model.AttendanceRecord{StudentID: student, ClassInstanceID: 1, Date: day(d), Status: s}
}

func fixture() Register {
	class := model.ClassInstance{ID: 1, Grade: 7, Section: "B"}
	students := []model.Student{{ID: 2, Name: "Bea", ClassID: 1}, {ID: 1, Name: "Ada", ClassID: 1}}
	records := []model.AttendanceRecord{
		rec(1, 10, model.StatusPresent),
		rec(2, 10, model.StatusAbsent),
		rec(1, 8, model.StatusLate),
		rec(9, 8, model.StatusPresent), // no longer on the roster
		rec(2, 9, "excused"),
	}
	return Build(class, students, records, day(1), day(31))
}

func TestBuild(t *testing.T) {
	reg := fixture()

	if len(reg.Dates) != 2 || !reg.Dates[0].Equal(day(8)) || !reg.Dates[1].Equal(day(10)) {
		t.Fatalf("Dates = %v, want Jan 8 and Jan 10 only", reg.Dates)
	}
	if len(reg.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(reg.Rows))
	}

	wantOrder := []int{2, 1, 9}
	for i, id := range wantOrder {
		if reg.Rows[i].Student.ID != id {
			t.Errorf("row %d student = %d, want %d", i, reg.Rows[i].Student.ID, id)
		}
	}

	bea := reg.Rows[0]
	if bea.Marks[0] != "" || bea.Marks[1] != model.StatusAbsent {
		t.Errorf("Bea marks = %v", bea.Marks)
	}
	if bea.Counts.Total != 1 || bea.Counts.Rate() != 0 {
		t.Errorf("Bea counts = %+v", bea.Counts)
	}
	ada := reg.Rows[1]
	if ada.Counts.Total != 2 || ada.Counts.Rate() != 100 {
		t.Errorf("Ada counts = %+v", ada.Counts)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, fixture()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want title, blank, header and 3 students", len(rows))
	}
	if rows[0][0] != "Class 7-B  2024-01-01 to 2024-01-31" {
		t.Errorf("title = %q", rows[0][0])
	}
	wantHeader := []string{"Student", "01-08", "01-10", "Present", "Absent", "Late", "Rate %"}
	for i, h := range wantHeader {
		if rows[2][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[2][i], h)
		}
	}
	wantAda := []string{"Ada", "L", "P", "1", "0", "1", "100"}
	for i, v := range wantAda {
		if rows[4][i] != v {
			t.Errorf("Ada[%d] = %q, want %q", i, rows[4][i], v)
		}
	}
	if rows[5][0] != "#9" {
		t.Errorf("former student label = %q", rows[5][0])
	}
}

func TestCode(t *testing.T) {
	tests := map[model.AttendanceStatus]string{
		model.StatusPresent:  "P",
		model.StatusAbsent:   "A",
		model.StatusLate:     "L",
		model.StatusUnmarked: "",
		"":                   "",
	}
	for s, want := range tests {
		if got := Code(s); got != want {
			t.Errorf("Code(%q) = %q, want %q", s, got, want)
		}
	}
}
