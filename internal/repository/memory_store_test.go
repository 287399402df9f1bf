package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

func day(s string) time.Time {
	t, _ := time.Parse(model.DateLayout, s)
	return t
}

func TestMemoryStoreReplaceDay(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAttendanceStore()
	d := day("2024-01-10")

	first := []model.AttendanceRecord{
		{StudentID: 1, Status: model.StatusPresent},
		{StudentID: 2, Status: model.StatusAbsent},
	}
	if err := store.ReplaceDay(ctx, 7, d, first); err != nil {
		t.Fatalf("ReplaceDay() error = %v", err)
	}
	if err := store.ReplaceDay(ctx, 7, d.AddDate(0, 0, 1), first); err != nil {
		t.Fatalf("ReplaceDay(next day) error = %v", err)
	}

	second := []model.AttendanceRecord{{StudentID: 2, Status: model.StatusLate}}
	if err := store.ReplaceDay(ctx, 7, d, second); err != nil {
		t.Fatalf("ReplaceDay() error = %v", err)
	}

	got, _ := store.ListByClassAndDate(ctx, 7, d)
	if len(got) != 1 || got[0].StudentID != 2 || got[0].Status != model.StatusLate {
		t.Errorf("ListByClassAndDate() = %+v, want only student 2 late", got)
	}
	if got[0].ClassInstanceID != 7 || !got[0].Date.Equal(d) {
		t.Errorf("record not stamped with class and day: %+v", got[0])
	}
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (other day untouched)", store.Len())
	}
}

func TestMemoryStoreEmptyReplaceClearsDay(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAttendanceStore()
	d := day("2024-01-10")
	_ = store.ReplaceDay(ctx, 7, d, []model.AttendanceRecord{{StudentID: 1, Status: model.StatusPresent}})

	if err := store.ReplaceDay(ctx, 7, d, nil); err != nil {
		t.Fatalf("ReplaceDay(nil) error = %v", err)
	}
	if got, _ := store.ListByClassAndDate(ctx, 7, d); len(got) != 0 {
		t.Errorf("day not cleared: %+v", got)
	}
}

func TestMemoryStoreRejectsConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAttendanceStore()
	d := day("2024-01-10")
	_ = store.ReplaceDay(ctx, 7, d, []model.AttendanceRecord{{StudentID: 1, Status: model.StatusPresent}})

	tests := []struct {
		name    string
		classID int
		records []model.AttendanceRecord
		want    error
	}{
		{"student recorded by another class", 8, []model.AttendanceRecord{{StudentID: 1, Status: model.StatusAbsent}}, ErrDuplicateRecord},
		{"student listed twice", 7, []model.AttendanceRecord{{StudentID: 2, Status: model.StatusAbsent}, {StudentID: 2, Status: model.StatusLate}}, ErrDuplicateRecord},
		{"pseudo status", 7, []model.AttendanceRecord{{StudentID: 2, Status: model.StatusUnmarked}}, ErrInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ReplaceDay(ctx, tt.classID, d, tt.records)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReplaceDay() error = %v, want %v", err, tt.want)
			}
			got, _ := store.ListByClassAndDate(ctx, 7, d)
			if len(got) != 1 || got[0].Status != model.StatusPresent {
				t.Errorf("failed replace changed stored data: %+v", got)
			}
		})
	}
}

func TestMemoryStoreRanges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAttendanceStore()
	for _, d := range []string{"2024-01-01", "2024-01-05", "2024-01-09"} {
		_ = store.ReplaceDay(ctx, 7, day(d), []model.AttendanceRecord{
			{StudentID: 1, Status: model.StatusPresent},
			{StudentID: 2, Status: model.StatusAbsent},
		})
	}

	byClass, _ := store.ListByClassAndRange(ctx, 7, day("2024-01-05"), day("2024-01-09"))
	if len(byClass) != 4 || byClass[0].DateKey() != "2024-01-05" || byClass[0].StudentID != 1 {
		t.Errorf("ListByClassAndRange() = %+v", byClass)
	}
	byStudent, _ := store.ListByStudentAndRange(ctx, 2, day("2024-01-01"), day("2024-01-05"))
	if len(byStudent) != 2 {
		t.Errorf("ListByStudentAndRange() = %+v", byStudent)
	}
}

func TestMemoryRoster(t *testing.T) {
	ctx := context.Background()
	roster := NewMemoryRoster()
	roster.AddClass(model.ClassInstance{ID: 2, Grade: 8, Section: "A", SchoolCode: "S1"})
	roster.AddClass(model.ClassInstance{ID: 1, Grade: 7, Section: "B", SchoolCode: "S1"},
		model.Student{ID: 11, Name: "Zara"},
		model.Student{ID: 10, Name: "Ade"},
	)
	roster.AddClass(model.ClassInstance{ID: 3, Grade: 7, Section: "A", SchoolCode: "S2"})

	students, _ := roster.ListStudents(ctx, 1)
	if len(students) != 2 || students[0].Name != "Ade" || students[0].ClassID != 1 {
		t.Errorf("ListStudents() = %+v", students)
	}

	classes, _ := roster.List(ctx, "S1")
	if len(classes) != 2 || classes[0].Label() != "7-B" {
		t.Errorf("List(S1) = %+v", classes)
	}
	if _, err := roster.GetByID(ctx, 99); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("GetByID(99) error = %v", err)
	}
	if s, err := roster.GetStudent(ctx, 11); err != nil || s.Name != "Zara" {
		t.Errorf("GetStudent(11) = %+v, %v", s, err)
	}
}
