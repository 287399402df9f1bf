package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

type recordKey struct {
	studentID int
	date      time.Time
}

// MemoryAttendanceStore keeps attendance records in process memory. It enforces
// the same one-record-per-student-per-day rule as the database.
type MemoryAttendanceStore struct {
	mutex   sync.RWMutex
	records map[recordKey]model.AttendanceRecord
}

// NewMemoryAttendanceStore creates an empty MemoryAttendanceStore.
func NewMemoryAttendanceStore() *MemoryAttendanceStore {
	return &MemoryAttendanceStore{records: make(map[recordKey]model.AttendanceRecord)}
}

// ListByClassAndDate returns the records of one class on one day.
func (m *MemoryAttendanceStore) ListByClassAndDate(_ context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error) {
	day := model.Day(date)
	return m.filter(func(r model.AttendanceRecord) bool {
		return r.ClassInstanceID == classID && r.Date.Equal(day)
	}), nil
}

// ListByClassAndRange returns the records of one class between from and to inclusive.
func (m *MemoryAttendanceStore) ListByClassAndRange(_ context.Context, classID int, from, to time.Time) ([]model.AttendanceRecord, error) {
	from, to = model.Day(from), model.Day(to)
	return m.filter(func(r model.AttendanceRecord) bool {
		return r.ClassInstanceID == classID && !r.Date.Before(from) && !r.Date.After(to)
	}), nil
}

// ListByStudentAndRange returns one student's records between from and to inclusive.
func (m *MemoryAttendanceStore) ListByStudentAndRange(_ context.Context, studentID int, from, to time.Time) ([]model.AttendanceRecord, error) {
	from, to = model.Day(from), model.Day(to)
	return m.filter(func(r model.AttendanceRecord) bool {
		return r.StudentID == studentID && !r.Date.Before(from) && !r.Date.After(to)
	}), nil
}

// ReplaceDay swaps the class's records for the day under one lock. Nothing is
// changed when a record is invalid or collides with another class.
func (m *MemoryAttendanceStore) ReplaceDay(_ context.Context, classID int, date time.Time, records []model.AttendanceRecord) error {
	day := model.Day(date)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	incoming := make(map[recordKey]model.AttendanceRecord, len(records))
	for _, r := range records {
		if !r.Status.IsPersisted() {
			return fmt.Errorf("%w: status %q", ErrInvalidRecord, r.Status)
		}
		k := recordKey{studentID: r.StudentID, date: day}
		if _, dup := incoming[k]; dup {
			return fmt.Errorf("%w: student %d listed twice", ErrDuplicateRecord, r.StudentID)
		}
		if prev, ok := m.records[k]; ok && prev.ClassInstanceID != classID {
			return fmt.Errorf("%w: student %d in class %d", ErrDuplicateRecord, r.StudentID, prev.ClassInstanceID)
		}
		r.ClassInstanceID = classID
		r.Date = day
		incoming[k] = r
	}

	for k, r := range m.records {
		if r.ClassInstanceID == classID && k.date.Equal(day) {
			delete(m.records, k)
		}
	}
	for k, r := range incoming {
		m.records[k] = r
	}
	return nil
}

// Len returns the number of stored records.
func (m *MemoryAttendanceStore) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.records)
}

func (m *MemoryAttendanceStore) filter(keep func(model.AttendanceRecord) bool) []model.AttendanceRecord {
	m.mutex.RLock()
	out := make([]model.AttendanceRecord, 0)
	for _, r := range m.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	m.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

// MemoryRoster is an in-process class and student directory.
type MemoryRoster struct {
	mutex    sync.RWMutex
	classes  map[int]model.ClassInstance
	students map[int][]model.Student
}

// NewMemoryRoster creates an empty MemoryRoster.
func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{
		classes:  make(map[int]model.ClassInstance),
		students: make(map[int][]model.Student),
	}
}

// AddClass registers a class with its students.
func (m *MemoryRoster) AddClass(c model.ClassInstance, students ...model.Student) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.classes[c.ID] = c
	for i := range students {
		students[i].ClassID = c.ID
	}
	m.students[c.ID] = append(m.students[c.ID], students...)
}

// ListStudents returns the students of a class ordered by name.
func (m *MemoryRoster) ListStudents(_ context.Context, classID int) ([]model.Student, error) {
	m.mutex.RLock()
	out := append([]model.Student(nil), m.students[classID]...)
	m.mutex.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetByID returns a class or ErrClassNotFound.
func (m *MemoryRoster) GetByID(_ context.Context, id int) (*model.ClassInstance, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	c, ok := m.classes[id]
	if !ok {
		return nil, ErrClassNotFound
	}
	return &c, nil
}

// List returns every class ordered by grade and section.
func (m *MemoryRoster) List(_ context.Context, schoolCode string) ([]model.ClassInstance, error) {
	m.mutex.RLock()
	out := make([]model.ClassInstance, 0, len(m.classes))
	for _, c := range m.classes {
		if schoolCode == "" || c.SchoolCode == schoolCode {
			out = append(out, c)
		}
	}
	m.mutex.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Grade != out[j].Grade {
			return out[i].Grade < out[j].Grade
		}
		return out[i].Section < out[j].Section
	})
	return out, nil
}

// GetStudent returns a student or ErrStudentNotFound.
func (m *MemoryRoster) GetStudent(_ context.Context, id int) (*model.Student, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, list := range m.students {
		for _, s := range list {
			if s.ID == id {
				return &s, nil
			}
		}
	}
	return nil, ErrStudentNotFound
}
