package marking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

type sheetKey struct {
	classID int
	date    string
}

type fakeRoster struct {
	students map[int][]model.Student
	err      error
}

func (f *fakeRoster) ListStudents(_ context.Context, classID int) ([]model.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.students[classID], nil
}

type fakeStore struct {
	days         map[sheetKey][]model.AttendanceRecord
	listErr      error
	replaceErr   error
	replaceCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{days: make(map[sheetKey][]model.AttendanceRecord)}
}

func (f *fakeStore) ListByClassAndDate(_ context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	recs := f.days[sheetKey{classID, date.Format(model.DateLayout)}]
	out := make([]model.AttendanceRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (f *fakeStore) ReplaceDay(_ context.Context, classID int, date time.Time, records []model.AttendanceRecord) error {
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	cp := make([]model.AttendanceRecord, len(records))
	copy(cp, records)
	f.days[sheetKey{classID, date.Format(model.DateLayout)}] = cp
	return nil
}

var (
	classID   = 7
	jan10     = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	operator  = model.Operator{ID: 42, Role: "teacher", SchoolCode: "SCH-01"}
	threeKids = []model.Student{
		{ID: 1, Name: "Amina", ClassID: 7},
		{ID: 2, Name: "Bayo", ClassID: 7},
		{ID: 3, Name: "Chidi", ClassID: 7},
	}
)

func newTestSession(t *testing.T, roster *fakeRoster, store *fakeStore) *Session {
	t.Helper()
	return NewSession(roster, store, operator, zerolog.Nop())
}

func loadedSession(t *testing.T, store *fakeStore) *Session {
	t.Helper()
	s := newTestSession(t, &fakeRoster{students: map[int][]model.Student{classID: threeKids}}, store)
	if err := s.Load(context.Background(), classID, jan10); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestNextCycle(t *testing.T) {
	tests := []struct {
		from model.AttendanceStatus
		want model.AttendanceStatus
	}{
		{model.StatusUnmarked, model.StatusPresent},
		{model.StatusPresent, model.StatusAbsent},
		{model.StatusAbsent, model.StatusUnmarked},
		{model.StatusLate, model.StatusPresent},
		{model.AttendanceStatus("excused"), model.StatusUnmarked},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			if got := Next(tt.from); got != tt.want {
				t.Errorf("Next(%q) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}

	s := model.StatusUnmarked
	for i := 0; i < 3; i++ {
		s = Next(s)
	}
	if s != model.StatusUnmarked {
		t.Errorf("three toggles from unmarked = %q, want unmarked", s)
	}
}

func TestToggleThreeTimesReturnsToUnmarked(t *testing.T) {
	s := loadedSession(t, newFakeStore())

	want := []model.AttendanceStatus{model.StatusPresent, model.StatusAbsent, model.StatusUnmarked}
	for i, w := range want {
		got, err := s.Toggle(1)
		if err != nil {
			t.Fatalf("Toggle #%d error = %v", i+1, err)
		}
		if got != w {
			t.Errorf("Toggle #%d = %q, want %q", i+1, got, w)
		}
	}
	if _, err := s.Toggle(99); !errors.Is(err, ErrUnknownStudent) {
		t.Errorf("Toggle(unknown) error = %v, want ErrUnknownStudent", err)
	}
}

func TestLoadWithoutRecords(t *testing.T) {
	s := loadedSession(t, newFakeStore())

	if s.HasExistingAttendance() {
		t.Error("HasExistingAttendance = true, want false")
	}
	if got := s.UnmarkedCount(); got != 3 {
		t.Errorf("UnmarkedCount = %d, want 3", got)
	}
	if s.CanSubmit() {
		t.Error("CanSubmit = true with unmarked students")
	}
}

func TestLoadSeedsFromStoredRecords(t *testing.T) {
	store := newFakeStore()
	store.days[sheetKey{classID, "2024-01-10"}] = []model.AttendanceRecord{
		{StudentID: 1, ClassInstanceID: classID, Date: jan10, Status: model.StatusPresent},
		{StudentID: 2, ClassInstanceID: classID, Date: jan10, Status: model.StatusLate},
		{StudentID: 3, ClassInstanceID: classID, Date: jan10, Status: model.StatusAbsent},
	}
	s := loadedSession(t, store)

	if !s.HasExistingAttendance() {
		t.Error("HasExistingAttendance = false, want true")
	}
	want := map[int]model.AttendanceStatus{1: model.StatusPresent, 2: model.StatusLate, 3: model.StatusAbsent}
	for id, w := range want {
		if got, _ := s.Status(id); got != w {
			t.Errorf("Status(%d) = %q, want %q", id, got, w)
		}
	}
	if s.UnmarkedCount() != 0 {
		t.Errorf("UnmarkedCount = %d, want 0", s.UnmarkedCount())
	}
}

func TestLoadFailureLeavesEmptySheet(t *testing.T) {
	tests := []struct {
		name   string
		roster *fakeRoster
		store  *fakeStore
	}{
		{
			name:   "roster fails",
			roster: &fakeRoster{err: errors.New("roster down")},
			store:  newFakeStore(),
		},
		{
			name:   "records fail",
			roster: &fakeRoster{students: map[int][]model.Student{classID: threeKids}},
			store:  &fakeStore{days: map[sheetKey][]model.AttendanceRecord{}, listErr: errors.New("db down")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, tt.roster, tt.store)
			err := s.Load(context.Background(), classID, jan10)

			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Load() error = %v, want *LoadError", err)
			}
			if len(s.Entries()) != 0 {
				t.Errorf("Entries = %d, want 0", len(s.Entries()))
			}
			if s.Banner().Kind != BannerError {
				t.Errorf("Banner kind = %q, want error", s.Banner().Kind)
			}
			if _, err := s.Submit(); !errors.Is(err, ErrNotLoaded) {
				t.Errorf("Submit() after failed load error = %v, want ErrNotLoaded", err)
			}
			if tt.store.replaceCalls != 0 {
				t.Errorf("ReplaceDay called %d times", tt.store.replaceCalls)
			}
		})
	}
}

func TestSubmitBlockedWhileUnmarked(t *testing.T) {
	store := newFakeStore()
	s := loadedSession(t, store)

	if _, err := s.Toggle(1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Submit() error = %v, want ErrIncomplete", err)
	}
	if _, err := s.Confirm(context.Background()); !errors.Is(err, ErrNoPendingSubmit) {
		t.Errorf("Confirm() error = %v, want ErrNoPendingSubmit", err)
	}
	if store.replaceCalls != 0 {
		t.Errorf("ReplaceDay called %d times, want 0", store.replaceCalls)
	}
}

func TestCanSubmitMatchesUnmarkedCount(t *testing.T) {
	s := loadedSession(t, newFakeStore())

	steps := []func(){
		func() { _, _ = s.Toggle(1) },
		func() { _, _ = s.Toggle(2) },
		func() { _, _ = s.Toggle(3) },
		func() { _, _ = s.Toggle(2) },
		func() { _, _ = s.Toggle(2) },
		func() { _ = s.MarkAll(model.StatusPresent) },
		func() { _ = s.Reset() },
	}
	for i, step := range steps {
		step()
		if got, want := s.CanSubmit(), s.UnmarkedCount() == 0; got != want {
			t.Errorf("step %d: CanSubmit = %v, UnmarkedCount = %d", i, got, s.UnmarkedCount())
		}
	}
}

func TestMarkAllOverridesPriorState(t *testing.T) {
	s := loadedSession(t, newFakeStore())
	_, _ = s.Toggle(1)
	_, _ = s.Toggle(2)
	_, _ = s.Toggle(2)

	if err := s.MarkAll(model.StatusPresent); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkAll(model.StatusAbsent); err != nil {
		t.Fatal(err)
	}
	if s.UnmarkedCount() != 0 {
		t.Errorf("UnmarkedCount = %d, want 0", s.UnmarkedCount())
	}
	for _, e := range s.Entries() {
		if e.Status != model.StatusAbsent {
			t.Errorf("student %d = %q, want absent", e.Student.ID, e.Status)
		}
	}
	if err := s.MarkAll(model.StatusLate); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("MarkAll(late) error = %v, want ErrInvalidStatus", err)
	}
}

func TestResetClearsMarksAndBanner(t *testing.T) {
	store := newFakeStore()
	store.replaceErr = errors.New("boom")
	s := loadedSession(t, store)
	_ = s.MarkAll(model.StatusPresent)
	_, _ = s.Submit()
	_, _ = s.Confirm(context.Background())
	if s.Banner().Kind != BannerError {
		t.Fatalf("Banner kind = %q, want error", s.Banner().Kind)
	}

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.UnmarkedCount() != 3 {
		t.Errorf("UnmarkedCount = %d, want 3", s.UnmarkedCount())
	}
	if (s.Banner() != Banner{}) {
		t.Errorf("Banner = %+v, want empty", s.Banner())
	}
}

func TestFirstSubmissionCommitsAfterSummary(t *testing.T) {
	store := newFakeStore()
	s := loadedSession(t, store)

	_, _ = s.Toggle(1)
	_, _ = s.Toggle(2)
	_, _ = s.Toggle(3)
	_, _ = s.Toggle(3)

	conf, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if conf.Stage != StageSummary || conf.Present != 2 || conf.Absent != 1 || conf.Total != 3 {
		t.Errorf("Submit() = %+v, want summary 2/1/3", conf)
	}

	conf, err = s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if conf.Stage != StageCommitted {
		t.Errorf("Confirm() stage = %q, want committed", conf.Stage)
	}
	if !s.HasExistingAttendance() {
		t.Error("HasExistingAttendance = false after commit")
	}

	reloaded := loadedSession(t, store)
	if !reloaded.HasExistingAttendance() {
		t.Error("reload HasExistingAttendance = false")
	}
	recs := store.days[sheetKey{classID, "2024-01-10"}]
	if len(recs) != 3 {
		t.Fatalf("stored %d records, want 3", len(recs))
	}
	want := map[int]model.AttendanceStatus{1: model.StatusPresent, 2: model.StatusPresent, 3: model.StatusAbsent}
	for _, r := range recs {
		if r.Status != want[r.StudentID] {
			t.Errorf("student %d stored %q, want %q", r.StudentID, r.Status, want[r.StudentID])
		}
		if r.MarkedBy != operator.ID || r.MarkedByRole != operator.Role || r.SchoolCode != operator.SchoolCode {
			t.Errorf("record operator fields = %d/%s/%s", r.MarkedBy, r.MarkedByRole, r.SchoolCode)
		}
		if !r.Date.Equal(jan10) || r.ClassInstanceID != classID {
			t.Errorf("record key = %v/%d", r.Date, r.ClassInstanceID)
		}
	}
}

func TestResubmissionNeedsSecondConfirmation(t *testing.T) {
	store := newFakeStore()
	store.days[sheetKey{classID, "2024-01-10"}] = []model.AttendanceRecord{
		{StudentID: 1, Date: jan10, Status: model.StatusPresent},
		{StudentID: 2, Date: jan10, Status: model.StatusPresent},
		{StudentID: 3, Date: jan10, Status: model.StatusAbsent},
		{StudentID: 4, Date: jan10, Status: model.StatusAbsent},
	}
	s := loadedSession(t, store)

	if err := s.Set(3, model.StatusPresent); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(); err != nil {
		t.Fatal(err)
	}

	conf, err := s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("first Confirm() error = %v", err)
	}
	if conf.Stage != StageResubmit {
		t.Fatalf("first Confirm() stage = %q, want resubmit", conf.Stage)
	}
	if store.replaceCalls != 0 {
		t.Fatalf("ReplaceDay called before resubmit confirmation")
	}

	conf, err = s.Confirm(context.Background())
	if err != nil || conf.Stage != StageCommitted {
		t.Fatalf("second Confirm() = %+v, %v", conf, err)
	}
	recs := store.days[sheetKey{classID, "2024-01-10"}]
	if len(recs) != 3 {
		t.Fatalf("stored %d records, want 3 (full replace)", len(recs))
	}
	for _, r := range recs {
		if r.Status != model.StatusPresent {
			t.Errorf("student %d = %q, want present", r.StudentID, r.Status)
		}
	}
}

func TestEditCancelsPendingConfirmation(t *testing.T) {
	s := loadedSession(t, newFakeStore())
	_ = s.MarkAll(model.StatusPresent)
	if _, err := s.Submit(); err != nil {
		t.Fatal(err)
	}
	_, _ = s.Toggle(1)
	if s.Stage() != StageEditing {
		t.Errorf("Stage = %q, want editing", s.Stage())
	}
	if _, err := s.Confirm(context.Background()); !errors.Is(err, ErrNoPendingSubmit) {
		t.Errorf("Confirm() error = %v, want ErrNoPendingSubmit", err)
	}
}

func TestCommitFailurePreservesState(t *testing.T) {
	store := newFakeStore()
	store.replaceErr = errors.New("constraint violation")
	s := loadedSession(t, store)
	_ = s.MarkAll(model.StatusAbsent)
	_ = s.Set(2, model.StatusPresent)
	before := s.Entries()

	_, _ = s.Submit()
	_, err := s.Confirm(context.Background())

	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("Confirm() error = %v, want *CommitError", err)
	}
	if s.HasExistingAttendance() {
		t.Error("HasExistingAttendance changed on failed commit")
	}
	after := s.Entries()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("entry %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
	if s.Saved() {
		t.Error("Saved = true after failure")
	}

	store.replaceErr = nil
	if _, err := s.Submit(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatalf("retry Confirm() error = %v", err)
	}
	if store.replaceCalls != 2 {
		t.Errorf("ReplaceDay calls = %d, want 2", store.replaceCalls)
	}
}

func TestSavedIndicatorAutoClears(t *testing.T) {
	s := loadedSession(t, newFakeStore())
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.MarkAll(model.StatusPresent)
	_, _ = s.Submit()
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Saved() || s.Banner().Kind != BannerSuccess {
		t.Fatalf("Saved = %v, Banner = %+v right after commit", s.Saved(), s.Banner())
	}

	now = now.Add(SavedIndicatorTTL - time.Millisecond)
	if !s.Saved() {
		t.Error("Saved cleared before the delay elapsed")
	}
	now = now.Add(time.Millisecond)
	if s.Saved() {
		t.Error("Saved still showing after the delay")
	}
	if (s.Banner() != Banner{}) {
		t.Errorf("Banner = %+v after the delay, want empty", s.Banner())
	}
}

func TestSwitchingKeyDiscardsUnsavedMarks(t *testing.T) {
	store := newFakeStore()
	s := loadedSession(t, store)
	_ = s.MarkAll(model.StatusPresent)

	jan11 := jan10.AddDate(0, 0, 1)
	if err := s.Load(context.Background(), classID, jan11); err != nil {
		t.Fatal(err)
	}
	if s.UnmarkedCount() != 3 {
		t.Errorf("UnmarkedCount after switching date = %d, want 3", s.UnmarkedCount())
	}

	if err := s.Load(context.Background(), classID, jan10); err != nil {
		t.Fatal(err)
	}
	if s.UnmarkedCount() != 3 {
		t.Errorf("unsaved marks survived a reload: UnmarkedCount = %d", s.UnmarkedCount())
	}
	if store.replaceCalls != 0 {
		t.Errorf("ReplaceDay called %d times", store.replaceCalls)
	}
}

func TestEmptyClassCommitClearsDay(t *testing.T) {
	store := newFakeStore()
	store.days[sheetKey{classID, "2024-01-10"}] = []model.AttendanceRecord{
		{StudentID: 9, Date: jan10, Status: model.StatusPresent},
	}
	s := newTestSession(t, &fakeRoster{students: map[int][]model.Student{}}, store)
	if err := s.Load(context.Background(), classID, jan10); err != nil {
		t.Fatal(err)
	}
	if s.UnmarkedCount() != 0 || !s.CanSubmit() {
		t.Fatalf("empty class: UnmarkedCount = %d, CanSubmit = %v", s.UnmarkedCount(), s.CanSubmit())
	}

	if _, err := s.Submit(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(store.days[sheetKey{classID, "2024-01-10"}]); got != 0 {
		t.Errorf("stored %d records, want 0", got)
	}
}

func TestLateRoundTripsThroughCommit(t *testing.T) {
	store := newFakeStore()
	store.days[sheetKey{classID, "2024-01-10"}] = []model.AttendanceRecord{
		{StudentID: 1, Date: jan10, Status: model.StatusLate},
		{StudentID: 2, Date: jan10, Status: model.StatusPresent},
		{StudentID: 3, Date: jan10, Status: model.StatusPresent},
	}
	s := loadedSession(t, store)
	_ = s.Set(3, model.StatusAbsent)

	_, _ = s.Submit()
	_, _ = s.Confirm(context.Background())
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, r := range store.days[sheetKey{classID, "2024-01-10"}] {
		if r.StudentID == 1 && r.Status != model.StatusLate {
			t.Errorf("late mark stored as %q", r.Status)
		}
	}
}

func TestEditsBeforeLoadAreRejected(t *testing.T) {
	s := newTestSession(t, &fakeRoster{}, newFakeStore())

	if _, err := s.Toggle(1); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Toggle() error = %v, want ErrNotLoaded", err)
	}
	if err := s.MarkAll(model.StatusPresent); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("MarkAll() error = %v, want ErrNotLoaded", err)
	}
	if s.CanSubmit() {
		t.Error("CanSubmit = true before load")
	}
}

func TestSnapshotReflectsSession(t *testing.T) {
	s := loadedSession(t, newFakeStore())
	_, _ = s.Toggle(2)

	v := s.Snapshot()
	if v.ClassID != classID || v.Date != "2024-01-10" || !v.Loaded {
		t.Errorf("Snapshot key = %d/%s/%v", v.ClassID, v.Date, v.Loaded)
	}
	if v.Counts.Present != 1 || v.Counts.Unmarked != 2 || v.Counts.Total != 3 {
		t.Errorf("Snapshot counts = %+v", v.Counts)
	}
	if v.CanSubmit {
		t.Error("Snapshot CanSubmit = true with unmarked students")
	}
}
