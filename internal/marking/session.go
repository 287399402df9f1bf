// Package marking holds the editable attendance sheet for one class on one day
// and commits it as a whole.
package marking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// SavedIndicatorTTL is how long the "saved" indicator stays up after a commit.
const SavedIndicatorTTL = 2500 * time.Millisecond

// RosterProvider returns the ordered list of students enrolled in a class.
type RosterProvider interface {
	ListStudents(ctx context.Context, classID int) ([]model.Student, error)
}

// Store is the part of the attendance repository a session needs.
// ReplaceDay must delete and insert in one atomic unit.
type Store interface {
	ListByClassAndDate(ctx context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error)
	ReplaceDay(ctx context.Context, classID int, date time.Time, records []model.AttendanceRecord) error
}

// Entry is one roster row of the sheet.
type Entry struct {
	Student model.Student          `json:"student"`
	Status  model.AttendanceStatus `json:"status"`
}

// Counts is the per-status tally of the sheet.
type Counts struct {
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	Late     int `json:"late"`
	Unmarked int `json:"unmarked"`
	Total    int `json:"total"`
}

// Confirmation is what the operator must acknowledge before a commit proceeds.
type Confirmation struct {
	Stage   Stage  `json:"stage"`
	ClassID int    `json:"class_id"`
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Late    int    `json:"late"`
	Total   int    `json:"total"`
}

// View is a read-only snapshot of the session for rendering.
type View struct {
	ClassID               int     `json:"class_id"`
	Date                  string  `json:"date"`
	Loaded                bool    `json:"loaded"`
	Entries               []Entry `json:"entries"`
	Counts                Counts  `json:"counts"`
	HasExistingAttendance bool    `json:"has_existing_attendance"`
	CanSubmit             bool    `json:"can_submit"`
	Loading               bool    `json:"loading"`
	Saving                bool    `json:"saving"`
	Saved                 bool    `json:"saved"`
	Stage                 Stage   `json:"stage"`
	Banner                Banner  `json:"banner"`
}

// Session is the in-memory sheet for one (class, date). It is driven by a single
// operator; the mutex only guards against readers (timers, transports) observing
// half-applied state while a load or commit is in flight.
type Session struct {
	mu       sync.Mutex
	roster   RosterProvider
	store    Store
	operator model.Operator
	log      zerolog.Logger
	now      func() time.Time

	classID    int
	date       time.Time
	loaded     bool
	generation uint64
	entries    []Entry
	index      map[int]int

	hasExisting bool
	loading     bool
	saving      bool
	stage       Stage
	banner      Banner
	savedAt     time.Time
}

// NewSession creates an empty session. Nothing is fetched until Load.
func NewSession(roster RosterProvider, store Store, operator model.Operator, log zerolog.Logger) *Session {
	return &Session{
		roster:   roster,
		store:    store,
		operator: operator,
		log:      log.With().Str("component", "marking_session").Int("operator_id", operator.ID).Logger(),
		now:      time.Now,
		stage:    StageEditing,
	}
}

// Load switches the session to (classID, date), discarding any unsaved marks, and
// seeds each student's status from records already stored for that exact day.
func (s *Session) Load(ctx context.Context, classID int, date time.Time) error {
	date = model.Day(date)

	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrBusy
	}
	s.generation++
	gen := s.generation
	s.classID, s.date = classID, date
	s.clearSheet()
	s.loading = true
	s.mu.Unlock()

	students, records, err := s.fetch(ctx, classID, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return ErrSuperseded
	}
	s.loading = false

	if err != nil {
		s.banner = Banner{Kind: BannerError, Message: "Failed to load attendance. Please try again."}
		s.log.Error().Err(err).Int("class_id", classID).Str("date", date.Format(model.DateLayout)).Msg("Load failed")
		return &LoadError{ClassID: classID, Date: date, Err: err}
	}

	stored := make(map[int]model.AttendanceStatus, len(records))
	for _, r := range records {
		if r.Status.IsPersisted() {
			stored[r.StudentID] = r.Status
		}
	}

	s.entries = make([]Entry, len(students))
	s.index = make(map[int]int, len(students))
	for i, st := range students {
		status, ok := stored[st.ID]
		if !ok {
			status = model.StatusUnmarked
		}
		s.entries[i] = Entry{Student: st, Status: status}
		s.index[st.ID] = i
	}
	s.hasExisting = len(records) > 0
	s.loaded = true

	s.log.Debug().
		Int("class_id", classID).
		Str("date", date.Format(model.DateLayout)).
		Int("students", len(students)).
		Bool("existing", s.hasExisting).
		Msg("Sheet loaded")
	return nil
}

func (s *Session) fetch(ctx context.Context, classID int, date time.Time) ([]model.Student, []model.AttendanceRecord, error) {
	students, err := s.roster.ListStudents(ctx, classID)
	if err != nil {
		return nil, nil, fmt.Errorf("list students: %w", err)
	}
	records, err := s.store.ListByClassAndDate(ctx, classID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("list records: %w", err)
	}
	return students, records, nil
}

// clearSheet drops everything tied to the previous key. Caller holds mu.
func (s *Session) clearSheet() {
	s.loaded = false
	s.entries = nil
	s.index = nil
	s.hasExisting = false
	s.stage = StageEditing
	s.banner = Banner{}
	s.savedAt = time.Time{}
}

// editable checks that the sheet can be changed. Caller holds mu.
func (s *Session) editable() error {
	if s.loading || s.saving {
		return ErrBusy
	}
	if !s.loaded {
		return ErrNotLoaded
	}
	return nil
}

// Toggle advances one student along the unmarked → present → absent cycle.
func (s *Session) Toggle(studentID int) (model.AttendanceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return "", err
	}
	i, ok := s.index[studentID]
	if !ok {
		return "", ErrUnknownStudent
	}
	s.entries[i].Status = Next(s.entries[i].Status)
	s.stage = StageEditing
	return s.entries[i].Status, nil
}

// Set assigns a status to one student directly.
func (s *Session) Set(studentID int, status model.AttendanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return err
	}
	if !settable(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	i, ok := s.index[studentID]
	if !ok {
		return ErrUnknownStudent
	}
	s.entries[i].Status = status
	s.stage = StageEditing
	return nil
}

// MarkAll forces every student to present or absent, bypassing the toggle cycle.
func (s *Session) MarkAll(status model.AttendanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return err
	}
	if status != model.StatusPresent && status != model.StatusAbsent {
		return fmt.Errorf("%w: bulk marking only accepts present or absent, got %q", ErrInvalidStatus, status)
	}
	for i := range s.entries {
		s.entries[i].Status = status
	}
	s.stage = StageEditing
	return nil
}

// Reset returns every student to unmarked and clears the banner.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return err
	}
	for i := range s.entries {
		s.entries[i].Status = model.StatusUnmarked
	}
	s.stage = StageEditing
	s.banner = Banner{}
	s.savedAt = time.Time{}
	return nil
}

// UnmarkedCount is the number of students still awaiting a decision.
func (s *Session) UnmarkedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts().Unmarked
}

// CanSubmit reports whether a loaded, idle sheet is complete.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmit()
}

func (s *Session) canSubmit() bool {
	return s.loaded && !s.loading && !s.saving && s.counts().Unmarked == 0
}

// HasExistingAttendance reports whether stored records exist for the loaded key.
func (s *Session) HasExistingAttendance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasExisting
}

// Counts returns the current tally.
func (s *Session) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts()
}

func (s *Session) counts() Counts {
	c := Counts{Total: len(s.entries)}
	for _, e := range s.entries {
		switch e.Status {
		case model.StatusPresent:
			c.Present++
		case model.StatusAbsent:
			c.Absent++
		case model.StatusLate:
			c.Late++
		default:
			c.Unmarked++
		}
	}
	return c
}

// Entries returns a copy of the sheet rows in roster order.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Status returns the current status of one student.
func (s *Session) Status(studentID int) (model.AttendanceStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[studentID]
	if !ok {
		return "", false
	}
	return s.entries[i].Status, true
}

// Loading reports whether a load is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Saving reports whether a commit is in flight.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Saved reports whether the "saved" indicator is still showing.
func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved()
}

func (s *Session) saved() bool {
	return !s.savedAt.IsZero() && s.now().Sub(s.savedAt) < SavedIndicatorTTL
}

// Banner returns the current alert. A success banner disappears with the saved indicator.
func (s *Session) Banner() Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBanner()
}

func (s *Session) currentBanner() Banner {
	if s.banner.Kind == BannerSuccess && !s.saved() {
		return Banner{}
	}
	return s.banner
}

// Stage returns how far the pending submission has progressed.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Submit validates the sheet and asks for the summary confirmation. No repository
// call is made here.
func (s *Session) Submit() (Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return Confirmation{}, err
	}
	if n := s.counts().Unmarked; n > 0 {
		return Confirmation{}, fmt.Errorf("%w: %d remaining", ErrIncomplete, n)
	}
	s.stage = StageSummary
	return s.confirmation(StageSummary), nil
}

// Confirm acknowledges the pending confirmation. When the day already has stored
// records, acknowledging the summary only advances to the resubmit confirmation;
// the replace runs once that second confirmation is given.
func (s *Session) Confirm(ctx context.Context) (Confirmation, error) {
	s.mu.Lock()
	if s.loading || s.saving {
		s.mu.Unlock()
		return Confirmation{}, ErrBusy
	}
	switch s.stage {
	case StageSummary:
		if s.hasExisting {
			s.stage = StageResubmit
			c := s.confirmation(StageResubmit)
			s.mu.Unlock()
			return c, nil
		}
	case StageResubmit:
	default:
		s.mu.Unlock()
		return Confirmation{}, ErrNoPendingSubmit
	}

	classID, date := s.classID, s.date
	records := s.buildRecords()
	s.saving = true
	s.mu.Unlock()

	err := s.store.ReplaceDay(ctx, classID, date, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	s.stage = StageEditing

	if err != nil {
		s.banner = Banner{Kind: BannerError, Message: "Failed to save attendance. Your marks were kept; please retry."}
		s.log.Error().Err(err).Int("class_id", classID).Str("date", date.Format(model.DateLayout)).Msg("Commit failed")
		return Confirmation{}, &CommitError{ClassID: classID, Date: date, Err: err}
	}

	s.hasExisting = true
	s.savedAt = s.now()
	s.banner = Banner{Kind: BannerSuccess, Message: "Attendance saved."}
	s.log.Info().
		Int("class_id", classID).
		Str("date", date.Format(model.DateLayout)).
		Int("records", len(records)).
		Msg("Sheet committed")
	return s.confirmation(StageCommitted), nil
}

// Cancel abandons a pending confirmation and returns to editing.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saving {
		s.stage = StageEditing
	}
}

// buildRecords converts the sheet into one record per student. Caller holds mu
// and has verified nothing is unmarked.
func (s *Session) buildRecords() []model.AttendanceRecord {
	records := make([]model.AttendanceRecord, 0, len(s.entries))
	for _, e := range s.entries {
		records = append(records, model.AttendanceRecord{
			ID:              uuid.New(),
			StudentID:       e.Student.ID,
			ClassInstanceID: s.classID,
			Date:            s.date,
			Status:          e.Status,
			MarkedBy:        s.operator.ID,
			MarkedByRole:    s.operator.Role,
			SchoolCode:      s.operator.SchoolCode,
		})
	}
	return records
}

func (s *Session) confirmation(stage Stage) Confirmation {
	c := s.counts()
	return Confirmation{
		Stage:   stage,
		ClassID: s.classID,
		Date:    s.date.Format(model.DateLayout),
		Present: c.Present,
		Absent:  c.Absent,
		Late:    c.Late,
		Total:   c.Total,
	}
}

// Snapshot returns everything a view needs in one consistent read.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)

	v := View{
		ClassID:               s.classID,
		Loaded:                s.loaded,
		Entries:               entries,
		Counts:                s.counts(),
		HasExistingAttendance: s.hasExisting,
		CanSubmit:             s.canSubmit(),
		Loading:               s.loading,
		Saving:                s.saving,
		Saved:                 s.saved(),
		Stage:                 s.stage,
		Banner:                s.currentBanner(),
	}
	if !s.date.IsZero() {
		v.Date = s.date.Format(model.DateLayout)
	}
	return v
}
