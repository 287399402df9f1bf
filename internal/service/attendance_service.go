package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/analytics"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/attendancecsv"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/marking"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/register"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/timeline"
)

// Attendance service errors.
var (
	ErrConfirmationRequired         = errors.New("submission needs confirmation")
	ErrResubmitConfirmationRequired = errors.New("overwriting stored attendance needs confirmation")
	ErrWrongSchool                  = errors.New("class belongs to another school")
	ErrInvalidRange                 = errors.New("invalid date range")
	ErrInvalidImport                = errors.New("invalid attendance import")
)

// DefaultRangeDays is the length of an analytics range when no start is given.
const DefaultRangeDays = 30

// AttendanceStore is the full attendance repository.
type AttendanceStore interface {
	marking.Store
	ListByClassAndRange(ctx context.Context, classID int, from, to time.Time) ([]model.AttendanceRecord, error)
	ListByStudentAndRange(ctx context.Context, studentID int, from, to time.Time) ([]model.AttendanceRecord, error)
}

// ClassDirectory looks up class instances.
type ClassDirectory interface {
	GetByID(ctx context.Context, id int) (*model.ClassInstance, error)
	List(ctx context.Context, schoolCode string) ([]model.ClassInstance, error)
}

// StudentDirectory looks up single students.
type StudentDirectory interface {
	GetStudent(ctx context.Context, id int) (*model.Student, error)
}

// AttendanceService wires marking sessions, analytics and exports to storage.
type AttendanceService struct {
	store     AttendanceStore
	roster    marking.RosterProvider
	classes   ClassDirectory
	students  StudentDirectory
	audit     AuditPublisher
	log       zerolog.Logger
	now       func() time.Time
	maxDays   int
	riskBelow int
}

// AttendanceOptions tunes an AttendanceService.
type AttendanceOptions struct {
	MaxRangeDays    int
	AtRiskThreshold int
}

// NewAttendanceService creates a new AttendanceService. audit may be nil.
func NewAttendanceService(
	store AttendanceStore,
	roster marking.RosterProvider,
	classes ClassDirectory,
	students StudentDirectory,
	audit AuditPublisher,
	opts AttendanceOptions,
	log zerolog.Logger,
) *AttendanceService {
	if audit == nil {
		audit = discardAudit{}
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = timeline.MaxDays
	}
	if opts.AtRiskThreshold <= 0 {
		opts.AtRiskThreshold = analytics.GoodFrom
	}
	return &AttendanceService{
		store:     store,
		roster:    roster,
		classes:   classes,
		students:  students,
		audit:     audit,
		log:       log.With().Str("component", "attendance_service").Logger(),
		now:       time.Now,
		maxDays:   opts.MaxRangeDays,
		riskBelow: opts.AtRiskThreshold,
	}
}

// ─── Classes ──────────────────────────────────────────────────────────

// ListClasses returns the classes the operator's school owns.
func (s *AttendanceService) ListClasses(ctx context.Context, op model.Operator) ([]model.ClassInstance, error) {
	return s.classes.List(ctx, op.SchoolCode)
}

// GetClass returns a class the operator may work with.
func (s *AttendanceService) GetClass(ctx context.Context, op model.Operator, classID int) (*model.ClassInstance, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if op.SchoolCode != "" && class.SchoolCode != op.SchoolCode {
		return nil, ErrWrongSchool
	}
	return class, nil
}

// ─── Marking ──────────────────────────────────────────────────────────

// NewSession returns an empty marking session acting as op.
func (s *AttendanceService) NewSession(op model.Operator) *marking.Session {
	return marking.NewSession(s.roster, s.store, op, s.log)
}

// Open loads the session for a class the operator may work with.
func (s *AttendanceService) Open(ctx context.Context, op model.Operator, sess *marking.Session, classID int, date time.Time) error {
	if _, err := s.GetClass(ctx, op, classID); err != nil {
		return err
	}
	return sess.Load(ctx, classID, date)
}

// Confirm acknowledges the session's pending confirmation and, once the sheet
// is committed, queues an audit event. A failed audit push never fails the commit.
func (s *AttendanceService) Confirm(ctx context.Context, op model.Operator, sess *marking.Session) (marking.Confirmation, error) {
	resubmission := sess.HasExistingAttendance()
	conf, err := sess.Confirm(ctx)
	if err != nil || conf.Stage != marking.StageCommitted {
		return conf, err
	}

	s.publishAudit(ctx, AuditEvent{
		ClassID:      conf.ClassID,
		Date:         conf.Date,
		OperatorID:   op.ID,
		OperatorRole: op.Role,
		Resubmission: resubmission,
		Present:      conf.Present,
		Absent:       conf.Absent,
		Late:         conf.Late,
		CommittedAt:  s.now().Unix(),
	})
	return conf, nil
}

func (s *AttendanceService) publishAudit(ctx context.Context, ev AuditEvent) {
	if err := s.audit.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Int("class_id", ev.ClassID).Str("date", ev.Date).Msg("Audit event not queued")
	}
}

// GetSheet loads the sheet of a class on a day.
func (s *AttendanceService) GetSheet(ctx context.Context, op model.Operator, classID int, date time.Time) (marking.View, error) {
	sess := s.NewSession(op)
	if err := s.Open(ctx, op, sess, classID, date); err != nil {
		return marking.View{}, err
	}
	return sess.Snapshot(), nil
}

// SubmitSheet applies a complete set of statuses and walks the confirmation
// steps the request acknowledges. Without Confirm it stops at the summary;
// when the day already has records it also needs ConfirmResubmit. The returned
// confirmation is filled in for ErrConfirmationRequired,
// ErrResubmitConfirmationRequired and success.
func (s *AttendanceService) SubmitSheet(ctx context.Context, op model.Operator, classID int, date time.Time, req model.SubmitAttendanceRequest) (marking.Confirmation, error) {
	sess := s.NewSession(op)
	if err := s.Open(ctx, op, sess, classID, date); err != nil {
		return marking.Confirmation{}, err
	}

	for studentID, status := range req.Statuses {
		if err := sess.Set(studentID, status); err != nil {
			return marking.Confirmation{}, fmt.Errorf("student %d: %w", studentID, err)
		}
	}

	conf, err := sess.Submit()
	if err != nil {
		return marking.Confirmation{}, err
	}
	if !req.Confirm {
		return conf, ErrConfirmationRequired
	}

	conf, err = s.Confirm(ctx, op, sess)
	if err != nil {
		return marking.Confirmation{}, err
	}
	if conf.Stage == marking.StageResubmit {
		if !req.ConfirmResubmit {
			return conf, ErrResubmitConfirmationRequired
		}
		conf, err = s.Confirm(ctx, op, sess)
		if err != nil {
			return marking.Confirmation{}, err
		}
	}
	return conf, nil
}

// ─── Analytics ────────────────────────────────────────────────────────

// Range is a resolved analytics window.
type Range struct {
	From   time.Time        `json:"from"`
	To     time.Time        `json:"to"`
	Period analytics.Period `json:"period"`
}

// ResolveRange fills in missing bounds (today, and DefaultRangeDays back) and
// rejects inverted or overlong ranges.
func (s *AttendanceService) ResolveRange(q model.RangeQuery) (Range, error) {
	period, err := analytics.ParsePeriod(q.Period)
	if err != nil {
		return Range{}, err
	}

	to := model.Day(s.now())
	if q.To != "" {
		if to, err = model.ParseDay(q.To); err != nil {
			return Range{}, err
		}
	}
	from := to.AddDate(0, 0, -(DefaultRangeDays - 1))
	if q.From != "" {
		if from, err = model.ParseDay(q.From); err != nil {
			return Range{}, err
		}
	}

	if to.Before(from) {
		return Range{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from.Format(model.DateLayout), to.Format(model.DateLayout))
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.maxDays {
		return Range{}, fmt.Errorf("%w: %d days exceeds %d", ErrInvalidRange, days, s.maxDays)
	}
	return Range{From: from, To: to, Period: period}, nil
}

// StudentLine is one row of a class report.
type StudentLine struct {
	Student model.Student     `json:"student"`
	Summary analytics.Summary `json:"summary"`
}

// ClassReport is the analytics view of one class over a range.
type ClassReport struct {
	Class    model.ClassInstance `json:"class"`
	Range    Range               `json:"range"`
	Summary  analytics.Summary   `json:"summary"`
	Rollup   []analytics.Bucket  `json:"rollup"`
	Students []StudentLine       `json:"students"`
	AtRisk   []StudentLine       `json:"at_risk"`
}

// ClassAnalytics summarizes a class over the range, with one line per enrolled
// student. Students without records in the range get an empty summary.
func (s *AttendanceService) ClassAnalytics(ctx context.Context, op model.Operator, classID int, q model.RangeQuery) (*ClassReport, error) {
	class, err := s.GetClass(ctx, op, classID)
	if err != nil {
		return nil, err
	}
	rng, err := s.ResolveRange(q)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListByClassAndRange(ctx, classID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("list class records: %w", err)
	}
	roster, err := s.roster.ListStudents(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	perStudent := make(map[int]analytics.StudentSummary)
	for _, ss := range analytics.ByStudent(records) {
		perStudent[ss.StudentID] = ss
	}
	names := make(map[int]model.Student, len(roster))
	lines := make([]StudentLine, 0, len(roster))
	for _, st := range roster {
		names[st.ID] = st
		sum, ok := perStudent[st.ID]
		if !ok {
			sum.Summary = analytics.Summarize(nil)
		}
		lines = append(lines, StudentLine{Student: st, Summary: sum.Summary})
	}

	risk := analytics.AtRisk(analytics.ByStudent(records), s.riskBelow)
	atRisk := make([]StudentLine, 0, len(risk))
	for _, r := range risk {
		st, ok := names[r.StudentID]
		if !ok {
			// Left the class since; keep the ID so the row is still traceable.
			st = model.Student{ID: r.StudentID, ClassID: classID}
		}
		atRisk = append(atRisk, StudentLine{Student: st, Summary: r.Summary})
	}

	return &ClassReport{
		Class:    *class,
		Range:    rng,
		Summary:  analytics.Summarize(records),
		Rollup:   analytics.Rollup(records, rng.Period),
		Students: lines,
		AtRisk:   atRisk,
	}, nil
}

// ClassTimeline returns one entry per day of the range with the class's daily
// figures, or no-data for days nobody marked.
func (s *AttendanceService) ClassTimeline(ctx context.Context, op model.Operator, classID int, q model.RangeQuery) ([]timeline.Day, error) {
	if _, err := s.GetClass(ctx, op, classID); err != nil {
		return nil, err
	}
	rng, err := s.ResolveRange(q)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListByClassAndRange(ctx, classID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("list class records: %w", err)
	}
	return timeline.Fill(analytics.Rollup(records, analytics.Daily), rng.From, rng.To), nil
}

// ClassLine is one row of a school overview.
type ClassLine struct {
	Class   model.ClassInstance `json:"class"`
	Summary analytics.Summary   `json:"summary"`
}

// SchoolReport is the analytics view of every class of the operator's school.
type SchoolReport struct {
	Range   Range             `json:"range"`
	Summary analytics.Summary `json:"summary"`
	Classes []ClassLine       `json:"classes"`
	AtRisk  []ClassLine       `json:"at_risk"`
}

// SchoolOverview summarizes each class of the operator's school over the
// range. Classes below the at-risk threshold are listed lowest rate first.
func (s *AttendanceService) SchoolOverview(ctx context.Context, op model.Operator, q model.RangeQuery) (*SchoolReport, error) {
	rng, err := s.ResolveRange(q)
	if err != nil {
		return nil, err
	}
	classes, err := s.classes.List(ctx, op.SchoolCode)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	all := make([]model.AttendanceRecord, 0)
	for _, class := range classes {
		records, err := s.store.ListByClassAndRange(ctx, class.ID, rng.From, rng.To)
		if err != nil {
			return nil, fmt.Errorf("list records of class %d: %w", class.ID, err)
		}
		all = append(all, records...)
	}

	perClass := make(map[int]analytics.Summary)
	for _, cs := range analytics.ByClass(all) {
		perClass[cs.ClassInstanceID] = cs.Summary
	}
	lines := make([]ClassLine, 0, len(classes))
	atRisk := make([]ClassLine, 0)
	for _, class := range classes {
		sum, ok := perClass[class.ID]
		if !ok {
			sum = analytics.Summarize(nil)
		}
		line := ClassLine{Class: class, Summary: sum}
		lines = append(lines, line)
		if sum.Total > 0 && sum.Rate < s.riskBelow {
			atRisk = append(atRisk, line)
		}
	}
	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].Summary.Rate < atRisk[j].Summary.Rate
	})

	return &SchoolReport{
		Range:   rng,
		Summary: analytics.Summarize(all),
		Classes: lines,
		AtRisk:  atRisk,
	}, nil
}

// StudentReport is the analytics view of one student over a range.
type StudentReport struct {
	Student  model.Student      `json:"student"`
	Range    Range              `json:"range"`
	Summary  analytics.Summary  `json:"summary"`
	Rollup   []analytics.Bucket `json:"rollup"`
	Timeline []timeline.Day     `json:"timeline"`
}

// StudentAnalytics summarizes one student over the range.
func (s *AttendanceService) StudentAnalytics(ctx context.Context, op model.Operator, studentID int, q model.RangeQuery) (*StudentReport, error) {
	student, records, rng, err := s.studentRecords(ctx, op, studentID, q)
	if err != nil {
		return nil, err
	}
	return &StudentReport{
		Student:  *student,
		Range:    rng,
		Summary:  analytics.Summarize(records),
		Rollup:   analytics.Rollup(records, rng.Period),
		Timeline: timeline.FillStudent(records, rng.From, rng.To),
	}, nil
}

// ExportStudent writes the student's records in the range as CSV.
func (s *AttendanceService) ExportStudent(ctx context.Context, op model.Operator, studentID int, q model.RangeQuery, w io.Writer) error {
	_, records, _, err := s.studentRecords(ctx, op, studentID, q)
	if err != nil {
		return err
	}
	return attendancecsv.Export(w, records)
}

// ExportClassRegister writes the class's register for the range as an XLSX workbook.
func (s *AttendanceService) ExportClassRegister(ctx context.Context, op model.Operator, classID int, q model.RangeQuery, w io.Writer) error {
	class, err := s.GetClass(ctx, op, classID)
	if err != nil {
		return err
	}
	rng, err := s.ResolveRange(q)
	if err != nil {
		return err
	}
	records, err := s.store.ListByClassAndRange(ctx, classID, rng.From, rng.To)
	if err != nil {
		return fmt.Errorf("list class records: %w", err)
	}
	roster, err := s.roster.ListStudents(ctx, classID)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	return register.WriteXLSX(w, register.Build(*class, roster, records, rng.From, rng.To))
}

// ─── Import ───────────────────────────────────────────────────────────

// ImportResult counts the days an import rewrote and the days that already
// held the imported status.
type ImportResult struct {
	Imported  int `json:"imported"`
	Unchanged int `json:"unchanged"`
}

// ImportStudent applies a CSV in the export format to one student's history.
// Each listed day of the student's class is rewritten with the imported status;
// other students' records on that day stay as stored. The file is rejected as a
// whole when a row is malformed or a date repeats. Days written before a store
// failure stay written.
func (s *AttendanceService) ImportStudent(ctx context.Context, op model.Operator, studentID int, r io.Reader) (ImportResult, error) {
	var result ImportResult

	student, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return result, err
	}
	if _, err := s.GetClass(ctx, op, student.ClassID); err != nil {
		return result, err
	}

	rows, err := attendancecsv.Import(r)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	records, err := attendancecsv.Records(rows, studentID)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	seen := make(map[time.Time]bool, len(records))
	for _, rec := range records {
		if seen[rec.Date] {
			return result, fmt.Errorf("%w: %s listed twice", ErrInvalidImport, rec.DateKey())
		}
		seen[rec.Date] = true
	}

	for _, rec := range records {
		changed, err := s.importDay(ctx, op, student.ClassID, rec)
		if err != nil {
			return result, err
		}
		if changed {
			result.Imported++
		} else {
			result.Unchanged++
		}
	}

	s.log.Info().
		Int("student_id", studentID).
		Int("imported", result.Imported).
		Int("unchanged", result.Unchanged).
		Msg("Attendance imported")
	return result, nil
}

func (s *AttendanceService) importDay(ctx context.Context, op model.Operator, classID int, rec model.AttendanceRecord) (bool, error) {
	stored, err := s.store.ListByClassAndDate(ctx, classID, rec.Date)
	if err != nil {
		return false, fmt.Errorf("list %s: %w", rec.DateKey(), err)
	}

	day := make([]model.AttendanceRecord, 0, len(stored)+1)
	for _, r := range stored {
		if r.StudentID == rec.StudentID {
			if r.Status == rec.Status {
				return false, nil
			}
			continue
		}
		day = append(day, r)
	}
	day = append(day, model.AttendanceRecord{
		ID:              uuid.New(),
		StudentID:       rec.StudentID,
		ClassInstanceID: classID,
		Date:            rec.Date,
		Status:          rec.Status,
		MarkedBy:        op.ID,
		MarkedByRole:    op.Role,
		SchoolCode:      op.SchoolCode,
	})

	if err := s.store.ReplaceDay(ctx, classID, rec.Date, day); err != nil {
		return false, &marking.CommitError{ClassID: classID, Date: rec.Date, Err: err}
	}

	c := analytics.Tally(day)
	s.publishAudit(ctx, AuditEvent{
		ClassID:      classID,
		Date:         rec.DateKey(),
		OperatorID:   op.ID,
		OperatorRole: op.Role,
		Resubmission: len(stored) > 0,
		Present:      c.Present,
		Absent:       c.Absent,
		Late:         c.Late,
		CommittedAt:  s.now().Unix(),
	})
	return true, nil
}

func (s *AttendanceService) studentRecords(ctx context.Context, op model.Operator, studentID int, q model.RangeQuery) (*model.Student, []model.AttendanceRecord, Range, error) {
	student, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, nil, Range{}, err
	}
	if _, err := s.GetClass(ctx, op, student.ClassID); err != nil {
		return nil, nil, Range{}, err
	}
	rng, err := s.ResolveRange(q)
	if err != nil {
		return nil, nil, Range{}, err
	}
	records, err := s.store.ListByStudentAndRange(ctx, studentID, rng.From, rng.To)
	if err != nil {
		return nil, nil, Range{}, fmt.Errorf("list student records: %w", err)
	}
	return student, records, rng, nil
}
