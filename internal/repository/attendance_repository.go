package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

var (
	// ErrDuplicateRecord means a student already has a record for the day in another class.
	ErrDuplicateRecord = errors.New("student already has attendance for this date")
	// ErrInvalidRecord means a record failed the table's checks.
	ErrInvalidRecord = errors.New("attendance record rejected by storage")
)

const attendanceColumns = `id, student_id, class_instance_id, date, status, marked_by, marked_by_role, school_code`

// AttendanceRepository handles attendance record data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// ListByClassAndDate returns the records of one class on one day.
func (r *AttendanceRepository) ListByClassAndDate(ctx context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error) {
	return r.query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records
		 WHERE class_instance_id = $1 AND date = $2
		 ORDER BY student_id`,
		classID, model.Day(date),
	)
}

// ListByClassAndRange returns the records of one class between from and to inclusive.
func (r *AttendanceRepository) ListByClassAndRange(ctx context.Context, classID int, from, to time.Time) ([]model.AttendanceRecord, error) {
	return r.query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records
		 WHERE class_instance_id = $1 AND date BETWEEN $2 AND $3
		 ORDER BY date, student_id`,
		classID, model.Day(from), model.Day(to),
	)
}

// ListByStudentAndRange returns one student's records between from and to inclusive.
func (r *AttendanceRepository) ListByStudentAndRange(ctx context.Context, studentID int, from, to time.Time) ([]model.AttendanceRecord, error) {
	return r.query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records
		 WHERE student_id = $1 AND date BETWEEN $2 AND $3
		 ORDER BY date`,
		studentID, model.Day(from), model.Day(to),
	)
}

// ReplaceDay deletes every record of the class on the day and inserts records,
// all in one transaction. Readers see either the old set or the new one.
func (r *AttendanceRepository) ReplaceDay(ctx context.Context, classID int, date time.Time, records []model.AttendanceRecord) error {
	day := model.Day(date)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM attendance_records WHERE class_instance_id = $1 AND date = $2`,
			classID, day,
		); err != nil {
			return fmt.Errorf("delete day: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		_, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"attendance_records"},
			[]string{"id", "student_id", "class_instance_id", "date", "status", "marked_by", "marked_by_role", "school_code"},
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				rec := records[i]
				return []any{
					rec.ID, rec.StudentID, classID, day, string(rec.Status),
					rec.MarkedBy, rec.MarkedByRole, rec.SchoolCode,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("insert records: %w", err)
		}
		return nil
	})
	return mapWriteError(err)
}

func (r *AttendanceRepository) query(ctx context.Context, sql string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		var rec model.AttendanceRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ClassInstanceID, &rec.Date, &status,
			&rec.MarkedBy, &rec.MarkedByRole, &rec.SchoolCode); err != nil {
			return nil, err
		}
		rec.Status = model.AttendanceStatus(status)
		rec.Date = model.Day(rec.Date)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicateRecord, pgErr.Detail)
		case "23503", "23514":
			return fmt.Errorf("%w: %s", ErrInvalidRecord, pgErr.Message)
		}
	}
	return err
}
