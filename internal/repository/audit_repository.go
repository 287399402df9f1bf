package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

var auditColumns = []string{
	"class_instance_id", "date", "operator_id", "operator_role",
	"resubmission", "present", "absent", "late", "committed_at",
}

// AuditRepository writes the attendance audit trail.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// CopyAudit bulk inserts entries in one COPY.
func (r *AuditRepository) CopyAudit(ctx context.Context, entries []model.AttendanceAudit) error {
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"attendance_audit"},
		auditColumns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			return auditRow(entries[i]), nil
		}),
	)
	return err
}

// InsertAudit writes a single entry.
func (r *AuditRepository) InsertAudit(ctx context.Context, e model.AttendanceAudit) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attendance_audit
		 (class_instance_id, date, operator_id, operator_role, resubmission, present, absent, late, committed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		auditRow(e)...,
	)
	return err
}

func auditRow(e model.AttendanceAudit) []any {
	return []any{
		e.ClassInstanceID, model.Day(e.Date), e.OperatorID, e.OperatorRole,
		e.Resubmission, e.Present, e.Absent, e.Late, e.CommittedAt,
	}
}
