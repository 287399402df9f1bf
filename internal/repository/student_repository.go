package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

var ErrStudentNotFound = errors.New("student not found")

// StudentRepository reads the roster owned by the student directory.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetStudent retrieves a student by ID.
func (r *StudentRepository) GetStudent(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, class_instance_id FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.ClassID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListStudents returns the students enrolled in a class, ordered by name.
func (r *StudentRepository) ListStudents(ctx context.Context, classID int) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, class_instance_id FROM students
		 WHERE class_instance_id = $1
		 ORDER BY name, id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.ClassID); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
