package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

var ErrClassNotFound = errors.New("class not found")

// ClassRepository handles class instance data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetByID retrieves a class instance by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id int) (*model.ClassInstance, error) {
	c := &model.ClassInstance{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, grade, section, school_code FROM class_instances WHERE id = $1`, id,
	).Scan(&c.ID, &c.Grade, &c.Section, &c.SchoolCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves the class instances of a school. An empty school code lists all.
func (r *ClassRepository) List(ctx context.Context, schoolCode string) ([]model.ClassInstance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, grade, section, school_code FROM class_instances
		 WHERE $1 = '' OR school_code = $1
		 ORDER BY grade, section`, schoolCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]model.ClassInstance, 0)
	for rows.Next() {
		var c model.ClassInstance
		if err := rows.Scan(&c.ID, &c.Grade, &c.Section, &c.SchoolCode); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}
