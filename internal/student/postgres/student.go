package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mkalenga/unigest/internal/authz"
	"github.com/mkalenga/unigest/internal/student"
)

// StudentRepository renders compiled scope filters into SQL and runs the
// listing queries over sqlx.
type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &StudentRepository{db: db}
}

const listQuery = `
SELECT s.id, s.first_name, s.last_name, s.registration_number,
       s.promotion_id, p.department_id, d.faculty_id
FROM students s
JOIN promotions p ON p.id = s.promotion_id
JOIN departments d ON d.id = p.department_id
WHERE %s
ORDER BY s.last_name, s.first_name, s.id
LIMIT ? OFFSET ?`

const countQuery = `
SELECT COUNT(*)
FROM students s
JOIN promotions p ON p.id = s.promotion_id
JOIN departments d ON d.id = p.department_id
WHERE %s`

func (r *StudentRepository) ListByFilter(ctx context.Context, filter authz.Filter, limit, offset int) ([]student.Student, error) {
	clause, args := filter.SQL()

	query, args, err := sqlx.In(fmt.Sprintf(listQuery, clause), append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("expand scope filter: %w", err)
	}

	var students []student.Student
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return students, nil
}

func (r *StudentRepository) CountByFilter(ctx context.Context, filter authz.Filter) (int64, error) {
	clause, args := filter.SQL()

	query, args, err := sqlx.In(fmt.Sprintf(countQuery, clause), args...)
	if err != nil {
		return 0, fmt.Errorf("expand scope filter: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return total, nil
}
