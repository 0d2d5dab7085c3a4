package student

import (
	"context"

	"github.com/mkalenga/unigest/internal/authz"
)

// Student is the listing row: one enrolled student plus their position in
// the organizational tree.
type Student struct {
	ID                 int64  `json:"id" db:"id"`
	FirstName          string `json:"first_name" db:"first_name"`
	LastName           string `json:"last_name" db:"last_name"`
	RegistrationNumber string `json:"registration_number" db:"registration_number"`
	PromotionID        int64  `json:"promotion_id" db:"promotion_id"`
	DepartmentID       int64  `json:"department_id" db:"department_id"`
	FacultyID          int64  `json:"faculty_id" db:"faculty_id"`
}

// Repository lists students under a compiled scope filter. The filter was
// built by the authorization engine; the repository only renders and
// executes it.
type Repository interface {
	ListByFilter(ctx context.Context, filter authz.Filter, limit, offset int) ([]Student, error)
	CountByFilter(ctx context.Context, filter authz.Filter) (int64, error)
}

// FilterBuilder is the slice of the authorization engine this package
// depends on. *authz.Service satisfies it.
type FilterBuilder interface {
	BuildFilter(ctx context.Context, userID int64, columns authz.FilterColumns) (authz.Filter, error)
}
