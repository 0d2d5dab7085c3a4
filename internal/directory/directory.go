package directory

import "context"

// Faculty is the top-level organizational unit below the university itself.
type Faculty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Department struct {
	ID        int64  `json:"id"`
	FacultyID int64  `json:"faculty_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

// Promotion is a cohort (academic year of study) within a department.
// Students attach to a promotion.
type Promotion struct {
	ID           int64  `json:"id"`
	DepartmentID int64  `json:"department_id"`
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
}

// Repository defines the read-side data access for the organizational tree.
type Repository interface {
	ListFaculties(ctx context.Context) ([]Faculty, error)
	ListDepartments(ctx context.Context, facultyID *int64) ([]Department, error)
	ListPromotions(ctx context.Context, departmentID *int64) ([]Promotion, error)

	FacultyOfDepartment(ctx context.Context, departmentID int64) (int64, error)
	DepartmentOfPromotion(ctx context.Context, promotionID int64) (int64, error)
	PromotionOfStudent(ctx context.Context, studentID int64) (int64, error)
}
