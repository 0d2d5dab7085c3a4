package postgres

import (
	"context"
	"errors"

	"github.com/mkalenga/unigest/internal/authz"
	"github.com/mkalenga/unigest/internal/directory"
	"gorm.io/gorm"
)

// DirectoryRepository implements directory.Repository using GORM.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) directory.Repository {
	return &DirectoryRepository{db: db}
}

type facultyModel struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
	Code string `gorm:"column:code"`
}

func (facultyModel) TableName() string { return "faculties" }

type departmentModel struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	FacultyID int64  `gorm:"column:faculty_id"`
	Name      string `gorm:"column:name"`
	Code      string `gorm:"column:code"`
}

func (departmentModel) TableName() string { return "departments" }

type promotionModel struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	DepartmentID int64  `gorm:"column:department_id"`
	Name         string `gorm:"column:name"`
	AcademicYear string `gorm:"column:academic_year"`
}

func (promotionModel) TableName() string { return "promotions" }

func (r *DirectoryRepository) ListFaculties(ctx context.Context) ([]directory.Faculty, error) {
	var models []facultyModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	faculties := make([]directory.Faculty, len(models))
	for i, m := range models {
		faculties[i] = directory.Faculty{ID: m.ID, Name: m.Name, Code: m.Code}
	}
	return faculties, nil
}

func (r *DirectoryRepository) ListDepartments(ctx context.Context, facultyID *int64) ([]directory.Department, error) {
	tx := r.db.WithContext(ctx).Order("name ASC")
	if facultyID != nil {
		tx = tx.Where("faculty_id = ?", *facultyID)
	}

	var models []departmentModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}

	departments := make([]directory.Department, len(models))
	for i, m := range models {
		departments[i] = directory.Department{ID: m.ID, FacultyID: m.FacultyID, Name: m.Name, Code: m.Code}
	}
	return departments, nil
}

func (r *DirectoryRepository) ListPromotions(ctx context.Context, departmentID *int64) ([]directory.Promotion, error) {
	tx := r.db.WithContext(ctx).Order("name ASC")
	if departmentID != nil {
		tx = tx.Where("department_id = ?", *departmentID)
	}

	var models []promotionModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}

	promotions := make([]directory.Promotion, len(models))
	for i, m := range models {
		promotions[i] = directory.Promotion{ID: m.ID, DepartmentID: m.DepartmentID, Name: m.Name, AcademicYear: m.AcademicYear}
	}
	return promotions, nil
}

// The three parent-of lookups below back the authorization engine's scope
// resolution. They translate gorm.ErrRecordNotFound into authz.ErrNotFound
// so the resolver can fail closed without special-casing GORM.

func (r *DirectoryRepository) FacultyOfDepartment(ctx context.Context, departmentID int64) (int64, error) {
	var facultyID int64
	err := r.db.WithContext(ctx).
		Model(&departmentModel{}).
		Select("faculty_id").
		Where("id = ?", departmentID).
		Take(&facultyID).Error
	if err != nil {
		return 0, translateNotFound(err)
	}
	return facultyID, nil
}

func (r *DirectoryRepository) DepartmentOfPromotion(ctx context.Context, promotionID int64) (int64, error) {
	var departmentID int64
	err := r.db.WithContext(ctx).
		Model(&promotionModel{}).
		Select("department_id").
		Where("id = ?", promotionID).
		Take(&departmentID).Error
	if err != nil {
		return 0, translateNotFound(err)
	}
	return departmentID, nil
}

func (r *DirectoryRepository) PromotionOfStudent(ctx context.Context, studentID int64) (int64, error) {
	var promotionID int64
	err := r.db.WithContext(ctx).
		Table("students").
		Select("promotion_id").
		Where("id = ?", studentID).
		Take(&promotionID).Error
	if err != nil {
		return 0, translateNotFound(err)
	}
	return promotionID, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return authz.ErrNotFound
	}
	return err
}
