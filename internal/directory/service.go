package directory

import (
	"context"
	"log/slog"
)

// Service is the directory read layer. It doubles as the engine's
// OrgHierarchy lookup: the authorization package depends on the three
// parent-of methods and nothing else.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListFaculties(ctx context.Context) ([]Faculty, error) {
	faculties, err := s.repo.ListFaculties(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list faculties", "error", err)
		return nil, err
	}
	return faculties, nil
}

func (s *Service) ListDepartments(ctx context.Context, facultyID *int64) ([]Department, error) {
	departments, err := s.repo.ListDepartments(ctx, facultyID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list departments", "error", err)
		return nil, err
	}
	return departments, nil
}

func (s *Service) ListPromotions(ctx context.Context, departmentID *int64) ([]Promotion, error) {
	promotions, err := s.repo.ListPromotions(ctx, departmentID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list promotions", "error", err)
		return nil, err
	}
	return promotions, nil
}

// FacultyOfDepartment implements authz.OrgHierarchy.
func (s *Service) FacultyOfDepartment(ctx context.Context, departmentID int64) (int64, error) {
	return s.repo.FacultyOfDepartment(ctx, departmentID)
}

// DepartmentOfPromotion implements authz.OrgHierarchy.
func (s *Service) DepartmentOfPromotion(ctx context.Context, promotionID int64) (int64, error) {
	return s.repo.DepartmentOfPromotion(ctx, promotionID)
}

// PromotionOfStudent implements authz.OrgHierarchy.
func (s *Service) PromotionOfStudent(ctx context.Context, studentID int64) (int64, error) {
	return s.repo.PromotionOfStudent(ctx, studentID)
}
