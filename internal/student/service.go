package student

import (
	"context"
	"log/slog"

	"github.com/mkalenga/unigest/internal/authz"
)

// listingColumns maps the engine's scope dimensions onto the listing
// query's joined columns (see postgres.listQuery).
var listingColumns = authz.FilterColumns{
	Faculty:    "d.faculty_id",
	Department: "p.department_id",
	Promotion:  "s.promotion_id",
}

// Service produces scope-filtered student listings: every caller sees only
// the students their active grants reach.
type Service struct {
	repo    Repository
	filters FilterBuilder
	logger  *slog.Logger
}

func NewService(repo Repository, filters FilterBuilder, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		filters: filters,
		logger:  logger,
	}
}

// ListVisibleStudents returns the page of students the caller may see. A
// caller with no reachable scope gets an empty page, not an error: the
// compiled filter already denies all rows.
func (s *Service) ListVisibleStudents(ctx context.Context, callerID int64, limit, offset int) ([]Student, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	filter, err := s.filters.BuildFilter(ctx, callerID, listingColumns)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build scope filter", "error", err, "caller_id", callerID)
		return nil, 0, err
	}

	if filter.Kind == authz.MatchNone {
		s.logger.DebugContext(ctx, "caller has no reachable scope", "caller_id", callerID)
		return []Student{}, 0, nil
	}

	students, err := s.repo.ListByFilter(ctx, filter, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list students", "error", err, "caller_id", callerID)
		return nil, 0, err
	}

	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count students", "error", err, "caller_id", callerID)
		return nil, 0, err
	}

	return students, total, nil
}
