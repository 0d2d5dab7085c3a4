package authz

import (
	"context"
	"log/slog"

	"github.com/mkalenga/unigest/internal"
)

// Service is the authorization engine: it answers point authorization
// questions, aggregates a user's reachable scope for bulk queries, and owns
// the grant/revoke lifecycle. All read operations re-read the grant store,
// so the service is safe for concurrent use and a revoke is visible to the
// very next check.
type Service struct {
	catalog *Catalog
	store   GrantStore
	dir     OrgHierarchy
	logger  *slog.Logger
}

func NewService(catalog *Catalog, store GrantStore, dir OrgHierarchy, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalog,
		store:   store,
		dir:     dir,
		logger:  logger,
	}
}

// Catalog exposes the injected role catalog, used by handlers to validate
// request payloads.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Authorize reports whether the user may exercise perm at the given scope.
// A nil scope asks the unscoped question "can this user ever do perm": any
// active grant whose role carries the permission is enough. With a scope,
// access is an OR across all simultaneous grants — the first grant that
// both carries the permission and contains the scope wins.
//
// Grant store failures propagate; hierarchy lookup failures only make the
// affected containment path unresolvable (deny), never an error.
func (s *Service) Authorize(ctx context.Context, userID int64, perm Permission, scope *Scope) (bool, error) {
	grants, err := s.store.ListActiveGrants(ctx, userID)
	if err != nil {
		return false, err
	}

	cache := newOrgCache(s.dir, s.logger)
	for _, grant := range grants {
		if !s.catalog.RoleHasPermission(grant.Role, perm) {
			continue
		}
		if scope == nil {
			return true, nil
		}
		if cache.inScope(ctx, grant, *scope) {
			return true, nil
		}
	}

	s.logger.DebugContext(ctx, "authorization denied",
		"user_id", userID, "permission", perm, "grants", len(grants))
	return false, nil
}

// HasRoleOrHigher reports whether the user's most senior active grant is at
// least as high in the hierarchy as role. Scope is ignored on purpose: this
// answers a pure seniority question (UI gating), not a resource-access one.
func (s *Service) HasRoleOrHigher(ctx context.Context, userID int64, role Role) (bool, error) {
	grants, err := s.store.ListActiveGrants(ctx, userID)
	if err != nil {
		return false, err
	}

	required := s.catalog.LevelOf(role)
	for _, grant := range grants {
		if s.catalog.LevelOf(grant.Role) >= required {
			return true, nil
		}
	}
	return false, nil
}

// Grant upserts a role grant after validating that the role exists in the
// catalog and that the anchors are consistent with the scope type.
func (s *Service) Grant(ctx context.Context, req GrantRequest) (*Grant, error) {
	if !s.catalog.Knows(req.Role) {
		return nil, internal.NewValidationError("role is not in the catalog", internal.ErrCodeUnknownRole)
	}
	if err := ValidateAnchors(req.ScopeType, req.Anchors); err != nil {
		return nil, err
	}

	grant, err := s.store.Upsert(ctx, Grant{
		UserID:       req.UserID,
		Role:         req.Role,
		ScopeType:    req.ScopeType,
		FacultyID:    req.Anchors.FacultyID,
		DepartmentID: req.Anchors.DepartmentID,
		PromotionID:  req.Anchors.PromotionID,
		IsPrimary:    req.IsPrimary,
		GrantedBy:    req.GrantedBy,
		ExpiresAt:    req.ExpiresAt,
		IsActive:     true,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist grant",
			"error", err, "user_id", req.UserID, "role", req.Role)
		return nil, err
	}

	s.logger.InfoContext(ctx, "role granted",
		"user_id", req.UserID, "role", req.Role, "scope_type", req.ScopeType, "granted_by", req.GrantedBy)
	return grant, nil
}

// Revoke soft-deactivates matching grants. Revoking a grant that does not
// exist is not an error; the false return tells the caller nothing changed.
func (s *Service) Revoke(ctx context.Context, userID int64, role Role, anchors *Anchors) (bool, error) {
	if !s.catalog.Knows(role) {
		return false, internal.NewValidationError("role is not in the catalog", internal.ErrCodeUnknownRole)
	}

	revoked, err := s.store.Revoke(ctx, userID, role, anchors)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke grant",
			"error", err, "user_id", userID, "role", role)
		return false, err
	}

	if revoked {
		s.logger.InfoContext(ctx, "role revoked", "user_id", userID, "role", role)
	}
	return revoked, nil
}
