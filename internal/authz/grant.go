package authz

import (
	"context"
	"time"

	"github.com/mkalenga/unigest/internal"
)

// ScopeType says at which level of the containment hierarchy a grant is
// anchored: university ⊃ faculty ⊃ department ⊃ promotion.
type ScopeType string

const (
	ScopeUniversity ScopeType = "UNIVERSITY"
	ScopeFaculty    ScopeType = "FACULTY"
	ScopeDepartment ScopeType = "DEPARTMENT"
	ScopePromotion  ScopeType = "PROMOTION"
)

// Anchors pins a grant's authority to specific organizational units. Fields
// that do not apply to the grant's scope type stay nil.
type Anchors struct {
	FacultyID    *int64 `json:"faculty_id,omitempty"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	PromotionID  *int64 `json:"promotion_id,omitempty"`
}

// Grant binds a user to a role within an organizational scope, optionally
// time-limited. Grants are soft-revoked, never hard-deleted: granted_by and
// granted_at form the audit trail.
type Grant struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Role         Role       `json:"role"`
	ScopeType    ScopeType  `json:"scope_type"`
	FacultyID    *int64     `json:"faculty_id,omitempty"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	PromotionID  *int64     `json:"promotion_id,omitempty"`
	IsPrimary    bool       `json:"is_primary"`
	GrantedBy    int64      `json:"granted_by"`
	GrantedAt    time.Time  `json:"granted_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	IsActive     bool       `json:"is_active"`
}

// Anchors returns the grant's anchor fields as a value.
func (g Grant) Anchors() Anchors {
	return Anchors{
		FacultyID:    g.FacultyID,
		DepartmentID: g.DepartmentID,
		PromotionID:  g.PromotionID,
	}
}

// Expired reports whether the grant's validity window has passed at now.
// Expired grants behave exactly like revoked ones without requiring a
// mutation.
func (g Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// GrantRequest is the input to the grant operation.
type GrantRequest struct {
	UserID    int64
	Role      Role
	ScopeType ScopeType
	Anchors   Anchors
	IsPrimary bool
	GrantedBy int64
	ExpiresAt *time.Time
}

// GrantStore persists grants. Implementations must keep at most one active
// row per (user, role, faculty anchor, department anchor) tuple, and the
// upsert must be atomic under concurrent calls (unique constraint plus
// conflict resolution, not application-level locking).
type GrantStore interface {
	// ListActiveGrants returns the user's grants that are active and not
	// expired, evaluated at call time. No caching across calls: a revoke
	// must be visible to the very next authorization check.
	ListActiveGrants(ctx context.Context, userID int64) ([]Grant, error)

	// Upsert inserts the grant, or reactivates/updates the metadata of an
	// existing active row for the same (user, role, anchors) combination.
	Upsert(ctx context.Context, grant Grant) (*Grant, error)

	// Revoke soft-deactivates all matching active grants. A nil anchors
	// revokes every grant of that role for the user; non-nil anchor fields
	// narrow the match. Reports whether at least one row changed.
	Revoke(ctx context.Context, userID int64, role Role, anchors *Anchors) (bool, error)
}

// ValidateAnchors checks that the non-nil anchor fields match the scope
// type exactly. A university-wide grant carries no anchors,
// a faculty grant carries only a faculty id, and so on.
func ValidateAnchors(scopeType ScopeType, anchors Anchors) error {
	switch scopeType {
	case ScopeUniversity:
		if anchors.FacultyID != nil || anchors.DepartmentID != nil || anchors.PromotionID != nil {
			return internal.NewValidationError("university-wide grants must not carry scope anchors", internal.ErrCodeScopeAnchorMismatch)
		}
	case ScopeFaculty:
		if anchors.FacultyID == nil {
			return internal.NewValidationError("faculty-scoped grants require a faculty id", internal.ErrCodeScopeAnchorMismatch)
		}
		if anchors.DepartmentID != nil || anchors.PromotionID != nil {
			return internal.NewValidationError("faculty-scoped grants must not carry department or promotion anchors", internal.ErrCodeScopeAnchorMismatch)
		}
	case ScopeDepartment:
		if anchors.DepartmentID == nil {
			return internal.NewValidationError("department-scoped grants require a department id", internal.ErrCodeScopeAnchorMismatch)
		}
		if anchors.PromotionID != nil {
			return internal.NewValidationError("department-scoped grants must not carry a promotion anchor", internal.ErrCodeScopeAnchorMismatch)
		}
	case ScopePromotion:
		if anchors.PromotionID == nil {
			return internal.NewValidationError("promotion-scoped grants require a promotion id", internal.ErrCodeScopeAnchorMismatch)
		}
	default:
		return internal.NewValidationError("unknown scope type", internal.ErrCodeUnknownScopeType)
	}
	return nil
}
