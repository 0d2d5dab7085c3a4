package authz

import (
	"time"

	"github.com/mkalenga/unigest/internal"
)

// GrantDTO is the transport shape for grant requests.
type GrantDTO struct {
	UserID       int64      `json:"user_id"`
	Role         string     `json:"role"`
	ScopeType    string     `json:"scope_type"`
	FacultyID    *int64     `json:"faculty_id,omitempty"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	PromotionID  *int64     `json:"promotion_id,omitempty"`
	IsPrimary    bool       `json:"is_primary"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func (d GrantDTO) Validate() error {
	if d.UserID <= 0 {
		return internal.NewValidationFieldError("user_id", "user_id is required", internal.ErrCodeValidationFailed)
	}
	if d.Role == "" {
		return internal.NewValidationFieldError("role", "role is required", internal.ErrCodeValidationFailed)
	}
	if d.ScopeType == "" {
		return internal.NewValidationFieldError("scope_type", "scope_type is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ToRequest converts the DTO into the engine's grant request, stamping the
// granting actor.
func (d GrantDTO) ToRequest(grantedBy int64) GrantRequest {
	return GrantRequest{
		UserID:    d.UserID,
		Role:      Role(d.Role),
		ScopeType: ScopeType(d.ScopeType),
		Anchors: Anchors{
			FacultyID:    d.FacultyID,
			DepartmentID: d.DepartmentID,
			PromotionID:  d.PromotionID,
		},
		IsPrimary: d.IsPrimary,
		GrantedBy: grantedBy,
		ExpiresAt: d.ExpiresAt,
	}
}

// RevokeDTO is the transport shape for revoke requests. Anchors are
// optional: omitting them revokes every grant of the role for the user.
type RevokeDTO struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	FacultyID    *int64 `json:"faculty_id,omitempty"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	PromotionID  *int64 `json:"promotion_id,omitempty"`
}

func (d RevokeDTO) Validate() error {
	if d.UserID <= 0 {
		return internal.NewValidationFieldError("user_id", "user_id is required", internal.ErrCodeValidationFailed)
	}
	if d.Role == "" {
		return internal.NewValidationFieldError("role", "role is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// AnchorsOrNil returns the narrowing anchors, or nil when none were given.
func (d RevokeDTO) AnchorsOrNil() *Anchors {
	if d.FacultyID == nil && d.DepartmentID == nil && d.PromotionID == nil {
		return nil
	}
	return &Anchors{
		FacultyID:    d.FacultyID,
		DepartmentID: d.DepartmentID,
		PromotionID:  d.PromotionID,
	}
}

// RevokeResponse tells the caller whether anything actually changed.
type RevokeResponse struct {
	Revoked bool `json:"revoked"`
}
