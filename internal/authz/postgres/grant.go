package postgres

import (
	"context"
	"time"

	"github.com/mkalenga/unigest/internal/authz"
	"gorm.io/gorm"
)

// GrantRepository implements authz.GrantStore using GORM.
type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) authz.GrantStore {
	return &GrantRepository{db: db}
}

type grantModel struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	UserID       int64      `gorm:"column:user_id"`
	Role         string     `gorm:"column:role"`
	ScopeType    string     `gorm:"column:scope_type"`
	FacultyID    *int64     `gorm:"column:faculty_id"`
	DepartmentID *int64     `gorm:"column:department_id"`
	PromotionID  *int64     `gorm:"column:promotion_id"`
	IsPrimary    bool       `gorm:"column:is_primary"`
	GrantedBy    int64      `gorm:"column:granted_by"`
	GrantedAt    time.Time  `gorm:"column:granted_at"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	IsActive     bool       `gorm:"column:is_active"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (grantModel) TableName() string {
	return "user_role_grants"
}

func (m grantModel) toDomain() authz.Grant {
	return authz.Grant{
		ID:           m.ID,
		UserID:       m.UserID,
		Role:         authz.Role(m.Role),
		ScopeType:    authz.ScopeType(m.ScopeType),
		FacultyID:    m.FacultyID,
		DepartmentID: m.DepartmentID,
		PromotionID:  m.PromotionID,
		IsPrimary:    m.IsPrimary,
		GrantedBy:    m.GrantedBy,
		GrantedAt:    m.GrantedAt,
		ExpiresAt:    m.ExpiresAt,
		IsActive:     m.IsActive,
	}
}

// ListActiveGrants returns active, unexpired grants for the user. Expiry is
// evaluated at query time; an expired grant needs no revoke to stop
// counting.
func (r *GrantRepository) ListActiveGrants(ctx context.Context, userID int64) ([]authz.Grant, error) {
	var models []grantModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("granted_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	grants := make([]authz.Grant, len(models))
	for i, m := range models {
		grants[i] = m.toDomain()
	}
	return grants, nil
}

// upsertQuery relies on the partial unique index over
// (user_id, role, COALESCE(faculty_id, 0), COALESCE(department_id, 0))
// WHERE is_active: two concurrent grants of the same combination collapse
// into one row, with the second call updating metadata only.
const upsertQuery = `
INSERT INTO user_role_grants
	(user_id, role, scope_type, faculty_id, department_id, promotion_id,
	 is_primary, granted_by, granted_at, expires_at, is_active, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?)
ON CONFLICT (user_id, role, COALESCE(faculty_id, 0), COALESCE(department_id, 0)) WHERE is_active
DO UPDATE SET
	scope_type   = EXCLUDED.scope_type,
	promotion_id = EXCLUDED.promotion_id,
	is_primary   = EXCLUDED.is_primary,
	granted_by   = EXCLUDED.granted_by,
	expires_at   = EXCLUDED.expires_at,
	updated_at   = EXCLUDED.updated_at
RETURNING id, user_id, role, scope_type, faculty_id, department_id, promotion_id,
	is_primary, granted_by, granted_at, expires_at, is_active, updated_at`

func (r *GrantRepository) Upsert(ctx context.Context, grant authz.Grant) (*authz.Grant, error) {
	now := time.Now()

	var model grantModel
	err := r.db.WithContext(ctx).Raw(upsertQuery,
		grant.UserID,
		string(grant.Role),
		string(grant.ScopeType),
		grant.FacultyID,
		grant.DepartmentID,
		grant.PromotionID,
		grant.IsPrimary,
		grant.GrantedBy,
		now,
		grant.ExpiresAt,
		now,
	).Scan(&model).Error
	if err != nil {
		return nil, err
	}

	result := model.toDomain()
	return &result, nil
}

// Revoke flips is_active off for every matching active grant. Grants are
// never hard-deleted; the row stays behind as the audit trail.
func (r *GrantRepository) Revoke(ctx context.Context, userID int64, role authz.Role, anchors *authz.Anchors) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&grantModel{}).
		Where("user_id = ? AND role = ? AND is_active = ?", userID, string(role), true)

	if anchors != nil {
		if anchors.FacultyID != nil {
			tx = tx.Where("faculty_id = ?", *anchors.FacultyID)
		}
		if anchors.DepartmentID != nil {
			tx = tx.Where("department_id = ?", *anchors.DepartmentID)
		}
		if anchors.PromotionID != nil {
			tx = tx.Where("promotion_id = ?", *anchors.PromotionID)
		}
	}

	result := tx.Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
