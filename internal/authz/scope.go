package authz

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotFound is returned by OrgHierarchy implementations when the referenced
// unit does not exist. The resolver treats it (and any other lookup error)
// as "does not resolve": the affected path contributes a deny, never an
// aborted evaluation.
var ErrNotFound = errors.New("authz: org unit not found")

// OrgHierarchy resolves parent-of relationships in the containment tree. It
// is owned by the directory layer; the engine only reads through it.
type OrgHierarchy interface {
	FacultyOfDepartment(ctx context.Context, departmentID int64) (int64, error)
	DepartmentOfPromotion(ctx context.Context, promotionID int64) (int64, error)
	PromotionOfStudent(ctx context.Context, studentID int64) (int64, error)
}

// Scope describes the organizational position of whatever is being accessed.
// All fields are optional; a nil field means "not checkable via this path",
// never "skip the check". An empty Scope resolves to nothing and therefore
// denies every non-university grant.
type Scope struct {
	FacultyID    *int64
	DepartmentID *int64
	PromotionID  *int64
	StudentID    *int64
}

// orgCache memoizes hierarchy lookups for the duration of a single evaluator
// call. Grant or hierarchy state may change between calls, so a cache never
// outlives the call that created it. Failed lookups are memoized too: a
// department that did not resolve once will not resolve for the next grant
// in the same loop either.
type orgCache struct {
	dir    OrgHierarchy
	logger *slog.Logger

	deptFaculty   map[int64]*int64
	promoDept     map[int64]*int64
	studentPromos map[int64]*int64
}

func newOrgCache(dir OrgHierarchy, logger *slog.Logger) *orgCache {
	return &orgCache{
		dir:           dir,
		logger:        logger,
		deptFaculty:   make(map[int64]*int64),
		promoDept:     make(map[int64]*int64),
		studentPromos: make(map[int64]*int64),
	}
}

func (c *orgCache) facultyOfDepartment(ctx context.Context, departmentID int64) *int64 {
	if cached, ok := c.deptFaculty[departmentID]; ok {
		return cached
	}
	result := c.lookup(ctx, "faculty_of_department", departmentID, c.dir.FacultyOfDepartment)
	c.deptFaculty[departmentID] = result
	return result
}

func (c *orgCache) departmentOfPromotion(ctx context.Context, promotionID int64) *int64 {
	if cached, ok := c.promoDept[promotionID]; ok {
		return cached
	}
	result := c.lookup(ctx, "department_of_promotion", promotionID, c.dir.DepartmentOfPromotion)
	c.promoDept[promotionID] = result
	return result
}

func (c *orgCache) promotionOfStudent(ctx context.Context, studentID int64) *int64 {
	if cached, ok := c.studentPromos[studentID]; ok {
		return cached
	}
	result := c.lookup(ctx, "promotion_of_student", studentID, c.dir.PromotionOfStudent)
	c.studentPromos[studentID] = result
	return result
}

// lookup wraps a single hierarchy read. Any error, transient or not, makes
// the path unresolvable: authorization fails closed on a dependency hiccup
// instead of surfacing an error that upstream code might mishandle as allow.
func (c *orgCache) lookup(ctx context.Context, name string, id int64, fn func(context.Context, int64) (int64, error)) *int64 {
	parent, err := fn(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.WarnContext(ctx, "hierarchy lookup failed, treating path as unresolvable",
				"lookup", name, "id", id, "error", err)
		}
		return nil
	}
	return &parent
}

// resolveFaculty walks the scope down to a faculty id, trying the cheapest
// path first. The first path that resolves wins.
func (c *orgCache) resolveFaculty(ctx context.Context, scope Scope) *int64 {
	if scope.FacultyID != nil {
		return scope.FacultyID
	}
	if scope.DepartmentID != nil {
		if faculty := c.facultyOfDepartment(ctx, *scope.DepartmentID); faculty != nil {
			return faculty
		}
	}
	if scope.PromotionID != nil {
		if dept := c.departmentOfPromotion(ctx, *scope.PromotionID); dept != nil {
			if faculty := c.facultyOfDepartment(ctx, *dept); faculty != nil {
				return faculty
			}
		}
	}
	if scope.StudentID != nil {
		if promo := c.promotionOfStudent(ctx, *scope.StudentID); promo != nil {
			if dept := c.departmentOfPromotion(ctx, *promo); dept != nil {
				return c.facultyOfDepartment(ctx, *dept)
			}
		}
	}
	return nil
}

func (c *orgCache) resolveDepartment(ctx context.Context, scope Scope) *int64 {
	if scope.DepartmentID != nil {
		return scope.DepartmentID
	}
	if scope.PromotionID != nil {
		if dept := c.departmentOfPromotion(ctx, *scope.PromotionID); dept != nil {
			return dept
		}
	}
	if scope.StudentID != nil {
		if promo := c.promotionOfStudent(ctx, *scope.StudentID); promo != nil {
			return c.departmentOfPromotion(ctx, *promo)
		}
	}
	return nil
}

func (c *orgCache) resolvePromotion(ctx context.Context, scope Scope) *int64 {
	if scope.PromotionID != nil {
		return scope.PromotionID
	}
	if scope.StudentID != nil {
		return c.promotionOfStudent(ctx, *scope.StudentID)
	}
	return nil
}

// inScope decides whether the requested scope falls inside the grant's
// anchor. A scope with no resolvable position is in no scope but the
// university-wide one: the default is deny.
func (c *orgCache) inScope(ctx context.Context, grant Grant, scope Scope) bool {
	switch grant.ScopeType {
	case ScopeUniversity:
		return true
	case ScopeFaculty:
		faculty := c.resolveFaculty(ctx, scope)
		return faculty != nil && grant.FacultyID != nil && *faculty == *grant.FacultyID
	case ScopeDepartment:
		dept := c.resolveDepartment(ctx, scope)
		return dept != nil && grant.DepartmentID != nil && *dept == *grant.DepartmentID
	case ScopePromotion:
		promo := c.resolvePromotion(ctx, scope)
		return promo != nil && grant.PromotionID != nil && *promo == *grant.PromotionID
	default:
		return false
	}
}
