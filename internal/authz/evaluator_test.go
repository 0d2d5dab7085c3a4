package authz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// Mock grant store honoring the GrantStore contract: only active, unexpired
// grants of the requested user come back.
type mockGrantStore struct {
	grants  []Grant
	listErr error

	upserted  []Grant
	upsertErr error

	revokeResult bool
	revokeErr    error
	revokeCalls  int
}

func (m *mockGrantStore) ListActiveGrants(_ context.Context, userID int64) ([]Grant, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Grant
	for _, g := range m.grants {
		if g.UserID == userID && g.IsActive && !g.Expired(time.Now()) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGrantStore) Upsert(_ context.Context, grant Grant) (*Grant, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	grant.ID = int64(len(m.upserted) + 1)
	grant.GrantedAt = time.Now()
	m.upserted = append(m.upserted, grant)
	return &grant, nil
}

func (m *mockGrantStore) Revoke(_ context.Context, _ int64, _ Role, _ *Anchors) (bool, error) {
	m.revokeCalls++
	if m.revokeErr != nil {
		return false, m.revokeErr
	}
	return m.revokeResult, nil
}

// Mock containment tree:
//
//	faculty 1: departments 3, 4
//	faculty 2: department 9
//	department 3: promotions 40, 41
//	department 9: promotion 90
//	students: 501 in promotion 40, 502 in promotion 90
type mockHierarchy struct {
	deptFaculty  map[int64]int64
	promoDept    map[int64]int64
	studentPromo map[int64]int64
	err          error
	lookups      int
}

func newMockHierarchy() *mockHierarchy {
	return &mockHierarchy{
		deptFaculty:  map[int64]int64{3: 1, 4: 1, 9: 2},
		promoDept:    map[int64]int64{40: 3, 41: 3, 90: 9},
		studentPromo: map[int64]int64{501: 40, 502: 90},
	}
}

func (m *mockHierarchy) get(table map[int64]int64, id int64) (int64, error) {
	m.lookups++
	if m.err != nil {
		return 0, m.err
	}
	if parent, ok := table[id]; ok {
		return parent, nil
	}
	return 0, ErrNotFound
}

func (m *mockHierarchy) FacultyOfDepartment(_ context.Context, id int64) (int64, error) {
	return m.get(m.deptFaculty, id)
}

func (m *mockHierarchy) DepartmentOfPromotion(_ context.Context, id int64) (int64, error) {
	return m.get(m.promoDept, id)
}

func (m *mockHierarchy) PromotionOfStudent(_ context.Context, id int64) (int64, error) {
	return m.get(m.studentPromo, id)
}

func ptr(v int64) *int64 { return &v }

var _ = ginkgo.Describe("Service.Authorize", func() {
	var (
		ctx     context.Context
		store   *mockGrantStore
		tree    *mockHierarchy
		service *Service
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = &mockGrantStore{}
		tree = newMockHierarchy()
		service = NewService(DefaultCatalog(), store, tree, slog.Default())
	})

	activeGrant := func(userID int64, role Role, scopeType ScopeType, anchors Anchors) Grant {
		return Grant{
			UserID:       userID,
			Role:         role,
			ScopeType:    scopeType,
			FacultyID:    anchors.FacultyID,
			DepartmentID: anchors.DepartmentID,
			PromotionID:  anchors.PromotionID,
			IsActive:     true,
		}
	}

	ginkgo.Context("with no grants", func() {
		ginkgo.It("should deny without error", func() {
			allowed, err := service.Authorize(ctx, 7, PermViewStudents, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("when the grant store fails", func() {
		ginkgo.It("should propagate the error", func() {
			store.listErr = errors.New("connection reset")

			allowed, err := service.Authorize(ctx, 7, PermViewStudents, nil)
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("unscoped checks", func() {
		ginkgo.It("should allow when any grant carries the permission", func() {
			store.grants = []Grant{
				activeGrant(7, RoleJuryPresident, ScopePromotion, Anchors{PromotionID: ptr(40)}),
			}

			allowed, err := service.Authorize(ctx, 7, PermValidateDeliberations, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())
		})

		ginkgo.It("should deny when no grant's role carries the permission", func() {
			store.grants = []Grant{
				activeGrant(7, RoleStudent, ScopeUniversity, Anchors{}),
			}

			allowed, err := service.Authorize(ctx, 7, PermEditGrades, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("university-wide grants", func() {
		ginkgo.It("should allow any resolvable scope", func() {
			store.grants = []Grant{
				activeGrant(7, RoleRector, ScopeUniversity, Anchors{}),
			}

			for _, scope := range []*Scope{
				{FacultyID: ptr(2)},
				{DepartmentID: ptr(9)},
				{PromotionID: ptr(90)},
				{StudentID: ptr(502)},
				{},
			} {
				allowed, err := service.Authorize(ctx, 7, PermViewStudents, scope)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(allowed).To(gomega.BeTrue())
			}
		})
	})

	ginkgo.Context("faculty-scoped grants", func() {
		ginkgo.BeforeEach(func() {
			store.grants = []Grant{
				activeGrant(7, RoleDean, ScopeFaculty, Anchors{FacultyID: ptr(1)}),
			}
		})

		ginkgo.It("should allow departments inside the faculty", func() {
			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{DepartmentID: ptr(3)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())
		})

		ginkgo.It("should deny departments of another faculty", func() {
			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{DepartmentID: ptr(9)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should resolve students up through the whole tree", func() {
			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{StudentID: ptr(501)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())

			allowed, err = service.Authorize(ctx, 7, PermViewStudents, &Scope{StudentID: ptr(502)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should deny an empty scope", func() {
			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("department-scoped grants", func() {
		ginkgo.BeforeEach(func() {
			store.grants = []Grant{
				activeGrant(7, RoleDepartmentHead, ScopeDepartment, Anchors{DepartmentID: ptr(3)}),
			}
		})

		ginkgo.It("should allow course management inside the department", func() {
			allowed, err := service.Authorize(ctx, 7, PermManageCourses, &Scope{DepartmentID: ptr(3)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())
		})

		ginkgo.It("should deny course management in a sibling department", func() {
			allowed, err := service.Authorize(ctx, 7, PermManageCourses, &Scope{DepartmentID: ptr(9)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should contain the department's promotions and students", func() {
			allowed, err := service.Authorize(ctx, 7, PermViewGrades, &Scope{PromotionID: ptr(41)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())

			allowed, err = service.Authorize(ctx, 7, PermViewGrades, &Scope{StudentID: ptr(501)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())

			allowed, err = service.Authorize(ctx, 7, PermViewGrades, &Scope{PromotionID: ptr(90)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should deny a scope wider than the grant", func() {
			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{FacultyID: ptr(1)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("promotion-scoped grants", func() {
		ginkgo.BeforeEach(func() {
			store.grants = []Grant{
				activeGrant(7, RoleJuryPresident, ScopePromotion, Anchors{PromotionID: ptr(40)}),
			}
		})

		ginkgo.It("should allow deliberation validation for the promotion's students", func() {
			allowed, err := service.Authorize(ctx, 7, PermValidateDeliberations, &Scope{StudentID: ptr(501)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())
		})

		ginkgo.It("should deny students of other promotions", func() {
			allowed, err := service.Authorize(ctx, 7, PermValidateDeliberations, &Scope{StudentID: ptr(502)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("expiry and revocation", func() {
		ginkgo.It("should ignore expired grants", func() {
			yesterday := time.Now().Add(-24 * time.Hour)
			g := activeGrant(7, RoleRector, ScopeUniversity, Anchors{})
			g.ExpiresAt = &yesterday
			store.grants = []Grant{g}

			allowed, err := service.Authorize(ctx, 7, PermViewStudents, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should ignore revoked grants", func() {
			g := activeGrant(7, RoleRector, ScopeUniversity, Anchors{})
			g.IsActive = false
			store.grants = []Grant{g}

			allowed, err := service.Authorize(ctx, 7, PermViewStudents, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("with several simultaneous grants", func() {
		ginkgo.It("should allow when any one grant suffices", func() {
			store.grants = []Grant{
				activeGrant(7, RoleLecturer, ScopeDepartment, Anchors{DepartmentID: ptr(9)}),
				activeGrant(7, RoleJurySecretary, ScopePromotion, Anchors{PromotionID: ptr(40)}),
			}

			allowed, err := service.Authorize(ctx, 7, PermEditGrades, &Scope{StudentID: ptr(501)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())
		})

		ginkgo.It("should not mix one grant's permission with another's scope", func() {
			// Cashier can record payments but has no student visibility;
			// the student-role grant covers the scope but not the permission.
			store.grants = []Grant{
				activeGrant(7, RoleCashier, ScopeUniversity, Anchors{}),
				activeGrant(7, RoleStudent, ScopePromotion, Anchors{PromotionID: ptr(40)}),
			}

			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{StudentID: ptr(501)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("when hierarchy lookups fail", func() {
		ginkgo.It("should deny instead of erroring", func() {
			store.grants = []Grant{
				activeGrant(7, RoleDean, ScopeFaculty, Anchors{FacultyID: ptr(1)}),
			}
			tree.err = errors.New("directory unavailable")

			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{DepartmentID: ptr(3)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should deny scopes referencing unknown units", func() {
			store.grants = []Grant{
				activeGrant(7, RoleDean, ScopeFaculty, Anchors{FacultyID: ptr(1)}),
			}

			allowed, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{DepartmentID: ptr(999)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.It("should memoize hierarchy lookups within a single call", func() {
		store.grants = []Grant{
			activeGrant(7, RoleFacultySecretary, ScopeFaculty, Anchors{FacultyID: ptr(2)}),
			activeGrant(7, RoleDean, ScopeFaculty, Anchors{FacultyID: ptr(1)}),
		}

		_, err := service.Authorize(ctx, 7, PermViewStudents, &Scope{DepartmentID: ptr(3)})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		// Two faculty grants against the same department scope need one
		// faculty_of_department lookup, not two.
		gomega.Expect(tree.lookups).To(gomega.Equal(1))
	})
})

var _ = ginkgo.Describe("Service.HasRoleOrHigher", func() {
	var (
		ctx     context.Context
		store   *mockGrantStore
		service *Service
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = &mockGrantStore{}
		service = NewService(DefaultCatalog(), store, newMockHierarchy(), slog.Default())
	})

	ginkgo.It("should compare against the most senior active grant", func() {
		store.grants = []Grant{
			{UserID: 7, Role: RoleStudent, ScopeType: ScopeUniversity, IsActive: true},
			{UserID: 7, Role: RoleDean, ScopeType: ScopeFaculty, FacultyID: ptr(1), IsActive: true},
		}

		ok, err := service.HasRoleOrHigher(ctx, 7, RoleDepartmentHead)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ok).To(gomega.BeTrue())

		ok, err = service.HasRoleOrHigher(ctx, 7, RoleRector)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ok).To(gomega.BeFalse())
	})

	ginkgo.It("should treat equal levels as sufficient", func() {
		store.grants = []Grant{
			{UserID: 7, Role: RoleDean, ScopeType: ScopeFaculty, FacultyID: ptr(1), IsActive: true},
		}

		ok, err := service.HasRoleOrHigher(ctx, 7, RoleDean)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ok).To(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("Service grant lifecycle", func() {
	var (
		ctx     context.Context
		store   *mockGrantStore
		service *Service
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = &mockGrantStore{}
		service = NewService(DefaultCatalog(), store, newMockHierarchy(), slog.Default())
	})

	ginkgo.Describe("Grant", func() {
		ginkgo.It("should persist a valid request as an active grant", func() {
			grant, err := service.Grant(ctx, GrantRequest{
				UserID:    7,
				Role:      RoleDepartmentHead,
				ScopeType: ScopeDepartment,
				Anchors:   Anchors{DepartmentID: ptr(3)},
				GrantedBy: 1,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(grant.IsActive).To(gomega.BeTrue())
			gomega.Expect(store.upserted).To(gomega.HaveLen(1))
			gomega.Expect(store.upserted[0].Role).To(gomega.Equal(RoleDepartmentHead))
		})

		ginkgo.It("should reject roles outside the catalog", func() {
			_, err := service.Grant(ctx, GrantRequest{
				UserID:    7,
				Role:      Role("archchancellor"),
				ScopeType: ScopeUniversity,
				GrantedBy: 1,
			})

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(store.upserted).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject anchors inconsistent with the scope type", func() {
			_, err := service.Grant(ctx, GrantRequest{
				UserID:    7,
				Role:      RoleDean,
				ScopeType: ScopeFaculty,
				Anchors:   Anchors{DepartmentID: ptr(3)},
				GrantedBy: 1,
			})

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(store.upserted).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Revoke", func() {
		ginkgo.It("should report whether anything changed", func() {
			store.revokeResult = true
			revoked, err := service.Revoke(ctx, 7, RoleDean, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(revoked).To(gomega.BeTrue())

			store.revokeResult = false
			revoked, err = service.Revoke(ctx, 7, RoleDean, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(revoked).To(gomega.BeFalse())
		})

		ginkgo.It("should reject roles outside the catalog without touching the store", func() {
			_, err := service.Revoke(ctx, 7, Role("archchancellor"), nil)
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(store.revokeCalls).To(gomega.BeZero())
		})
	})
})
