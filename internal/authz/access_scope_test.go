package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Service.AccessScope", func() {
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

	ginkgo.It("should short-circuit on a university-wide grant", func() {
		store.grants = []Grant{
			{UserID: 7, Role: RoleDean, ScopeType: ScopeFaculty, FacultyID: ptr(1), IsActive: true},
			{UserID: 7, Role: RoleRector, ScopeType: ScopeUniversity, IsActive: true},
		}

		scope, err := service.AccessScope(ctx, 7)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(scope.UniversityWide).To(gomega.BeTrue())
		gomega.Expect(scope.Faculties).To(gomega.BeEmpty())
	})

	ginkgo.It("should union anchors across grants, deduplicated and sorted", func() {
		store.grants = []Grant{
			{UserID: 7, Role: RoleDean, ScopeType: ScopeFaculty, FacultyID: ptr(2), IsActive: true},
			{UserID: 7, Role: RoleDepartmentHead, ScopeType: ScopeDepartment, DepartmentID: ptr(9), IsActive: true},
			{UserID: 7, Role: RoleLecturer, ScopeType: ScopeDepartment, DepartmentID: ptr(3), IsActive: true},
			{UserID: 7, Role: RoleJuryMember, ScopeType: ScopeDepartment, DepartmentID: ptr(3), IsActive: true},
			{UserID: 7, Role: RoleJuryPresident, ScopeType: ScopePromotion, PromotionID: ptr(40), IsActive: true},
		}

		scope, err := service.AccessScope(ctx, 7)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(scope.UniversityWide).To(gomega.BeFalse())
		gomega.Expect(scope.Faculties).To(gomega.Equal([]int64{2}))
		gomega.Expect(scope.Departments).To(gomega.Equal([]int64{3, 9}))
		gomega.Expect(scope.Promotions).To(gomega.Equal([]int64{40}))
	})

	ginkgo.It("should return an empty scope for a user with no grants", func() {
		scope, err := service.AccessScope(ctx, 7)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(scope.UniversityWide).To(gomega.BeFalse())
		gomega.Expect(scope.Faculties).To(gomega.BeEmpty())
		gomega.Expect(scope.Departments).To(gomega.BeEmpty())
		gomega.Expect(scope.Promotions).To(gomega.BeEmpty())
	})

	ginkgo.It("should propagate store errors", func() {
		store.listErr = errors.New("connection reset")
		_, err := service.AccessScope(ctx, 7)
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})

var _ = ginkgo.Describe("CompileFilter", func() {
	columns := FilterColumns{
		Faculty:    "d.faculty_id",
		Department: "p.department_id",
		Promotion:  "s.promotion_id",
	}

	ginkgo.It("should compile university-wide access to match-all", func() {
		filter := CompileFilter(AccessScope{UniversityWide: true}, columns)
		gomega.Expect(filter.Kind).To(gomega.Equal(MatchAll))
	})

	ginkgo.It("should compile an empty scope to an explicit match-none", func() {
		filter := CompileFilter(AccessScope{}, columns)
		gomega.Expect(filter.Kind).To(gomega.Equal(MatchNone))
	})

	ginkgo.It("should build one membership test per populated dimension", func() {
		filter := CompileFilter(AccessScope{
			Departments: []int64{3, 9},
			Promotions:  []int64{40},
		}, columns)

		gomega.Expect(filter.Kind).To(gomega.Equal(MatchAny))
		gomega.Expect(filter.Conditions).To(gomega.Equal([]Condition{
			{Column: "p.department_id", IDs: []int64{3, 9}},
			{Column: "s.promotion_id", IDs: []int64{40}},
		}))
	})

	ginkgo.It("should drop dimensions the caller's table cannot express", func() {
		partial := FilterColumns{Promotion: "promotion_id"}

		filter := CompileFilter(AccessScope{
			Faculties:  []int64{1},
			Promotions: []int64{40},
		}, partial)

		gomega.Expect(filter.Kind).To(gomega.Equal(MatchAny))
		gomega.Expect(filter.Conditions).To(gomega.Equal([]Condition{
			{Column: "promotion_id", IDs: []int64{40}},
		}))
	})

	ginkgo.It("should narrow to match-none when no dimension is expressible", func() {
		filter := CompileFilter(AccessScope{Faculties: []int64{1}}, FilterColumns{Promotion: "promotion_id"})
		gomega.Expect(filter.Kind).To(gomega.Equal(MatchNone))
	})
})

var _ = ginkgo.Describe("Filter.SQL", func() {
	ginkgo.It("should render match-all and match-none as constant predicates", func() {
		clause, args := Filter{Kind: MatchAll}.SQL()
		gomega.Expect(clause).To(gomega.Equal("1=1"))
		gomega.Expect(args).To(gomega.BeEmpty())

		clause, args = Filter{Kind: MatchNone}.SQL()
		gomega.Expect(clause).To(gomega.Equal("1=0"))
		gomega.Expect(args).To(gomega.BeEmpty())
	})

	ginkgo.It("should render membership tests as an OR chain for sqlx.In", func() {
		filter := Filter{
			Kind: MatchAny,
			Conditions: []Condition{
				{Column: "p.department_id", IDs: []int64{3, 9}},
				{Column: "s.promotion_id", IDs: []int64{40}},
			},
		}

		clause, args := filter.SQL()
		gomega.Expect(clause).To(gomega.Equal("(p.department_id IN (?) OR s.promotion_id IN (?))"))
		gomega.Expect(args).To(gomega.HaveLen(2))
		gomega.Expect(args[0]).To(gomega.Equal([]int64{3, 9}))
		gomega.Expect(args[1]).To(gomega.Equal([]int64{40}))
	})
})

var _ = ginkgo.Describe("Service.BuildFilter", func() {
	var (
		ctx     context.Context
		store   *mockGrantStore
		service *Service
	)

	columns := FilterColumns{
		Faculty:    "d.faculty_id",
		Department: "p.department_id",
		Promotion:  "s.promotion_id",
	}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = &mockGrantStore{}
		service = NewService(DefaultCatalog(), store, newMockHierarchy(), slog.Default())
	})

	ginkgo.It("should compile grants straight into a predicate", func() {
		store.grants = []Grant{
			{UserID: 7, Role: RoleDepartmentHead, ScopeType: ScopeDepartment, DepartmentID: ptr(3), IsActive: true},
		}

		filter, err := service.BuildFilter(ctx, 7, columns)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(filter.Kind).To(gomega.Equal(MatchAny))

		clause, args := filter.SQL()
		gomega.Expect(clause).To(gomega.Equal("(p.department_id IN (?))"))
		gomega.Expect(args).To(gomega.HaveLen(1))
	})

	ginkgo.It("should deny-all for users with no reachable scope", func() {
		filter, err := service.BuildFilter(ctx, 7, columns)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(filter.Kind).To(gomega.Equal(MatchNone))
	})
})
