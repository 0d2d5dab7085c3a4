package authz

import "fmt"

// Role identifies an organizational function within the university. The set
// of roles is closed: it is defined here and never created or destroyed at
// runtime.
type Role string

const (
	RoleRector               Role = "rector"
	RoleViceRectorAcademic   Role = "vice_rector_academic"
	RoleViceRectorAdmin      Role = "vice_rector_admin"
	RoleSecGeneralAcademic   Role = "secretary_general_academic"
	RoleSecGeneralAdmin      Role = "secretary_general_admin"
	RoleDean                 Role = "dean"
	RoleViceDean             Role = "vice_dean"
	RoleFacultySecretary     Role = "faculty_secretary"
	RoleDepartmentHead       Role = "department_head"
	RoleDeputyDepartmentHead Role = "deputy_department_head"
	RoleJuryPresident        Role = "jury_president"
	RoleJurySecretary        Role = "jury_secretary"
	RoleJuryMember           Role = "jury_member"
	RoleOrdinaryProfessor    Role = "ordinary_professor"
	RoleAssociateProfessor   Role = "associate_professor"
	RoleLecturer             Role = "lecturer"
	RoleAssistant            Role = "assistant"
	RoleRegistryHead         Role = "registry_head"
	RoleRegistryEmployee     Role = "registry_employee"
	RoleFinanceOfficer       Role = "finance_officer"
	RoleAccountant           Role = "accountant"
	RoleCashier              Role = "cashier"
	RoleHROfficer            Role = "hr_officer"
	RoleLibrarian            Role = "librarian"
	RoleCohortDelegate       Role = "cohort_delegate"
	RoleStudent              Role = "student"
)

// Permission identifies a capability a role can exercise. Like roles, the
// permission catalog is closed.
type Permission string

const (
	PermViewDashboard         Permission = "view_dashboard"
	PermViewStudents          Permission = "view_students"
	PermManageStudents        Permission = "manage_students"
	PermViewGrades            Permission = "view_grades"
	PermEditGrades            Permission = "edit_grades"
	PermValidateDeliberations Permission = "validate_deliberations"
	PermManageCourses         Permission = "manage_courses"
	PermManageEvaluations     Permission = "manage_evaluations"
	PermManageSurveys         Permission = "manage_surveys"
	PermViewReports           Permission = "view_reports"
	PermManageFinances        Permission = "manage_finances"
	PermRecordPayments        Permission = "record_payments"
	PermViewPayments          Permission = "view_payments"
	PermManageScholarships    Permission = "manage_scholarships"
	PermManageUsers           Permission = "manage_users"
	PermManageRoles           Permission = "manage_roles"
	PermManageFaculties       Permission = "manage_faculties"
	PermManageDepartments     Permission = "manage_departments"
	PermManagePromotions      Permission = "manage_promotions"
)

// RoleDefinition describes one catalog entry: the role's hierarchy level
// (higher = more authority, used only for "role X or higher" comparisons)
// and the permissions it carries.
type RoleDefinition struct {
	Level       int
	Permissions []Permission
}

// Catalog is the injected role/permission table. It is built once at process
// start and treated as immutable afterwards; lookups for roles outside the
// catalog panic because they indicate a programming error, not a runtime
// condition.
type Catalog struct {
	roles map[Role]RoleDefinition
	perms map[Permission]struct{}
}

// NewCatalog builds a catalog from explicit definitions. Tests use this to
// construct small synthetic catalogs.
func NewCatalog(defs map[Role]RoleDefinition) *Catalog {
	c := &Catalog{
		roles: make(map[Role]RoleDefinition, len(defs)),
		perms: make(map[Permission]struct{}),
	}
	for role, def := range defs {
		c.roles[role] = def
		for _, p := range def.Permissions {
			c.perms[p] = struct{}{}
		}
	}
	return c
}

// PermissionsOf returns the permission set granted by role. Panics if the
// role is not in the catalog.
func (c *Catalog) PermissionsOf(role Role) []Permission {
	return c.mustGet(role).Permissions
}

// LevelOf returns the hierarchy level of role. Panics if the role is not in
// the catalog.
func (c *Catalog) LevelOf(role Role) int {
	return c.mustGet(role).Level
}

// RoleHasPermission reports whether role carries perm. Panics if the role is
// not in the catalog.
func (c *Catalog) RoleHasPermission(role Role, perm Permission) bool {
	for _, p := range c.mustGet(role).Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Knows reports whether role is part of the catalog. Grant requests use this
// to reject unknown roles with a validation error instead of panicking.
func (c *Catalog) Knows(role Role) bool {
	_, ok := c.roles[role]
	return ok
}

// KnowsPermission reports whether perm is granted by at least one role.
func (c *Catalog) KnowsPermission(perm Permission) bool {
	_, ok := c.perms[perm]
	return ok
}

// Roles returns every role in the catalog, in unspecified order.
func (c *Catalog) Roles() []Role {
	roles := make([]Role, 0, len(c.roles))
	for role := range c.roles {
		roles = append(roles, role)
	}
	return roles
}

func (c *Catalog) mustGet(role Role) RoleDefinition {
	def, ok := c.roles[role]
	if !ok {
		panic(fmt.Sprintf("authz: role %q is not in the catalog", role))
	}
	return def
}

// DefaultCatalog returns the full university role catalog. Wired once in the
// server command and injected into the authorization service.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[Role]RoleDefinition{
		RoleRector: {Level: 100, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermManageStudents, PermViewGrades,
			PermEditGrades, PermValidateDeliberations, PermManageCourses, PermManageEvaluations,
			PermManageSurveys, PermViewReports, PermManageFinances, PermViewPayments,
			PermManageScholarships, PermManageUsers, PermManageRoles, PermManageFaculties,
			PermManageDepartments, PermManagePromotions,
		}},
		RoleViceRectorAcademic: {Level: 95, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermValidateDeliberations,
			PermManageCourses, PermManageEvaluations, PermViewReports, PermManageFaculties,
			PermManageDepartments, PermManagePromotions,
		}},
		RoleViceRectorAdmin: {Level: 95, Permissions: []Permission{
			PermViewDashboard, PermViewReports, PermManageFinances, PermViewPayments,
			PermManageScholarships, PermManageUsers,
		}},
		RoleSecGeneralAcademic: {Level: 90, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermManageCourses,
			PermManageEvaluations, PermViewReports, PermManagePromotions,
		}},
		RoleSecGeneralAdmin: {Level: 90, Permissions: []Permission{
			PermViewDashboard, PermViewReports, PermManageFinances, PermViewPayments,
			PermManageUsers,
		}},
		RoleDean: {Level: 80, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermManageStudents, PermViewGrades,
			PermEditGrades, PermValidateDeliberations, PermManageCourses, PermManageEvaluations,
			PermViewReports, PermManageDepartments, PermManagePromotions,
		}},
		RoleViceDean: {Level: 75, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermManageCourses,
			PermManageEvaluations, PermViewReports, PermManagePromotions,
		}},
		RoleFacultySecretary: {Level: 70, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermViewReports,
		}},
		RoleDepartmentHead: {Level: 65, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermManageStudents, PermViewGrades,
			PermEditGrades, PermManageCourses, PermManageEvaluations, PermViewReports,
			PermManagePromotions,
		}},
		RoleDeputyDepartmentHead: {Level: 60, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermManageCourses,
			PermManageEvaluations, PermViewReports,
		}},
		RoleJuryPresident: {Level: 55, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermEditGrades,
			PermValidateDeliberations,
		}},
		RoleJurySecretary: {Level: 50, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermEditGrades,
		}},
		RoleJuryMember: {Level: 45, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades,
		}},
		RoleOrdinaryProfessor: {Level: 42, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermEditGrades,
			PermManageCourses, PermManageEvaluations,
		}},
		RoleAssociateProfessor: {Level: 40, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermEditGrades,
			PermManageCourses, PermManageEvaluations,
		}},
		RoleLecturer: {Level: 38, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades, PermEditGrades,
			PermManageEvaluations,
		}},
		RoleAssistant: {Level: 35, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermViewGrades,
		}},
		RoleRegistryHead: {Level: 30, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermManageStudents, PermViewReports,
		}},
		RoleRegistryEmployee: {Level: 25, Permissions: []Permission{
			PermViewDashboard, PermViewStudents, PermManageStudents,
		}},
		RoleFinanceOfficer: {Level: 30, Permissions: []Permission{
			PermViewDashboard, PermManageFinances, PermRecordPayments, PermViewPayments,
			PermManageScholarships, PermViewReports,
		}},
		RoleAccountant: {Level: 25, Permissions: []Permission{
			PermViewDashboard, PermRecordPayments, PermViewPayments, PermViewReports,
		}},
		RoleCashier: {Level: 20, Permissions: []Permission{
			PermViewDashboard, PermRecordPayments, PermViewPayments,
		}},
		RoleHROfficer: {Level: 25, Permissions: []Permission{
			PermViewDashboard, PermManageUsers, PermViewReports,
		}},
		RoleLibrarian: {Level: 15, Permissions: []Permission{
			PermViewDashboard,
		}},
		RoleCohortDelegate: {Level: 10, Permissions: []Permission{
			PermViewDashboard, PermViewStudents,
		}},
		RoleStudent: {Level: 5, Permissions: []Permission{
			PermViewDashboard,
		}},
	})
}
