package authz

import (
	"context"
	"slices"
)

// AccessScope is a user's reachable set, folded from every active grant. A
// single university-wide grant short-circuits the whole structure: callers
// may then skip per-row filtering entirely.
type AccessScope struct {
	UniversityWide bool    `json:"university_wide"`
	Faculties      []int64 `json:"faculties"`
	Departments    []int64 `json:"departments"`
	Promotions     []int64 `json:"promotions"`
}

// FilterKind tags the three possible filter outcomes.
type FilterKind int

const (
	// MatchAll renders to an always-true clause (university-wide access).
	MatchAll FilterKind = iota
	// MatchNone renders to an always-false clause. A user with no scope
	// gets an explicit deny-all, never an unfiltered query.
	MatchNone
	// MatchAny renders to an OR of per-column membership tests.
	MatchAny
)

// Condition is one "column ∈ ids" membership test.
type Condition struct {
	Column string
	IDs    []int64
}

// Filter is the compiled scope predicate for a bulk listing query. The
// engine only builds it; the downstream query layer renders and executes it.
type Filter struct {
	Kind       FilterKind
	Conditions []Condition
}

// FilterColumns names the caller's columns holding faculty, department and
// promotion membership. An empty name means the caller's table cannot
// express that dimension; the corresponding condition is dropped, which
// narrows the result (fail closed) rather than widening it.
type FilterColumns struct {
	Faculty    string
	Department string
	Promotion  string
}

// SQL renders the filter into a predicate clause plus bound parameters.
// Membership tests come out as "column IN (?)" with a slice argument, ready
// for sqlx.In expansion by the downstream repository.
func (f Filter) SQL() (string, []any) {
	switch f.Kind {
	case MatchAll:
		return "1=1", nil
	case MatchNone:
		return "1=0", nil
	}

	clause := "("
	args := make([]any, 0, len(f.Conditions))
	for i, cond := range f.Conditions {
		if i > 0 {
			clause += " OR "
		}
		clause += cond.Column + " IN (?)"
		args = append(args, cond.IDs)
	}
	clause += ")"
	return clause, args
}

// AccessScope folds all of the user's active grants into their reachable
// set. Like Authorize, it re-reads the grant store on every call.
func (s *Service) AccessScope(ctx context.Context, userID int64) (AccessScope, error) {
	grants, err := s.store.ListActiveGrants(ctx, userID)
	if err != nil {
		return AccessScope{}, err
	}

	faculties := make(map[int64]struct{})
	departments := make(map[int64]struct{})
	promotions := make(map[int64]struct{})

	for _, grant := range grants {
		switch grant.ScopeType {
		case ScopeUniversity:
			return AccessScope{UniversityWide: true}, nil
		case ScopeFaculty:
			if grant.FacultyID != nil {
				faculties[*grant.FacultyID] = struct{}{}
			}
		case ScopeDepartment:
			if grant.DepartmentID != nil {
				departments[*grant.DepartmentID] = struct{}{}
			}
		case ScopePromotion:
			if grant.PromotionID != nil {
				promotions[*grant.PromotionID] = struct{}{}
			}
		}
	}

	return AccessScope{
		Faculties:   sortedIDs(faculties),
		Departments: sortedIDs(departments),
		Promotions:  sortedIDs(promotions),
	}, nil
}

// BuildFilter compiles the user's access scope into a reusable predicate
// over the caller's column names. The three outcomes: match-all for
// university-wide users, an OR of membership tests otherwise, and an
// explicit match-none when the user has no reachable scope at all.
func (s *Service) BuildFilter(ctx context.Context, userID int64, columns FilterColumns) (Filter, error) {
	scope, err := s.AccessScope(ctx, userID)
	if err != nil {
		return Filter{}, err
	}
	return CompileFilter(scope, columns), nil
}

// CompileFilter is the pure compilation step, split out so callers holding
// an already-aggregated AccessScope can reuse it.
func CompileFilter(scope AccessScope, columns FilterColumns) Filter {
	if scope.UniversityWide {
		return Filter{Kind: MatchAll}
	}

	var conditions []Condition
	if columns.Faculty != "" && len(scope.Faculties) > 0 {
		conditions = append(conditions, Condition{Column: columns.Faculty, IDs: scope.Faculties})
	}
	if columns.Department != "" && len(scope.Departments) > 0 {
		conditions = append(conditions, Condition{Column: columns.Department, IDs: scope.Departments})
	}
	if columns.Promotion != "" && len(scope.Promotions) > 0 {
		conditions = append(conditions, Condition{Column: columns.Promotion, IDs: scope.Promotions})
	}

	if len(conditions) == 0 {
		return Filter{Kind: MatchNone}
	}
	return Filter{Kind: MatchAny, Conditions: conditions}
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
