package model

import "fmt"

// Scope selects which backend report a query targets.
type Scope string

// Known scopes.
const (
	ScopeWeekly     Scope = "weekly"
	ScopeManager    Scope = "manager"
	ScopeDepartment Scope = "department"
	ScopeSummary    Scope = "summary"
	ScopeEmployee   Scope = "employee"
	ScopeEmployees  Scope = "employees"
)

// Sentinels meaning "every manager" and "every department". They are sent to
// the backend as an empty parameter.
const (
	AllManagers    = "ALL_MGR"
	AllDepartments = "ALL_DEPT"
)

// ReportScopes are the scopes that produce a ranked report.
var ReportScopes = []Scope{ScopeWeekly, ScopeManager, ScopeDepartment, ScopeSummary} //nolint:gochecknoglobals // read-only list

// ParseScope validates s as a known scope.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case ScopeWeekly, ScopeManager, ScopeDepartment, ScopeSummary, ScopeEmployee, ScopeEmployees:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
	}
}

// Ranked reports whether the scope produces a ranked report.
func (s Scope) Ranked() bool {
	for _, r := range ReportScopes {
		if r == s {
			return true
		}
	}
	return false
}

// ScopeIDParam returns the query parameter carrying the scope id, or "" when
// the scope has none.
func (s Scope) ScopeIDParam() string {
	switch s {
	case ScopeManager:
		return "manager"
	case ScopeDepartment:
		return "department"
	case ScopeEmployee:
		return "emp_id"
	default:
		return ""
	}
}

// ScopeIDValue maps the "all" sentinels to the empty value the backend expects.
func ScopeIDValue(id string) string {
	if id == AllManagers || id == AllDepartments {
		return ""
	}
	return id
}
