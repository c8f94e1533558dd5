package upstream

import (
	"fmt"

	"github.com/okian/perfboard/internal/domain/model"
)

// Backend paths, relative to the API root.
const (
	PathWeekly            = "reports/weekly/"
	PathManager           = "reports/manager/"
	PathDepartment        = "reports/department/"
	PathSummary           = "performance/summary/"
	PathEmployeeWeek      = "performance/performance/by-employee-week/"
	PathEmployees         = "employee/employees/"
	PathLatestWeek        = "performance/latest-week/"
	PathReportsLatestWeek = "reports/latest-week/"
	PathCheckDuplicate    = "performance/check-duplicate/"
	PathLogin             = "users/login/"
)

// PathFor returns the list endpoint serving scope.
func PathFor(scope model.Scope) (string, error) {
	switch scope {
	case model.ScopeWeekly:
		return PathWeekly, nil
	case model.ScopeManager:
		return PathManager, nil
	case model.ScopeDepartment:
		return PathDepartment, nil
	case model.ScopeSummary:
		return PathSummary, nil
	case model.ScopeEmployee:
		return PathEmployeeWeek, nil
	case model.ScopeEmployees:
		return PathEmployees, nil
	default:
		return "", fmt.Errorf("%w: scope %q", ErrInvalidQuery, scope)
	}
}
