package upstream

import (
	"net/url"
	"strconv"

	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/domain/model"
)

// Query describes one list request.
type Query struct {
	Scope model.Scope
	// ScopeID is the manager, department or employee id for scopes that take
	// one. model.AllManagers and model.AllDepartments are sent empty.
	ScopeID  string
	Week     *isoweek.WeekKey
	Search   string
	SortBy   string
	Order    string
	Page     int
	PageSize int
}

// Values renders the query parameters. Week and year travel as separate
// integers.
func (q Query) Values() url.Values {
	v := url.Values{}
	if param := q.Scope.ScopeIDParam(); param != "" && q.ScopeID != "" {
		v.Set(param, model.ScopeIDValue(q.ScopeID))
	}
	if q.Week != nil {
		v.Set("week", strconv.Itoa(q.Week.Week))
		v.Set("year", strconv.Itoa(q.Week.Year))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}
