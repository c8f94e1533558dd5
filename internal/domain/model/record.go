// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/okian/perfboard/internal/domain/isoweek"
)

// Placeholder is shown for text fields the backend did not provide.
const Placeholder = "-"

// RawRecord is one evaluation row exactly as the backend returned it. Field
// names differ between endpoints; nested objects decode as map[string]any.
type RawRecord map[string]any

// Lookup resolves a dotted path such as "employee.user.full_name". The second
// result reports whether the final key exists; its value may still be nil.
func (r RawRecord) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range strings.Split(path, ".") {
		var m map[string]any
		switch v := cur.(type) {
		case map[string]any:
			m = v
		case RawRecord:
			m = v
		default:
			return nil, false
		}
		next, ok := m[key]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Rank is a dense rank position. The zero value means "not ranked yet".
type Rank int

// NoRank marks a record that has not been through the ranker.
const NoRank Rank = 0

// MarshalJSON renders an absent rank as "-".
func (r Rank) MarshalJSON() ([]byte, error) {
	if r <= NoRank {
		return []byte(`"-"`), nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

// UnmarshalJSON accepts a number, a numeric string or "-".
func (r *Rank) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == Placeholder || s == "" || s == "null" {
		*r = NoRank
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*r = Rank(n)
	return nil
}

// NormalizedRecord is the canonical shape every report row is mapped to.
type NormalizedRecord struct {
	EmployeeID string  `json:"employee_id"`
	FullName   string  `json:"full_name"`
	Department string  `json:"department"`
	Manager    string  `json:"manager"`
	Score      float64 `json:"score"`
	Rank       Rank    `json:"rank"`
}

// Page is one page of backend results.
type Page struct {
	Records       []RawRecord
	TotalCount    int
	NextPageToken string
}

// Last reports whether no further page follows.
func (p Page) Last() bool {
	return p.NextPageToken == ""
}

// Report is a ranked, normalized view of one scope for one week.
type Report struct {
	Scope       Scope              `json:"scope"`
	Week        isoweek.WeekKey    `json:"week"`
	Filter      Filter             `json:"filter"`
	Records     []NormalizedRecord `json:"records"`
	Total       int                `json:"total"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Filter narrows a report. Manager and Department carry the scope id for the
// manager and department scopes.
type Filter struct {
	Manager    string `json:"manager,omitempty"`
	Department string `json:"department,omitempty"`
	Search     string `json:"search,omitempty"`
}
