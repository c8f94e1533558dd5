// Package normalize maps heterogeneous backend rows onto model.NormalizedRecord.
//
// Each canonical field is resolved by probing an ordered list of candidate
// keys. The first key present with a non-null value wins, even when that value
// is an empty string; later keys are only consulted when earlier ones are
// missing or null. Missing text fields become model.Placeholder and a missing
// score becomes 0. Normalization never fails.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/okian/perfboard/internal/domain/model"
)

// Candidate keys per canonical field, in precedence order.
//
//nolint:gochecknoglobals // precedence tables
var (
	EmployeeIDKeys = []string{"emp_id", "employee_emp_id", "user.emp_id", "id"}
	FullNameKeys   = []string{
		"employee_full_name", "full_name", "name", "employee_name",
		"employee.full_name", "employee.user.full_name",
	}
	DepartmentKeys = []string{
		"department", "department_name", "dept_name",
		"employee.department_name", "department.name",
	}
	ManagerKeys = []string{
		"manager_full_name", "manager", "manager_name",
		"evaluator_name", "evaluator_full_name",
		"reviewer_name", "reviewer_full_name",
		"evaluator", "reviewer",
	}
	ScoreKeys = []string{"score", "total_score", "average_score", "avg_score"}
)

// RankKey carries the backend's own rank.
const RankKey = "rank"

// nestedNameKeys are read from an object value that sits where text was expected.
var nestedNameKeys = []string{"full_name", "name"} //nolint:gochecknoglobals // lookup order

// Record normalizes one raw row. The backend rank, when numeric, is carried
// over unchanged; ranking.Dense replaces it.
func Record(raw model.RawRecord) model.NormalizedRecord {
	score, _ := Number(firstValue(raw, ScoreKeys))
	return model.NormalizedRecord{
		EmployeeID: Text(raw, EmployeeIDKeys),
		FullName:   Text(raw, FullNameKeys),
		Department: Text(raw, DepartmentKeys),
		Manager:    Text(raw, ManagerKeys),
		Score:      score,
		Rank:       rankOf(raw),
	}
}

// Records normalizes rows in order. A nil input yields an empty, non-nil slice.
func Records(raws []model.RawRecord) []model.NormalizedRecord {
	out := make([]model.NormalizedRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Record(raw))
	}
	return out
}

// Text resolves the first usable text value among keys, or model.Placeholder.
func Text(raw model.RawRecord, keys []string) string {
	for _, key := range keys {
		v, ok := raw.Lookup(key)
		if !ok || v == nil {
			continue
		}
		if s, ok := toText(v); ok {
			return s
		}
	}
	return model.Placeholder
}

// Number coerces a decoded JSON value to float64. Numbers and numeric strings
// are accepted; anything else (booleans, objects, NaN, unparseable text)
// yields 0 and false.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func firstValue(raw model.RawRecord, keys []string) any {
	for _, key := range keys {
		if v, ok := raw.Lookup(key); ok && v != nil {
			return v
		}
	}
	return nil
}

func rankOf(raw model.RawRecord) model.Rank {
	v, ok := raw.Lookup(RankKey)
	if !ok {
		return model.NoRank
	}
	n, ok := Number(v)
	if !ok || n < 1 {
		return model.NoRank
	}
	return model.Rank(int(n))
}

// toText renders a scalar as text. Objects resolve to their full_name or name;
// an object without either, or an array, is not usable.
func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case map[string]any:
		name := Text(model.RawRecord(t), nestedNameKeys)
		return name, name != model.Placeholder
	default:
		return "", false
	}
}
