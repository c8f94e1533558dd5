// Package scorecard validates and totals the weekly metric sheet a manager
// fills in for one employee.
package scorecard

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/domain/normalize"
)

// Score bounds for a single metric.
const (
	MinScore = 0
	MaxScore = 100

	commentSuffix  = "_comment"
	evaluationType = "Manager"
)

// Fields lists the metrics in display order.
var Fields = []string{ //nolint:gochecknoglobals // fixed metric sheet
	"communication_skills",
	"multitasking",
	"team_skills",
	"technical_skills",
	"job_knowledge",
	"productivity",
	"creativity",
	"work_quality",
	"professionalism",
	"work_consistency",
	"attitude",
	"cooperation",
	"dependability",
	"attendance",
	"punctuality",
}

// Metric is one scored line of the sheet.
type Metric struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment,omitempty"`
}

// Scorecard is a complete, validated sheet.
type Scorecard struct {
	EmployeeID string          `json:"employee_id"`
	Week       isoweek.WeekKey `json:"week"`
	Metrics    []Metric        `json:"metrics"`
	Total      float64         `json:"total_score"`
}

// Form is a sheet as typed by a user: scores are still text.
type Form struct {
	EmployeeID string            `json:"employee_id"`
	Week       isoweek.WeekKey   `json:"week"`
	Scores     map[string]string `json:"scores"`
	Comments   map[string]string `json:"comments,omitempty"`
}

// FieldError reports one rejected metric.
type FieldError struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Err   error  `json:"-"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseScore validates one typed score. Empty input means "not entered yet"
// and returns set=false. A lone "0" is accepted; any other value starting
// with 0 ("01", "005", "0.5") is rejected, as are non-numbers, negatives and
// values above MaxScore.
func ParseScore(s string) (value float64, set bool, err error) {
	switch {
	case s == "":
		return 0, false, nil
	case s == "0":
		return 0, true, nil
	case len(s) > 1 && s[0] == '0':
		return 0, false, ErrLeadingZero
	}
	v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, ErrNotANumber
	}
	if v < MinScore {
		return 0, false, ErrNegative
	}
	if v > MaxScore {
		return 0, false, ErrTooHigh
	}
	return v, true, nil
}

// Validate checks every metric of the form and returns the completed sheet.
// Every rejected field is reported, in field order.
func (f Form) Validate() (Scorecard, []*FieldError, error) {
	if strings.TrimSpace(f.EmployeeID) == "" {
		return Scorecard{}, nil, ErrMissingEmployee
	}
	if !f.Week.Valid() {
		return Scorecard{}, nil, fmt.Errorf("%w: %s", ErrInvalidWeek, f.Week)
	}

	var problems []*FieldError
	card := Scorecard{EmployeeID: f.EmployeeID, Week: f.Week, Metrics: make([]Metric, 0, len(Fields))}
	for _, field := range Fields {
		text := f.Scores[field]
		v, set, err := ParseScore(text)
		if err == nil && !set {
			err = ErrMissingScore
		}
		if err != nil {
			problems = append(problems, &FieldError{Field: field, Value: text, Err: err})
			continue
		}
		card.Metrics = append(card.Metrics, Metric{Name: field, Score: v, Comment: f.Comments[field]})
	}
	if len(problems) > 0 {
		return Scorecard{}, problems, fmt.Errorf("%w: %d field(s) rejected", ErrIncomplete, len(problems))
	}
	card.Total = card.sum()
	return card, nil, nil
}

// Total sums the known metric fields of scores; unknown keys are ignored.
func Total(scores map[string]float64) float64 {
	sum := 0.0
	for _, field := range Fields {
		sum += scores[field]
	}
	return sum
}

func (c Scorecard) sum() float64 {
	sum := 0.0
	for _, m := range c.Metrics {
		sum += m.Score
	}
	return sum
}

// Payload is the body the backend expects when an evaluation is submitted.
type Payload struct {
	EmployeeEmpID  string         `json:"employee_emp_id"`
	EvaluationType string         `json:"evaluation_type"`
	Year           int            `json:"year"`
	Week           int            `json:"week"`
	ReviewDate     string         `json:"review_date"`
	Remarks        string         `json:"remarks"`
	Metrics        map[string]any `json:"metrics"`
	TotalScore     float64        `json:"total_score"`
}

// Payload builds the submission body for the sheet, dated on reviewed.
func (c Scorecard) Payload(reviewed time.Time) Payload {
	metrics := make(map[string]any, 2*len(c.Metrics))
	for _, m := range c.Metrics {
		metrics[m.Name] = m.Score
		metrics[m.Name+commentSuffix] = m.Comment
	}
	return Payload{
		EmployeeEmpID:  c.EmployeeID,
		EvaluationType: evaluationType,
		Year:           c.Week.Year,
		Week:           c.Week.Week,
		ReviewDate:     reviewed.Format(time.DateOnly),
		Metrics:        metrics,
		TotalScore:     c.Total,
	}
}

// FromRaw extracts the metric sheet from a by-employee-week or evaluation
// payload. Metrics are read from a "scores" or "metrics" object keyed by field
// name, or from a "metrics" list of {name, score|value} items. Values are
// clamped to MinScore..MaxScore; fields the backend did not send are omitted.
// An explicit total_score is preferred over the computed sum.
func FromRaw(obj model.RawRecord) Scorecard {
	card := Scorecard{EmployeeID: normalize.Text(obj, normalize.EmployeeIDKeys)}
	if y, ok := normalize.Number(obj["year"]); ok {
		card.Week.Year = int(y)
	}
	if w, ok := normalize.Number(obj["week"]); ok {
		card.Week.Week = int(w)
	}

	values := map[string]float64{}
	comments := map[string]string{}
	for _, key := range []string{"scores", "metrics"} {
		switch src := obj[key].(type) {
		case map[string]any:
			for name, v := range src {
				if strings.HasSuffix(name, commentSuffix) {
					if s, ok := v.(string); ok {
						comments[strings.TrimSuffix(name, commentSuffix)] = s
					}
					continue
				}
				if n, ok := normalize.Number(v); ok {
					values[name] = clamp(n)
				}
			}
		case []any:
			for _, item := range src {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				name, _ := entry["name"].(string)
				if name == "" {
					continue
				}
				raw := entry["score"]
				if raw == nil {
					raw = entry["value"]
				}
				if n, ok := normalize.Number(raw); ok {
					values[name] = clamp(n)
				}
				if c, ok := entry["comment"].(string); ok {
					comments[name] = c
				}
			}
		}
	}

	for _, field := range Fields {
		if v, ok := values[field]; ok {
			card.Metrics = append(card.Metrics, Metric{Name: field, Score: v, Comment: comments[field]})
		}
	}
	extra := make([]string, 0)
	for name := range values {
		if !known(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		card.Metrics = append(card.Metrics, Metric{Name: name, Score: values[name], Comment: comments[name]})
	}

	if t, ok := normalize.Number(obj["total_score"]); ok {
		card.Total = t
	} else {
		card.Total = Total(values)
	}
	return card
}

func known(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}
