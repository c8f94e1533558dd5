// Package isoweek converts calendar dates to ISO-8601 week keys and back.
//
// Weeks start on Monday and week 1 is the week that contains the year's
// first Thursday. A date early in January may therefore belong to the last
// week of the previous ISO year, and a date late in December to week 1 of the
// next one.
package isoweek

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Week bounds.
const (
	MinWeek       = 1
	MaxWeek       = 53
	shortYear     = 52
	daysPerWeek   = 7
	thursdayShift = 3
)

// WeekKey identifies one ISO week.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// Of returns the ISO week that contains t.
//
// The date is moved to the Thursday of its week; that Thursday decides the
// ISO year, and its ordinal day inside that year decides the week number.
// Only the civil date of t in its own location is used, so daylight-saving
// transitions cannot shift the day count.
func Of(t time.Time) WeekKey {
	d := civil(t)
	offset := (int(d.Weekday()) + 6) % daysPerWeek
	thursday := d.AddDate(0, 0, thursdayShift-offset)

	jan1 := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(jan1).Hours() / 24)

	return WeekKey{Year: thursday.Year(), Week: days/daysPerWeek + 1}
}

// Monday returns the Monday (00:00 UTC) that starts the week.
func (k WeekKey) Monday() time.Time {
	// Jan 4 is always inside week 1.
	jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % daysPerWeek
	return jan4.AddDate(0, 0, -offset+(k.Week-1)*daysPerWeek)
}

// WeeksInYear reports how many ISO weeks the given ISO year has (52 or 53).
func WeeksInYear(year int) int {
	// Dec 28 always falls in the last week of its ISO year.
	return Of(time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC)).Week
}

// Valid reports whether the key names a week that exists.
func (k WeekKey) Valid() bool {
	return k.Year > 0 && k.Week >= MinWeek && k.Week <= WeeksInYear(k.Year)
}

// IsZero reports whether the key is unset.
func (k WeekKey) IsZero() bool {
	return k.Year == 0 && k.Week == 0
}

// Compare returns -1, 0 or +1 depending on whether k is before, equal to, or
// after other.
func (k WeekKey) Compare(other WeekKey) int {
	switch {
	case k.Year < other.Year:
		return -1
	case k.Year > other.Year:
		return 1
	case k.Week < other.Week:
		return -1
	case k.Week > other.Week:
		return 1
	default:
		return 0
	}
}

// Previous returns the calendar-correct preceding week, honoring 53-week years.
func (k WeekKey) Previous() WeekKey {
	if k.Week > MinWeek {
		return WeekKey{Year: k.Year, Week: k.Week - 1}
	}
	return WeekKey{Year: k.Year - 1, Week: WeeksInYear(k.Year - 1)}
}

// Next returns the following week.
func (k WeekKey) Next() WeekKey {
	if k.Week < WeeksInYear(k.Year) {
		return WeekKey{Year: k.Year, Week: k.Week + 1}
	}
	return WeekKey{Year: k.Year + 1, Week: MinWeek}
}

// LatestEvaluationWeek returns the most recent week for which evaluations are
// expected, given the backend's current processing week: one week back, with
// week 0 rolling over to week 52 of the previous year.
//
// The rollover ignores 53-week years; Previous is the exact variant.
func LatestEvaluationWeek(current WeekKey) WeekKey {
	latest := WeekKey{Year: current.Year, Week: current.Week - 1}
	if latest.Week == 0 {
		latest.Year--
		latest.Week = shortYear
	}
	return latest
}

// String renders the key as "YYYY-Www".
func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

// MarshalText implements encoding.TextMarshaler.
func (k WeekKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *WeekKey) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Parse reads a "YYYY-Www" key. The week may have one or two digits.
func Parse(s string) (WeekKey, error) {
	yearPart, weekPart, ok := strings.Cut(strings.TrimSpace(s), "-W")
	if !ok {
		return WeekKey{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil || len(yearPart) != 4 {
		return WeekKey{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil || len(weekPart) == 0 || len(weekPart) > 2 {
		return WeekKey{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	k := WeekKey{Year: year, Week: week}
	if !k.Valid() {
		return WeekKey{}, fmt.Errorf("%w: %s", ErrOutOfRange, k)
	}
	return k, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) WeekKey {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
