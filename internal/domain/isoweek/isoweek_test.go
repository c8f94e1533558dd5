package isoweek_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/perfboard/internal/domain/isoweek"
	. "github.com/smartystreets/goconvey/convey"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestOf(t *testing.T) {
	Convey("Given calendar dates", t, func() {
		Convey("When the date is a plain mid-year day", func() {
			So(isoweek.Of(date(2025, time.March, 5)), ShouldResemble, isoweek.WeekKey{Year: 2025, Week: 10})
		})

		Convey("When Jan 1 falls on a Friday", func() {
			// 2021-01-01 is a Friday: it belongs to the last week of 2020.
			So(isoweek.Of(date(2021, time.January, 1)), ShouldResemble, isoweek.WeekKey{Year: 2020, Week: 53})
			So(isoweek.Of(date(2021, time.January, 3)), ShouldResemble, isoweek.WeekKey{Year: 2020, Week: 53})
			So(isoweek.Of(date(2021, time.January, 4)), ShouldResemble, isoweek.WeekKey{Year: 2021, Week: 1})
			So(isoweek.Of(date(2021, time.January, 7)), ShouldResemble, isoweek.WeekKey{Year: 2021, Week: 1})
		})

		Convey("When a late December date belongs to the next ISO year", func() {
			So(isoweek.Of(date(2024, time.December, 30)), ShouldResemble, isoweek.WeekKey{Year: 2025, Week: 1})
			So(isoweek.Of(date(2025, time.December, 29)), ShouldResemble, isoweek.WeekKey{Year: 2026, Week: 1})
		})

		Convey("When the time of day is near midnight in a non-UTC zone", func() {
			loc := time.FixedZone("UTC+14", 14*60*60)
			late := time.Date(2025, time.March, 9, 23, 59, 0, 0, loc) // Sunday
			So(isoweek.Of(late), ShouldResemble, isoweek.WeekKey{Year: 2025, Week: 10})
		})

		Convey("Then it agrees with time.ISOWeek for every day from 1990 to 2040", func() {
			mismatches := 0
			for d := date(1990, time.January, 1); d.Year() <= 2040; d = d.AddDate(0, 0, 1) {
				y, w := d.ISOWeek()
				if got := isoweek.Of(d); got.Year != y || got.Week != w {
					mismatches++
				}
			}
			So(mismatches, ShouldEqual, 0)
		})

		Convey("Then week 1 is exactly the week containing the first Thursday", func() {
			for year := 2000; year <= 2035; year++ {
				firstThursday := date(year, time.January, 1)
				for firstThursday.Weekday() != time.Thursday {
					firstThursday = firstThursday.AddDate(0, 0, 1)
				}
				monday := firstThursday.AddDate(0, 0, -3)
				for i := -7; i < 14; i++ {
					d := monday.AddDate(0, 0, i)
					inFirstWeek := i >= 0 && i < 7
					So(isoweek.Of(d) == isoweek.WeekKey{Year: year, Week: 1}, ShouldEqual, inFirstWeek)
				}
			}
		})

		Convey("Then consecutive Mondays give strictly increasing keys", func() {
			prev := isoweek.Of(date(2019, time.December, 30))
			for d := date(2020, time.January, 6); d.Year() < 2031; d = d.AddDate(0, 0, 7) {
				cur := isoweek.Of(d)
				So(cur.Compare(prev), ShouldEqual, 1)
				if cur.Year == prev.Year {
					So(cur.Week, ShouldEqual, prev.Week+1)
				} else {
					So(cur.Week, ShouldEqual, 1)
				}
				prev = cur
			}
		})
	})
}

func TestMondayAndNavigation(t *testing.T) {
	Convey("Given week keys", t, func() {
		Convey("When asking for the Monday of a week", func() {
			So(isoweek.MustParse("2025-W01").Monday(), ShouldEqual, time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC))
			So(isoweek.MustParse("2025-W10").Monday(), ShouldEqual, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
		})

		Convey("Then Of(Monday(k)) round-trips", func() {
			k := isoweek.WeekKey{Year: 2015, Week: 1}
			for i := 0; i < 700; i++ {
				So(isoweek.Of(k.Monday()), ShouldResemble, k)
				k = k.Next()
			}
		})

		Convey("When counting weeks in a year", func() {
			So(isoweek.WeeksInYear(2020), ShouldEqual, 53)
			So(isoweek.WeeksInYear(2026), ShouldEqual, 53)
			So(isoweek.WeeksInYear(2025), ShouldEqual, 52)
		})

		Convey("When stepping back from week 1", func() {
			So(isoweek.WeekKey{Year: 2021, Week: 1}.Previous(), ShouldResemble, isoweek.WeekKey{Year: 2020, Week: 53})
			So(isoweek.WeekKey{Year: 2025, Week: 1}.Previous(), ShouldResemble, isoweek.WeekKey{Year: 2024, Week: 52})
			So(isoweek.WeekKey{Year: 2025, Week: 10}.Previous(), ShouldResemble, isoweek.WeekKey{Year: 2025, Week: 9})
		})
	})
}

func TestLatestEvaluationWeek(t *testing.T) {
	Convey("Given the backend's current week", t, func() {
		Convey("When it is a mid-year week", func() {
			So(isoweek.LatestEvaluationWeek(isoweek.WeekKey{Year: 2025, Week: 10}), ShouldResemble, isoweek.WeekKey{Year: 2025, Week: 9})
		})

		Convey("When it is week 1", func() {
			Convey("Then it rolls over to week 52 of the previous year", func() {
				So(isoweek.LatestEvaluationWeek(isoweek.WeekKey{Year: 2025, Week: 1}), ShouldResemble, isoweek.WeekKey{Year: 2024, Week: 52})
				// Even after a 53-week year.
				So(isoweek.LatestEvaluationWeek(isoweek.WeekKey{Year: 2021, Week: 1}), ShouldResemble, isoweek.WeekKey{Year: 2020, Week: 52})
			})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given week strings", t, func() {
		Convey("When the string is well formed", func() {
			k, err := isoweek.Parse("2025-W10")
			So(err, ShouldBeNil)
			So(k, ShouldResemble, isoweek.WeekKey{Year: 2025, Week: 10})
			So(k.String(), ShouldEqual, "2025-W10")
		})

		Convey("When the week has a single digit", func() {
			k, err := isoweek.Parse("2025-W3")
			So(err, ShouldBeNil)
			So(k.String(), ShouldEqual, "2025-W03")
		})

		Convey("When the format is wrong", func() {
			for _, s := range []string{"", "2025", "2025-10", "25-W10", "2025-Wxx", "2025-W100"} {
				_, err := isoweek.Parse(s)
				So(errors.Is(err, isoweek.ErrInvalidFormat), ShouldBeTrue)
			}
		})

		Convey("When the week does not exist in that year", func() {
			_, err := isoweek.Parse("2025-W53")
			So(errors.Is(err, isoweek.ErrOutOfRange), ShouldBeTrue)
			_, err = isoweek.Parse("2026-W53")
			So(err, ShouldBeNil)
			_, err = isoweek.Parse("2025-W00")
			So(errors.Is(err, isoweek.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When used as JSON", func() {
			var payload struct {
				Week isoweek.WeekKey `json:"week"`
			}
			So(json.Unmarshal([]byte(`{"week":"2024-W52"}`), &payload), ShouldBeNil)
			So(payload.Week, ShouldResemble, isoweek.WeekKey{Year: 2024, Week: 52})

			out, err := json.Marshal(payload)
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"week":"2024-W52"}`)
		})
	})
}
