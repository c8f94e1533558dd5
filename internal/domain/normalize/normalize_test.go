package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func raw(t *testing.T, s string) model.RawRecord {
	t.Helper()
	var r model.RawRecord
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return r
}

func TestRecord(t *testing.T) {
	Convey("Given rows from different endpoints", t, func() {
		Convey("When only evaluator_name carries the manager", func() {
			rec := normalize.Record(raw(t, `{"emp_id":"E1","full_name":"Ada","evaluator_name":"Grace","score":88}`))

			Convey("Then the manager is the evaluator", func() {
				So(rec.Manager, ShouldEqual, "Grace")
				So(rec.EmployeeID, ShouldEqual, "E1")
				So(rec.FullName, ShouldEqual, "Ada")
				So(rec.Score, ShouldEqual, 88.0)
			})
		})

		Convey("When several candidate keys are present", func() {
			rec := normalize.Record(raw(t, `{
				"id": 9, "emp_id": "E2",
				"name": "short", "employee_full_name": "Full Name",
				"manager_name": "M2", "manager_full_name": "M1",
				"avg_score": 10, "total_score": 70
			}`))

			Convey("Then the first key in precedence order wins", func() {
				So(rec.EmployeeID, ShouldEqual, "E2")
				So(rec.FullName, ShouldEqual, "Full Name")
				So(rec.Manager, ShouldEqual, "M1")
				So(rec.Score, ShouldEqual, 70.0)
			})
		})

		Convey("When an earlier key is null", func() {
			rec := normalize.Record(raw(t, `{"emp_id":null,"id":42,"manager":null,"reviewer_name":"R"}`))

			Convey("Then the next key is used", func() {
				So(rec.EmployeeID, ShouldEqual, "42")
				So(rec.Manager, ShouldEqual, "R")
			})
		})

		Convey("When an earlier key is an empty string", func() {
			rec := normalize.Record(raw(t, `{"full_name":"","name":"Backup"}`))

			Convey("Then the empty string still wins", func() {
				So(rec.FullName, ShouldEqual, "")
			})
		})

		Convey("When values only exist in nested objects", func() {
			rec := normalize.Record(raw(t, `{
				"user": {"emp_id": "E3"},
				"employee": {"user": {"full_name": "Nested Name"}},
				"department": {"name": "Finance"},
				"evaluator": {"full_name": "Boss"}
			}`))

			Convey("Then dotted paths and object values resolve", func() {
				So(rec.EmployeeID, ShouldEqual, "E3")
				So(rec.FullName, ShouldEqual, "Nested Name")
				So(rec.Department, ShouldEqual, "Finance")
				So(rec.Manager, ShouldEqual, "Boss")
			})
		})

		Convey("When nothing is present", func() {
			rec := normalize.Record(model.RawRecord{})

			Convey("Then placeholders and zero are used", func() {
				So(rec.EmployeeID, ShouldEqual, model.Placeholder)
				So(rec.FullName, ShouldEqual, model.Placeholder)
				So(rec.Department, ShouldEqual, model.Placeholder)
				So(rec.Manager, ShouldEqual, model.Placeholder)
				So(rec.Score, ShouldEqual, 0.0)
				So(rec.Rank, ShouldEqual, model.NoRank)
			})
		})

		Convey("When the score needs coercion", func() {
			So(normalize.Record(raw(t, `{"score":"87.5"}`)).Score, ShouldEqual, 87.5)
			So(normalize.Record(raw(t, `{"score":"n/a"}`)).Score, ShouldEqual, 0.0)
			So(normalize.Record(raw(t, `{"score":true}`)).Score, ShouldEqual, 0.0)
			So(normalize.Record(raw(t, `{"average_score":null,"avg_score":"12"}`)).Score, ShouldEqual, 12.0)
		})

		Convey("When the backend sends a rank", func() {
			So(normalize.Record(raw(t, `{"rank":4}`)).Rank, ShouldEqual, model.Rank(4))
			So(normalize.Record(raw(t, `{"rank":"-"}`)).Rank, ShouldEqual, model.NoRank)
		})
	})
}

func TestRecords(t *testing.T) {
	Convey("Given a list of rows", t, func() {
		rows := []model.RawRecord{{"emp_id": "A"}, {"emp_id": "B"}}

		Convey("Then order is preserved", func() {
			out := normalize.Records(rows)
			So(out, ShouldHaveLength, 2)
			So(out[0].EmployeeID, ShouldEqual, "A")
			So(out[1].EmployeeID, ShouldEqual, "B")
		})

		Convey("Then a nil input gives an empty slice", func() {
			out := normalize.Records(nil)
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestNumber(t *testing.T) {
	Convey("Given decoded JSON values", t, func() {
		n, ok := normalize.Number(json.Number("3.5"))
		So(ok, ShouldBeTrue)
		So(n, ShouldEqual, 3.5)

		_, ok = normalize.Number(map[string]any{})
		So(ok, ShouldBeFalse)

		_, ok = normalize.Number("NaN")
		So(ok, ShouldBeFalse)

		_, ok = normalize.Number(nil)
		So(ok, ShouldBeFalse)
	})
}
