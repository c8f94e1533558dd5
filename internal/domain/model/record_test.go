package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	model "github.com/okian/perfboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRawRecordLookup(t *testing.T) {
	convey.Convey("Given a raw record with nested objects", t, func() {
		var rec model.RawRecord
		err := json.Unmarshal([]byte(`{
			"emp_id": "E1",
			"manager": null,
			"employee": {"full_name": "Ada", "user": {"full_name": "Ada L."}},
			"department": {"name": "R&D"}
		}`), &rec)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When looking up a top-level key", func() {
			v, ok := rec.Lookup("emp_id")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, "E1")
		})

		convey.Convey("When looking up a dotted path", func() {
			v, ok := rec.Lookup("employee.user.full_name")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, "Ada L.")

			v, ok = rec.Lookup("department.name")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, "R&D")
		})

		convey.Convey("When the key is present but null", func() {
			v, ok := rec.Lookup("manager")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldBeNil)
		})

		convey.Convey("When the path walks through a non-object", func() {
			_, ok := rec.Lookup("emp_id.value")
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = rec.Lookup("employee.missing")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestRankJSON(t *testing.T) {
	convey.Convey("Given normalized records", t, func() {
		convey.Convey("When the rank is absent", func() {
			out, err := json.Marshal(model.NormalizedRecord{EmployeeID: "E1", FullName: "Ada", Department: "-", Manager: "-", Score: 12.5})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldContainSubstring, `"rank":"-"`)
		})

		convey.Convey("When the rank is set", func() {
			out, err := json.Marshal(model.NormalizedRecord{Rank: 3})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldContainSubstring, `"rank":3`)
		})

		convey.Convey("When decoding", func() {
			var r model.Rank
			convey.So(json.Unmarshal([]byte(`"-"`), &r), convey.ShouldBeNil)
			convey.So(r, convey.ShouldEqual, model.NoRank)
			convey.So(json.Unmarshal([]byte(`7`), &r), convey.ShouldBeNil)
			convey.So(r, convey.ShouldEqual, model.Rank(7))
			convey.So(json.Unmarshal([]byte(`"x"`), &r), convey.ShouldNotBeNil)
		})
	})
}

func TestScope(t *testing.T) {
	convey.Convey("Given scope names", t, func() {
		convey.Convey("When parsing known scopes", func() {
			sc, err := model.ParseScope("manager")
			convey.So(err, convey.ShouldBeNil)
			convey.So(sc, convey.ShouldEqual, model.ScopeManager)
			convey.So(sc.Ranked(), convey.ShouldBeTrue)
			convey.So(sc.ScopeIDParam(), convey.ShouldEqual, "manager")
		})

		convey.Convey("When parsing an unknown scope", func() {
			_, err := model.ParseScope("quarterly")
			convey.So(errors.Is(err, model.ErrUnknownScope), convey.ShouldBeTrue)
		})

		convey.Convey("When a scope has no id parameter", func() {
			convey.So(model.ScopeWeekly.ScopeIDParam(), convey.ShouldEqual, "")
			convey.So(model.ScopeEmployees.Ranked(), convey.ShouldBeFalse)
		})

		convey.Convey("When the id is an all sentinel", func() {
			convey.So(model.ScopeIDValue(model.AllManagers), convey.ShouldEqual, "")
			convey.So(model.ScopeIDValue(model.AllDepartments), convey.ShouldEqual, "")
			convey.So(model.ScopeIDValue("M7"), convey.ShouldEqual, "M7")
		})
	})
}

func TestPage(t *testing.T) {
	convey.Convey("Given a page", t, func() {
		convey.So(model.Page{}.Last(), convey.ShouldBeTrue)
		convey.So(model.Page{NextPageToken: "2"}.Last(), convey.ShouldBeFalse)
	})
}
