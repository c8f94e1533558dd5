package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/okian/perfboard/internal/session"
	. "github.com/smartystreets/goconvey/convey"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unused-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestFromToken(t *testing.T) {
	Convey("Given backend access tokens", t, func() {
		exp := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

		Convey("When the token carries role and numeric emp_id", func() {
			tok := sign(t, jwt.MapClaims{"role": "Manager", "emp_id": 1001, "username": "mgr", "exp": exp.Unix()})
			s, err := session.FromToken(tok)

			Convey("Then the session reflects the claims", func() {
				So(err, ShouldBeNil)
				So(s.Token, ShouldEqual, tok)
				So(s.Role, ShouldEqual, session.RoleManager)
				So(s.EmployeeID, ShouldEqual, "1001")
				So(s.Username, ShouldEqual, "mgr")
				So(s.ExpiresAt.Equal(exp), ShouldBeTrue)
				So(s.Expired(exp.Add(-time.Minute)), ShouldBeFalse)
				So(s.Expired(exp), ShouldBeTrue)
				So(s.Authorization(), ShouldEqual, "Bearer "+tok)
			})
		})

		Convey("When emp_id is absent", func() {
			s, err := session.FromToken(sign(t, jwt.MapClaims{"role": "employee", "user_id": "u-9"}))
			So(err, ShouldBeNil)
			So(s.EmployeeID, ShouldEqual, "u-9")
			So(s.ExpiresAt.IsZero(), ShouldBeTrue)
			So(s.Expired(time.Now()), ShouldBeFalse)
		})

		Convey("When the token is empty or not a JWT", func() {
			_, err := session.FromToken("  ")
			So(errors.Is(err, session.ErrNoToken), ShouldBeTrue)
			_, err = session.FromToken("opaque-service-token")
			So(errors.Is(err, session.ErrMalformedToken), ShouldBeTrue)
		})
	})
}

func TestAccess(t *testing.T) {
	Convey("Given sessions with different roles", t, func() {
		admin := session.Static("t", session.RoleAdmin)
		employee := session.Session{Role: session.RoleEmployee, EmployeeID: "E1"}

		So(admin.HasRole(session.RoleAdmin, session.RoleManager), ShouldBeTrue)
		So(employee.HasRole(session.RoleAdmin, session.RoleManager), ShouldBeFalse)
		So(admin.CanViewEmployee("E7"), ShouldBeTrue)
		So(employee.CanViewEmployee("E1"), ShouldBeTrue)
		So(employee.CanViewEmployee("E7"), ShouldBeFalse)
		So(session.Session{Role: session.RoleEmployee}.CanViewEmployee(""), ShouldBeFalse)
		So(session.Session{}.Authorization(), ShouldEqual, "")
	})
}

func TestContext(t *testing.T) {
	Convey("Given a context", t, func() {
		_, ok := session.FromContext(context.Background())
		So(ok, ShouldBeFalse)

		ctx := session.WithSession(context.Background(), session.Static("x", session.RoleAdmin))
		s, ok := session.FromContext(ctx)
		So(ok, ShouldBeTrue)
		So(s.Token, ShouldEqual, "x")
	})
}
