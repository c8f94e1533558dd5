package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/domain/normalize"
	"github.com/okian/perfboard/internal/session"
)

// LatestWeek returns the backend's current processing week.
func (c *Client) LatestWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error) {
	return c.weekAt(ctx, sess, PathLatestWeek)
}

// ReportsLatestWeek returns the newest week that has report data.
func (c *Client) ReportsLatestWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error) {
	return c.weekAt(ctx, sess, PathReportsLatestWeek)
}

func (c *Client) weekAt(ctx context.Context, sess session.Session, path string) (isoweek.WeekKey, error) {
	var body map[string]any
	if err := c.get(ctx, sess, path, nil, &body); err != nil {
		return isoweek.WeekKey{}, err
	}
	year, okY := normalize.Number(body["year"])
	week, okW := normalize.Number(body["week"])
	k := isoweek.WeekKey{Year: int(year), Week: int(week)}
	if !okY || !okW || !k.Valid() {
		return isoweek.WeekKey{}, fmt.Errorf("%w: %s: no valid year/week in response", ErrMalformed, path)
	}
	return k, nil
}

// CheckDuplicate reports whether empID already has an evaluation for week.
func (c *Client) CheckDuplicate(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (bool, error) {
	q := url.Values{}
	q.Set("emp_id", empID)
	q.Set("year", strconv.Itoa(week.Year))
	q.Set("week", strconv.Itoa(week.Week))

	var body struct {
		Exists *bool `json:"exists"`
	}
	if err := c.get(ctx, sess, PathCheckDuplicate, q, &body); err != nil {
		return false, err
	}
	if body.Exists == nil {
		return false, fmt.Errorf("%w: %s: missing exists", ErrMalformed, PathCheckDuplicate)
	}
	return *body.Exists, nil
}

// EmployeeWeek returns one employee's evaluation object for week, including
// its scores map or metrics list. A list-shaped response yields its first
// record; an empty one is reported as a 404 StatusError.
func (c *Client) EmployeeWeek(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (model.RawRecord, error) {
	q := Query{Scope: model.ScopeEmployee, ScopeID: empID, Week: &week}

	var body any
	if err := c.get(ctx, sess, PathEmployeeWeek, q.Values(), &body); err != nil {
		return nil, err
	}
	if obj, ok := body.(map[string]any); ok && recordsOf(obj) == nil {
		return model.RawRecord(obj), nil
	}
	page := decodePage(body, 1)
	if len(page.Records) == 0 {
		return nil, &StatusError{Code: http.StatusNotFound, Endpoint: PathEmployeeWeek, Body: "no evaluation for " + empID + " in " + week.String()}
	}
	return page.Records[0], nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	req := map[string]string{"username": username, "password": password}
	var body struct {
		Token    string `json:"token"`
		Access   string `json:"access"`
		Refresh  string `json:"refresh"`
		Role     string `json:"role"`
		Username string `json:"username"`
		EmpID    any    `json:"emp_id"`
		FullName string `json:"full_name"`
	}
	if err := c.request(ctx, session.Session{}, http.MethodPost, PathLogin, nil, req, &body); err != nil {
		return session.Session{}, err
	}

	token := body.Token
	if token == "" {
		token = body.Access
	}
	if token == "" {
		return session.Session{}, fmt.Errorf("%w: %s: no token in response", ErrMalformed, PathLogin)
	}

	// Prefer claims from the token and fill the gaps from the body.
	s, err := session.FromToken(token)
	if err != nil {
		s = session.Session{Token: token}
	}
	s.RefreshToken = body.Refresh
	if body.Role != "" {
		s.Role = session.ParseRole(body.Role)
	}
	if body.Username != "" {
		s.Username = body.Username
	}
	if body.FullName != "" {
		s.FullName = body.FullName
	}
	if id := normalize.Text(model.RawRecord{"emp_id": body.EmpID}, []string{"emp_id"}); id != model.Placeholder {
		s.EmployeeID = id
	}
	return s, nil
}
