// Package session carries the caller's identity from the edge (HTTP request,
// CLI flags, login) down to the backend client.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the dashboard role of a user.
type Role string

// Known roles.
const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ParseRole normalizes a role name. Unknown names are kept lowercased.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Session is an authenticated caller.
type Session struct {
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	Role         Role      `json:"role"`
	EmployeeID   string    `json:"emp_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	FullName     string    `json:"full_name,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// Claims are the fields the backend puts in its access tokens.
type Claims struct {
	Role     string     `json:"role"`
	EmpID    claimValue `json:"emp_id"`
	UserID   claimValue `json:"user_id"`
	Username string     `json:"username"`
	FullName string     `json:"full_name"`
	jwt.RegisteredClaims
}

// claimValue accepts a JSON string or number.
type claimValue string

func (c *claimValue) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*c = ""
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		*c = claimValue(unq)
		return nil
	}
	*c = claimValue(s)
	return nil
}

// FromToken builds a session from a bearer token. The token signature is not
// checked here; the backend verifies it on every call. The role and employee
// id are read from the token claims, falling back to user_id when emp_id is
// absent.
func FromToken(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrNoToken
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	s := Session{
		Token:      token,
		Role:       ParseRole(claims.Role),
		EmployeeID: string(claims.EmpID),
		Username:   claims.Username,
		FullName:   claims.FullName,
	}
	if s.EmployeeID == "" {
		s.EmployeeID = string(claims.UserID)
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Static builds a session for an opaque service token with a fixed role.
func Static(token string, role Role) Session {
	return Session{Token: token, Role: role}
}

// Expired reports whether the session has an expiry in the past.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// HasRole reports whether the session holds one of roles.
func (s Session) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// CanViewEmployee reports whether the session may read empID's evaluations.
// Admins and managers see everyone; anyone else only themselves.
func (s Session) CanViewEmployee(empID string) bool {
	if s.HasRole(RoleAdmin, RoleManager) {
		return true
	}
	return s.EmployeeID != "" && s.EmployeeID == empID
}

// Authorization returns the header value for backend requests, or "".
func (s Session) Authorization() string {
	if s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}

type ctxKey string

const sessionKey ctxKey = "session"

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
