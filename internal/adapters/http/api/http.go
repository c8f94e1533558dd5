// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/perfboard/internal/app"
	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/session"
	"github.com/okian/perfboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	WeekDependencies
	ReportDependencies
	EmployeeDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	weeksHandler     *WeeksHandler
	reportsHandler   *ReportsHandler
	employeeHandler  *EmployeeHandler
	scorecardHandler *ScorecardHandler

	fallback    session.Session
	reportRoles []session.Role
}

// Option configures a Server.
type Option func(*Server)

// WithFallbackSession sets the session used for requests without a bearer
// token. A session without token disables the fallback.
func WithFallbackSession(sess session.Session) Option {
	return func(s *Server) {
		s.fallback = sess
	}
}

// WithReportRoles sets the roles allowed on report routes.
func WithReportRoles(roles ...string) Option {
	return func(s *Server) {
		if len(roles) == 0 {
			return
		}
		s.reportRoles = s.reportRoles[:0]
		for _, r := range roles {
			s.reportRoles = append(s.reportRoles, session.ParseRole(r))
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		weeksHandler:     NewWeeksHandler(deps),
		reportsHandler:   NewReportsHandler(deps),
		employeeHandler:  NewEmployeeHandler(deps),
		scorecardHandler: NewScorecardHandler(time.Now),
		reportRoles:      []session.Role{session.RoleAdmin, session.RoleManager},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/weeks/current", MetricsMiddleware(s.weeksHandler.HandleCurrent, "weeks_current"))
		r.Post("/scorecards/validate", MetricsMiddleware(s.scorecardHandler.HandleValidate, "scorecards_validate"))

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(s.fallback))

			r.Get("/weeks/latest", MetricsMiddleware(s.weeksHandler.HandleLatest, "weeks_latest"))
			r.Get("/employees/{empID}/weeks/{week}", MetricsMiddleware(s.employeeHandler.HandleWeek, "employee_week"))
			r.Get("/employees/{empID}/weeks/{week}/exists", MetricsMiddleware(s.employeeHandler.HandleExists, "employee_week_exists"))

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(s.reportRoles...))
				r.Get("/reports/{scope}", MetricsMiddleware(s.reportsHandler.HandleReport, "reports"))
				r.Get("/summary", MetricsMiddleware(s.reportsHandler.HandleSummary, "summary"))
				r.Get("/employees", MetricsMiddleware(s.employeeHandler.HandleList, "employees"))
			})
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err, logs it once and writes the error response.
func fail(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= statusInternalError {
		logger.Get().Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// requestSession returns the session Authenticate stored on the request.
func requestSession(r *http.Request) session.Session {
	sess, _ := session.FromContext(r.Context())
	return sess
}

// weekParam parses an optional "YYYY-Www" value. Empty yields the zero key.
func weekParam(op, v string) (isoweek.WeekKey, error) {
	if strings.TrimSpace(v) == "" {
		return isoweek.WeekKey{}, nil
	}
	k, err := isoweek.Parse(v)
	if err != nil {
		return isoweek.WeekKey{}, WrapKind(op, ErrBadRequest, err)
	}
	return k, nil
}

// intParam parses an optional positive integer no larger than limit.
func intParam(op, name, v string, limit int) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || (limit > 0 && n > limit) {
		return 0, WrapKind(op, ErrBadRequest, &paramError{name: name, value: v})
	}
	return n, nil
}

type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " " + strconv.Quote(e.value)
}

// Compile-time check that the service satisfies the handler contracts.
var _ Dependencies = (*service.Service)(nil)
