package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/perfboard/internal/app"
	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/session"
)

// EmployeeDependencies defines the employee directory and the per-employee
// lookups.
type EmployeeDependencies interface {
	Employees(ctx context.Context, sess session.Session, search string) ([]model.NormalizedRecord, error)
	EmployeeWeek(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (service.EmployeeWeek, error)
	WeekExists(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (bool, error)
}

type existsResponse struct {
	EmployeeID string          `json:"employee_id"`
	Week       isoweek.WeekKey `json:"week"`
	Exists     bool            `json:"exists"`
}

type employeesResponse struct {
	Total   int                      `json:"total"`
	Records []model.NormalizedRecord `json:"records"`
}

// EmployeeHandler handles employee week requests.
type EmployeeHandler struct {
	deps EmployeeDependencies
}

// NewEmployeeHandler creates a new employee handler.
func NewEmployeeHandler(deps EmployeeDependencies) *EmployeeHandler {
	return &EmployeeHandler{deps: deps}
}

// HandleList handles GET /api/v1/employees.
func (h *EmployeeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_employees"

	records, err := h.deps.Employees(r.Context(), requestSession(r), r.URL.Query().Get("search"))
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	if records == nil {
		records = []model.NormalizedRecord{}
	}
	writeJSON(w, http.StatusOK, employeesResponse{Total: len(records), Records: records})
}

// HandleWeek handles GET /api/v1/employees/{empID}/weeks/{week}.
func (h *EmployeeHandler) HandleWeek(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee_week"

	empID, week, ok := employeeParams(op, w, r)
	if !ok {
		return
	}
	ew, err := h.deps.EmployeeWeek(r.Context(), requestSession(r), empID, week)
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ew)
}

// HandleExists handles GET /api/v1/employees/{empID}/weeks/{week}/exists.
func (h *EmployeeHandler) HandleExists(w http.ResponseWriter, r *http.Request) {
	const op = "api.employee_week_exists"

	empID, week, ok := employeeParams(op, w, r)
	if !ok {
		return
	}
	exists, err := h.deps.WeekExists(r.Context(), requestSession(r), empID, week)
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, existsResponse{EmployeeID: empID, Week: week, Exists: exists})
}

func employeeParams(op string, w http.ResponseWriter, r *http.Request) (string, isoweek.WeekKey, bool) {
	empID := chi.URLParam(r, "empID")
	if empID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return "", isoweek.WeekKey{}, false
	}
	week, err := isoweek.Parse(chi.URLParam(r, "week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return "", isoweek.WeekKey{}, false
	}
	return empID, week, true
}
