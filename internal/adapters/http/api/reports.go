package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/perfboard/internal/app"
	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/session"
)

// maxPageSize bounds page_size on summary requests.
const maxPageSize = 500

// ReportDependencies defines the report operations.
type ReportDependencies interface {
	Report(ctx context.Context, sess session.Session, req service.ReportRequest) (model.Report, error)
	Summary(ctx context.Context, sess session.Session, req service.SummaryRequest) (service.SummaryPage, error)
}

// ReportsHandler handles report requests.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleReport handles GET /api/v1/reports/{scope}.
func (h *ReportsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"

	scope, err := model.ParseScope(chi.URLParam(r, "scope"))
	if err == nil && !scope.Ranked() {
		err = fmt.Errorf("%w: %q", model.ErrUnknownScope, scope)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	q := r.URL.Query()
	week, err := weekParam(op, q.Get("week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	report, err := h.deps.Report(r.Context(), requestSession(r), service.ReportRequest{
		Scope: scope,
		Week:  week,
		Filter: model.Filter{
			Manager:    strings.TrimSpace(q.Get("manager")),
			Department: strings.TrimSpace(q.Get("department")),
			Search:     q.Get("search"),
		},
		ViewID: r.Header.Get(HeaderViewID),
	})
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleSummary handles GET /api/v1/summary.
func (h *ReportsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"

	q := r.URL.Query()
	week, err := weekParam(op, q.Get("week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	page, err := intParam(op, "page", q.Get("page"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	size, err := intParam(op, "page_size", q.Get("page_size"), maxPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	order := strings.ToLower(q.Get("order"))
	if order != "" && order != "asc" && order != "desc" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, &paramError{name: "order", value: order}))
		return
	}

	result, err := h.deps.Summary(r.Context(), requestSession(r), service.SummaryRequest{
		Week:     week,
		Page:     page,
		PageSize: size,
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
		Order:    order,
	})
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
