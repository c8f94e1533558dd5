package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/session"
)

// WeekDependencies defines the week lookups.
type WeekDependencies interface {
	CurrentWeek(date time.Time) isoweek.WeekKey
	LatestWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error)
	ReportWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error)
}

// weekResponse describes one ISO week.
type weekResponse struct {
	Week   isoweek.WeekKey `json:"week"`
	Year   int             `json:"year"`
	Number int             `json:"week_number"`
	Monday string          `json:"monday"`
}

func newWeekResponse(k isoweek.WeekKey) weekResponse {
	return weekResponse{Week: k, Year: k.Year, Number: k.Week, Monday: k.Monday().Format(time.DateOnly)}
}

// WeeksHandler handles week requests.
type WeeksHandler struct {
	deps WeekDependencies
}

// NewWeeksHandler creates a new weeks handler.
func NewWeeksHandler(deps WeekDependencies) *WeeksHandler {
	return &WeeksHandler{deps: deps}
}

// HandleCurrent handles GET /api/v1/weeks/current?date=YYYY-MM-DD.
func (h *WeeksHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	const op = "api.current_week"

	var date time.Time
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		date = d
	}
	writeJSON(w, http.StatusOK, newWeekResponse(h.deps.CurrentWeek(date)))
}

// HandleLatest handles GET /api/v1/weeks/latest. With source=reports it
// returns the newest report week instead of the latest evaluation week.
func (h *WeeksHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	const op = "api.latest_week"

	sess := requestSession(r)
	var (
		k   isoweek.WeekKey
		err error
	)
	switch source := r.URL.Query().Get("source"); source {
	case "", "evaluations":
		k, err = h.deps.LatestWeek(r.Context(), sess)
	case "reports":
		k, err = h.deps.ReportWeek(r.Context(), sess)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, &paramError{name: "source", value: source}))
		return
	}
	if err != nil {
		fail(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newWeekResponse(k))
}
