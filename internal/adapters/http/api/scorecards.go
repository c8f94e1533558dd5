package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/perfboard/internal/domain/scorecard"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type validateRequest struct {
	scorecard.Form
	Remarks string `json:"remarks"`
}

type validateResponse struct {
	Scorecard scorecard.Scorecard `json:"scorecard"`
	Payload   scorecard.Payload   `json:"payload"`
}

type fieldProblem struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type invalidScorecardResponse struct {
	errorResponse
	Fields []fieldProblem `json:"fields"`
}

// ScorecardHandler validates metric-entry forms.
type ScorecardHandler struct {
	now func() time.Time
}

// NewScorecardHandler creates a new scorecard handler dating payloads with now.
func NewScorecardHandler(now func() time.Time) *ScorecardHandler {
	return &ScorecardHandler{now: now}
}

// HandleValidate handles POST /api/v1/scorecards/validate. A valid form
// yields the completed sheet and the submission payload; a form with rejected
// fields yields 422 with one entry per field.
func (h *ScorecardHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_scorecard"

	var req validateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	card, problems, err := req.Form.Validate()
	if len(problems) > 0 {
		resp := invalidScorecardResponse{
			errorResponse: errorResponse{Code: "invalid_scorecard", Message: Wrap(op, err).Error()},
			Fields:        make([]fieldProblem, 0, len(problems)),
		}
		for _, p := range problems {
			resp.Fields = append(resp.Fields, fieldProblem{Field: p.Field, Value: p.Value, Message: p.Err.Error()})
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if err != nil {
		if errors.Is(err, scorecard.ErrIncomplete) {
			fail(r.Context(), w, Wrap(op, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	payload := card.Payload(h.now())
	payload.Remarks = req.Remarks
	writeJSON(w, http.StatusOK, validateResponse{Scorecard: card, Payload: payload})
}
