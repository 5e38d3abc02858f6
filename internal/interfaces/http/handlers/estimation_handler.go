package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/application/estimation"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
)

// EstimationHandler exposes the estimation pipeline over HTTP.
type EstimationHandler struct {
	svc estimation.Service
	log logging.Logger
}

// NewEstimationHandler creates an EstimationHandler.
func NewEstimationHandler(svc estimation.Service, log logging.Logger) *EstimationHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &EstimationHandler{svc: svc, log: log.Named("estimation_handler")}
}

// Run handles POST /api/v1/estimations.  The pipeline can take minutes when
// the input-output table is cold, so the request context carries the full
// duration.
func (h *EstimationHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Estimate(r.Context())
	if err != nil {
		h.log.Error("estimation run failed", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Get handles GET /api/v1/estimations/{runID}.
func (h *EstimationHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "runID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeAppError(w, errors.New(errors.ErrCodeValidation, "run id must be a UUID"))
		return
	}

	result, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
