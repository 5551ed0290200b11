package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ReportDependencies defines the interface for score reports.
type ReportDependencies interface {
	Report(ctx context.Context, clID string) (ScoreReport, error)
}

// ReportsHandler handles report requests.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleGetReport handles GET /reports/{cl_id} requests.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"

	report, err := h.deps.Report(r.Context(), chi.URLParam(r, "cl_id"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
