package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxAwardBody bounds POST /awards payloads.
const maxAwardBody = 64 << 10

// AwardDependencies defines the ledger operations used by award routes.
type AwardDependencies interface {
	Award(ctx context.Context, req AwardRequest) (AwardRecord, error)
	Awards(ctx context.Context, clID string) ([]AwardRecord, error)
}

// AwardsHandler handles award requests.
type AwardsHandler struct {
	deps AwardDependencies
}

// NewAwardsHandler creates a new awards handler.
func NewAwardsHandler(deps AwardDependencies) *AwardsHandler {
	return &AwardsHandler{deps: deps}
}

// HandlePostAward handles POST /awards requests.
func (h *AwardsHandler) HandlePostAward(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_award"

	var req AwardRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAwardBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if code := domainCode(err); code != "" {
			writeError(w, http.StatusUnprocessableEntity, code, WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Award(r.Context(), req)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleListAwards handles GET /awards/{cl_id} requests.
func (h *AwardsHandler) HandleListAwards(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_awards"

	recs, err := h.deps.Awards(r.Context(), chi.URLParam(r, "cl_id"))
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	if recs == nil {
		recs = []AwardRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}
