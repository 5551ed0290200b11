package api

import "net/http"

// RulesProvider exposes the active rule catalog.
type RulesProvider interface {
	Rules() RuleListing
}

// RulesHandler handles rule catalog requests.
type RulesHandler struct {
	deps RulesProvider
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(deps RulesProvider) *RulesHandler {
	return &RulesHandler{deps: deps}
}

// HandleGetRules handles GET /rules requests.
func (h *RulesHandler) HandleGetRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Rules())
}
