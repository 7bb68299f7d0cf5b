package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DataDaddy212/doney-mirror/internal/planner"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
	"github.com/DataDaddy212/doney-mirror/internal/workspace"
)

// planningUnavailable is the 501 error text for an unconfigured planner.
const planningUnavailable = "AI planning feature coming soon"

type generatePlanRequest struct {
	Parent any `json:"parent"`
}

type applyPlanResponse struct {
	Plan    *planner.Plan `json:"plan"`
	Added   []tree.Node   `json:"added"`
	Outcome tree.Outcome  `json:"outcome"`
}

func (s *Server) planStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// generatePlan returns a plan for a goal title without touching the tree.
func (s *Server) generatePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	parent, ok := req.Parent.(string)
	if !ok || strings.TrimSpace(parent) == "" {
		s.respondError(w, http.StatusBadRequest, "Parent goal is required and must be a string")
		return
	}
	if !s.plannerReady(w) {
		return
	}

	p, err := s.planner.Plan(r.Context(), parent)
	if err != nil {
		s.respondPlanError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

// planItem generates a plan for an existing item and adds every step as a
// child of it.
func (s *Server) planItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	n, found, err := s.find(r, id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if !found {
		s.respondError(w, http.StatusNotFound, tree.NotFound.Err(workspace.OpApplyPlan, id).Error())
		return
	}
	if !s.plannerReady(w) {
		return
	}

	p, err := s.planner.Plan(r.Context(), n.Title)
	if err != nil {
		s.respondPlanError(w, err)
		return
	}

	added, o, err := s.ws.ApplyPlan(r.Context(), id, p.Titles())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if s.respondRejected(w, workspace.OpApplyPlan, id, o) {
		return
	}
	s.respondJSON(w, http.StatusCreated, applyPlanResponse{Plan: p, Added: added, Outcome: o})
}

func (s *Server) find(r *http.Request, id string) (tree.Node, bool, error) {
	var (
		n     tree.Node
		found bool
	)
	err := s.ws.View(r.Context(), func(nodes []tree.Node) {
		n, found = tree.Find(id, nodes)
	})
	return n, found, err
}

func (s *Server) plannerReady(w http.ResponseWriter) bool {
	if s.planner != nil && s.planner.Configured() {
		return true
	}
	s.respondJSON(w, http.StatusNotImplemented, errorResponse{
		Error:   planningUnavailable,
		Message: "This feature will be available once a planner API key is configured",
	})
	return false
}

func (s *Server) respondPlanError(w http.ResponseWriter, err error) {
	switch planner.KindOf(err) {
	case planner.KindUnavailable:
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case planner.KindMalformed, planner.KindInvalid:
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.respondFailure(w, err)
	}
}
