package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
	"github.com/DataDaddy212/doney-mirror/internal/workspace"
)

type createItemRequest struct {
	Title    string `json:"title" validate:"required"`
	ParentID string `json:"parentId"`
}

type updateItemRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type moveItemRequest struct {
	ParentID string `json:"parentId"`
	Position string `json:"position"`
}

type reorderItemRequest struct {
	Index *int `json:"index" validate:"required"`
}

type reorderRootsRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

type outcomeResponse struct {
	Outcome tree.Outcome `json:"outcome"`
}

type deleteResponse struct {
	Outcome tree.Outcome `json:"outcome"`
	Removed int          `json:"removed"`
}

type itemsResponse struct {
	Items   []tree.Node  `json:"items"`
	Outcome tree.Outcome `json:"outcome"`
}

type itemResponse struct {
	Item    tree.Node    `json:"item"`
	Outcome tree.Outcome `json:"outcome"`
}

// listItems returns the flat sequence. The status, level and sort query
// parameters narrow and order it as tree.Select does.
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nodes, err := s.ws.Nodes(r.Context())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if !filter.IsZero() {
		nodes = tree.Select(nodes, filter)
	}
	s.respondJSON(w, http.StatusOK, nodes)
}

func filterFromQuery(r *http.Request) (tree.Filter, error) {
	q := r.URL.Query()
	var f tree.Filter
	var err error
	if f.Status, err = tree.ParseStatus(q.Get("status")); err != nil {
		return f, err
	}
	if f.Sort, err = tree.ParseSortOrder(q.Get("sort")); err != nil {
		return f, err
	}
	if v := q.Get("level"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil || level < 1 {
			return f, fmt.Errorf("invalid level %q: must be a positive integer", v)
		}
		f.Level = level
	}
	return f, nil
}

// listParents returns the nodes the item could be moved under.
func (s *Server) listParents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		parents []tree.Node
		found   bool
	)
	err := s.ws.View(r.Context(), func(nodes []tree.Node) {
		if found = tree.Contains(id, nodes); found {
			parents = tree.ValidParents(id, nodes)
		}
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if !found {
		s.respondError(w, http.StatusNotFound, tree.NotFound.Err(workspace.OpReparent, id).Error())
		return
	}
	s.respondJSON(w, http.StatusOK, parents)
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	var forest []*tree.TreeNode
	err := s.ws.View(r.Context(), func(nodes []tree.Node) {
		forest = tree.Build(nodes)
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, forest)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	var stats tree.Stats
	err := s.ws.View(r.Context(), func(nodes []tree.Node) {
		stats = tree.Summarize(nodes)
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if titles := tree.SplitTitles(req.Title); len(titles) > 1 {
		s.createItems(w, r, req.ParentID, titles)
		return
	}

	n, o, err := s.ws.Add(r.Context(), req.Title, req.ParentID)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if s.respondRejected(w, workspace.OpAdd, req.ParentID, o) {
		return
	}
	s.respondJSON(w, http.StatusCreated, itemResponse{Item: n, Outcome: o})
}

// createItems adds one child of parentID per title in a single step.
func (s *Server) createItems(w http.ResponseWriter, r *http.Request, parentID string, titles []string) {
	added, o, err := s.ws.ApplyPlan(r.Context(), parentID, titles)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if s.respondRejected(w, workspace.OpAdd, parentID, o) {
		return
	}
	s.respondJSON(w, http.StatusCreated, itemsResponse{Items: added, Outcome: o})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateItemRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, o, err := s.ws.Update(r.Context(), id, tree.Patch{Title: req.Title, Completed: req.Completed})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if s.respondRejected(w, workspace.OpUpdate, id, o) {
		return
	}
	s.respondJSON(w, http.StatusOK, itemResponse{Item: n, Outcome: o})
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, o, err := s.ws.Delete(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if s.respondRejected(w, workspace.OpDelete, id, o) {
		return
	}
	s.respondJSON(w, http.StatusOK, deleteResponse{Outcome: o, Removed: removed})
}

func (s *Server) moveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req moveItemRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pos, err := tree.ParsePosition(req.Position)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := s.ws.Reparent(r.Context(), id, req.ParentID, pos)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if s.respondRejected(w, workspace.OpReparent, id, o) {
		return
	}
	s.respondJSON(w, http.StatusOK, outcomeResponse{Outcome: o})
}

func (s *Server) reorderItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req reorderItemRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := s.ws.Reorder(r.Context(), id, *req.Index)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if s.respondRejected(w, workspace.OpReorder, id, o) {
		return
	}
	s.respondJSON(w, http.StatusOK, outcomeResponse{Outcome: o})
}

func (s *Server) reorderRoots(w http.ResponseWriter, r *http.Request) {
	var req reorderRootsRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := s.ws.ReorderRoots(r.Context(), req.IDs)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, outcomeResponse{Outcome: o})
}
