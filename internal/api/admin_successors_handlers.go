package api

import (
	"net/http"

	"github.com/tmkeil/variantconf/internal/model"
)

func (s *Server) handleCreateSuccessor(w http.ResponseWriter, r *http.Request) {
	var succ model.Successor
	if err := decodeJSON(r, &succ); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateSuccessor(r.Context(), s.store.DB(), &succ)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteSuccessor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteSuccessor(r.Context(), s.store.DB(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkSuccessorRequest struct {
	SourceIDs []int64 `json:"source_ids"`
	TargetIDs []int64 `json:"target_ids"`
}

func (s *Server) handleBulkCreateSuccessors(w http.ResponseWriter, r *http.Request) {
	var req bulkSuccessorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sources, err := s.fetchNodes(r, req.SourceIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	targets, err := s.fetchNodes(r, req.TargetIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.successor.BulkCreate(r.Context(), s.store.DB(), sources, targets)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) fetchNodes(r *http.Request, ids []int64) ([]*model.Node, error) {
	nodes := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.store.GetNode(r.Context(), s.store.DB(), id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
