package api

import (
	"net/http"

	"github.com/tmkeil/variantconf/internal/admin"
	"github.com/tmkeil/variantconf/internal/model"
)

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var n model.Node
	if err := decodeJSON(r, &n); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.admin.CreateNode(r.Context(), &n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var n model.Node
	if err := decodeJSON(r, &n); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.admin.CreateFamily(r.Context(), &n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var n model.Node
	if err := decodeJSON(r, &n); err != nil {
		s.writeError(w, r, err)
		return
	}
	n.ID = id
	if err := s.admin.UpdateNode(r.Context(), &n); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.DeleteNode(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.DeleteFamily(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkUpdateRequest struct {
	IDs   []int64              `json:"ids"`
	Field admin.BulkField      `json:"field"`
	Mode  admin.BulkUpdateMode `json:"mode"`
	Value string               `json:"value"`
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.admin.BulkUpdate(r.Context(), req.IDs, req.Field, req.Mode, req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

type deepCopyRequest struct {
	NewParentID *int64 `json:"new_parent_id"`
}

func (s *Server) handleDeepCopy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req deepCopyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	newRootID, mapping, err := s.admin.DeepCopy(r.Context(), id, req.NewParentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"new_root_id":   newRootID,
		"nodes_created": len(mapping),
		"id_mapping":    mapping,
	})
}

type moveNodeRequest struct {
	NewParentID *int64 `json:"new_parent_id"`
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req moveNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.MoveNode(r.Context(), id, req.NewParentID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type filterRequest struct {
	CandidateIDs []int64           `json:"candidate_ids"`
	Query        admin.FilterQuery `json:"query"`
}

func (s *Server) handleFilterNodes(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	candidates := make([]*model.Node, 0, len(req.CandidateIDs))
	for _, id := range req.CandidateIDs {
		n, err := s.store.GetNode(r.Context(), s.store.DB(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		candidates = append(candidates, n)
	}
	filtered, err := s.admin.FilterNodes(r.Context(), candidates, req.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filtered)
}
