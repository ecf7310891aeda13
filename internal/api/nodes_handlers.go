package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tmkeil/variantconf/internal/apperr"
)

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid id %q", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// handleFamilies lists every product family (level-0 node).
func (s *Server) handleFamilies(w http.ResponseWriter, r *http.Request) {
	families, err := s.store.TopLevelFamilies(r.Context(), s.store.DB())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, families)
}

// handleChildren lists the immediate children of a node, transparently
// skipping pattern containers (spec §6: "children of a code or id
// transparently skipping pattern containers").
func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	children, err := s.store.SkipPatternChildren(r.Context(), s.store.DB(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (s *Server) handleMaxLevel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	level, err := s.paths.MaxLevelBelow(r.Context(), s.store.DB(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"max_level": level})
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	skipPatterns := r.URL.Query().Get("skip_patterns") == "true"
	ancestors, err := s.store.AncestorsOf(r.Context(), s.store.DB(), id, skipPatterns)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ancestors)
}

func (s *Server) handleSubtreeInfo(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.admin.SubtreeInfo(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleNodeByCode resolves ?code=&level=&family= to matching node ids
// (spec §6: "node by code").
func (s *Server) handleNodeByCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeError(w, r, apperr.Validation("code is required"))
		return
	}
	level, hasLevel := queryInt(r, "level")
	if !hasLevel {
		nodes, err := s.store.NodesByCodeAnyLevel(r.Context(), s.store.DB(), code)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nodes)
		return
	}
	var family *int64
	if fid, ok := queryInt(r, "family"); ok {
		f := int64(fid)
		family = &f
	}
	ids, err := s.store.NodesByCodeLevel(r.Context(), s.store.DB(), code, level, family)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": ids})
}

func (s *Server) handleNodeSuccessor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	succ, found, err := s.successor.Resolve(r.Context(), s.store.DB(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]bool{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, succ)
}
