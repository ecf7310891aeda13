package api

import (
	"fmt"
	"net/http"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

type selectionDTO struct {
	Level int     `json:"level"`
	Code  string  `json:"code"`
	IDs   []int64 `json:"ids"`
}

func toSelections(dtos []selectionDTO) []model.Selection {
	out := make([]model.Selection, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, model.NewSelection(d.Level, d.Code, d.IDs))
	}
	return out
}

type optionsRequest struct {
	TargetLevel int            `json:"target_level"`
	Selections  []selectionDTO `json:"selections"`
	GroupFilter *string        `json:"group_filter"`
}

// handleOptions is the §4.4 hot path: options at a target level given
// the current selections, cached briefly since the same selection set
// is polled repeatedly while a user configures a product.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	var req optionsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	key := cacheKeyForOptions(req)
	if cached, ok := s.respCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	options, err := s.compat.ResolveOptions(r.Context(), s.store.DB(), req.TargetLevel, toSelections(req.Selections), req.GroupFilter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respCache.Set(key, options)
	writeJSON(w, http.StatusOK, options)
}

type searchRequest struct {
	optionsRequest
	CodePrefix  string `json:"code_prefix"`
	CodeLength  int    `json:"code_length"`
	LabelSubstr string `json:"label_substr"`
}

func (s *Server) handleOptionsSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	options, err := s.compat.SearchOptions(r.Context(), s.store.DB(), req.TargetLevel, toSelections(req.Selections),
		req.GroupFilter, req.CodePrefix, req.CodeLength, req.LabelSubstr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

type derivedGroupRequest struct {
	FamilyID   int64          `json:"family_id"`
	Selections []selectionDTO `json:"selections"`
}

func (s *Server) handleDerivedGroup(w http.ResponseWriter, r *http.Request) {
	var req derivedGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.group.DerivedGroup(r.Context(), s.store.DB(), req.FamilyID, toSelections(req.Selections))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type decodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.decoder.Decode(r.Context(), s.store.DB(), req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCheck is the minimal-result variant of decode (spec §6: "check
// type-code, minimal result"): callers that just need exists/type don't
// pay for building the full segment list.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.decoder.Decode(r.Context(), s.store.DB(), req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exists":       result.Exists,
		"product_type": result.ProductType,
	})
}

type validateRequest struct {
	Level      int            `json:"level"`
	Code       string         `json:"code"`
	Selections []selectionDTO `json:"selections"`
}

func (s *Server) handleValidateConstraints(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sel := make(map[int]string, len(req.Selections))
	for _, d := range req.Selections {
		sel[d.Level] = d.Code
	}
	result, err := s.constraint.Validate(r.Context(), s.store.DB(), req.Level, req.Code, sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type configuredSuccessorRequest struct {
	Path []int64 `json:"path"`
}

func (s *Server) handleConfiguredSuccessor(w http.ResponseWriter, r *http.Request) {
	var req configuredSuccessorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Path) == 0 {
		s.writeError(w, r, apperr.Validation("path must be non-empty"))
		return
	}
	succ, found, err := s.successor.ResolveForPath(r.Context(), s.store.DB(), req.Path)
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

func cacheKeyForOptions(req optionsRequest) string {
	key := fmt.Sprintf("options:%d", req.TargetLevel)
	if req.GroupFilter != nil {
		key += ":" + *req.GroupFilter
	}
	for _, sel := range req.Selections {
		key += fmt.Sprintf(";%d:%s:%v", sel.Level, sel.Code, sel.IDs)
	}
	return key
}
