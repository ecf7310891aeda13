package api

import (
	"net/http"

	"github.com/tmkeil/variantconf/internal/model"
)

func (s *Server) handleCreateKmat(w http.ResponseWriter, r *http.Request) {
	var k model.KmatReference
	if err := decodeJSON(r, &k); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateKmatReference(r.Context(), s.store.DB(), &k)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteKmat(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteKmatReference(r.Context(), s.store.DB(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListKmat(w http.ResponseWriter, r *http.Request) {
	familyID, err := idParam(r, "familyID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refs, err := s.store.KmatReferencesFor(r.Context(), s.store.DB(), familyID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}
