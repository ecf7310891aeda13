package api

import (
	"database/sql"
	"net/http"

	"github.com/tmkeil/variantconf/internal/model"
)

func (s *Server) handleCreateConstraint(w http.ResponseWriter, r *http.Request) {
	var c model.Constraint
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	var id int64
	err := s.store.WithTx(r.Context(), func(tx *sql.Tx) error {
		created, err := s.store.CreateConstraint(r.Context(), tx, &c)
		id = created
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteConstraint(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteConstraint(r.Context(), s.store.DB(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListConstraints(w http.ResponseWriter, r *http.Request) {
	if level, ok := queryInt(r, "level"); ok {
		cs, err := s.store.ConstraintsAtLevel(r.Context(), s.store.DB(), level)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
		return
	}
	cs, err := s.store.AllConstraints(r.Context(), s.store.DB())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}
