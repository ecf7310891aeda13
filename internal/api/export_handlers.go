package api

import (
	"io"
	"net/http"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/xlsx"
)

// handleExportOptionsXLSX renders a resolved options set as a workbook
// (spec "Supplemented features": Excel export).
func (s *Server) handleExportOptionsXLSX(w http.ResponseWriter, r *http.Request) {
	var req optionsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	options, err := s.compat.ResolveOptions(r.Context(), s.store.DB(), req.TargetLevel, toSelections(req.Selections), req.GroupFilter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := xlsx.BuildOptionsWorkbook(options).Build()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="options.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport loads a JSON product tree document (spec "Supplemented
// features": initial ingestion).
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, apperr.Validation("read request body: %v", err))
		return
	}
	stats, err := s.importer.Import(r.Context(), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleImportMerge folds a new document into the store's current
// contents without discarding curated pictures, links, or labels.
func (s *Server) handleImportMerge(w http.ResponseWriter, r *http.Request) {
	incoming, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, apperr.Validation("read request body: %v", err))
		return
	}
	existing, err := s.exporter.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, mergeStats, err := s.importer.ImportMerged(r.Context(), existing, incoming)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"import": stats, "merge": mergeStats})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
