package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/apperr"
)

// errorResponse is the JSON envelope for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError is the sole translator from apperr.Kind to a transport
// status code (spec §6, §7): every handler funnels its error return
// through this function instead of picking a status itself.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	kind := apperr.KindInternal
	msg := "internal error"

	if ae, ok := err.(*apperr.Error); ok {
		kind = ae.Kind
		msg = ae.Message
		switch ae.Kind {
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindForbidden:
			status = http.StatusForbidden
		case apperr.KindUnauthorised:
			status = http.StatusUnauthorized
		case apperr.KindIntegrity:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err), zap.String("path", r.URL.Path))
	} else {
		s.log.Debug("request rejected", zap.Error(err), zap.String("kind", string(kind)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, Kind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("malformed request body: %v", err)
	}
	return nil
}
