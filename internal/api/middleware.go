package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/auth"
)

type claimsKey struct{}

// requestLogger logs one line per request at Info, carrying chi's
// request id so a trace can be grepped end to end.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// requireAuth verifies the bearer token and stashes its claims in the
// request context for downstream handlers and requireRole.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			s.writeError(w, r, apperr.Unauthorised("missing bearer token"))
			return
		}
		claims, err := s.issuer.VerifyToken(strings.TrimPrefix(header, prefix))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(claimsKey{}).(*auth.Claims)
	return c
}

// requireRole wraps a handler so it runs only for the listed roles;
// requireAuth must run first to populate the request's claims.
func (s *Server) requireRole(h http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		if claims == nil {
			s.writeError(w, r, apperr.Unauthorised("missing bearer token"))
			return
		}
		allowed := false
		for _, role := range roles {
			if string(claims.Role) == role {
				allowed = true
				break
			}
		}
		if !allowed {
			s.writeError(w, r, apperr.Forbidden("role %s is not permitted", claims.Role))
			return
		}
		h(w, r)
	}
}
