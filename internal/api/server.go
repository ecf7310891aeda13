// Package api is the HTTP facade: a chi router exposing every engine
// built in the other internal packages, and the sole place that
// translates an apperr.Kind into a transport status code (spec §6).
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/admin"
	"github.com/tmkeil/variantconf/internal/auth"
	"github.com/tmkeil/variantconf/internal/cache"
	"github.com/tmkeil/variantconf/internal/compat"
	"github.com/tmkeil/variantconf/internal/constraint"
	"github.com/tmkeil/variantconf/internal/decoder"
	"github.com/tmkeil/variantconf/internal/groupinfer"
	"github.com/tmkeil/variantconf/internal/ingest"
	"github.com/tmkeil/variantconf/internal/media"
	"github.com/tmkeil/variantconf/internal/pathengine"
	"github.com/tmkeil/variantconf/internal/store"
	"github.com/tmkeil/variantconf/internal/successor"
)

// Server holds every dependency the handlers need. It is never mutated
// after construction, so handler methods are safe for concurrent use.
type Server struct {
	log *zap.Logger

	store      *store.Store
	paths      *pathengine.Engine
	compat     *compat.Engine
	decoder    *decoder.Engine
	constraint *constraint.Engine
	group      *groupinfer.Engine
	successor  *successor.Engine
	admin      *admin.Engine
	issuer     *auth.Issuer
	media      media.Store
	importer   *ingest.Importer
	exporter   *ingest.Exporter
	compatTTL  time.Duration
	respCache  *cache.InMemory
}

// Deps bundles the constructed engines a caller assembles in main.
type Deps struct {
	Log        *zap.Logger
	Store      *store.Store
	Paths      *pathengine.Engine
	Compat     *compat.Engine
	Decoder    *decoder.Engine
	Constraint *constraint.Engine
	Group      *groupinfer.Engine
	Successor  *successor.Engine
	Admin      *admin.Engine
	Issuer     *auth.Issuer
	Media      media.Store
	Importer   *ingest.Importer
	Exporter   *ingest.Exporter
	CompatTTL  time.Duration
	AllowedOrigins []string
}

func NewServer(d Deps) *Server {
	return &Server{
		log:        d.Log,
		store:      d.Store,
		paths:      d.Paths,
		compat:     d.Compat,
		decoder:    d.Decoder,
		constraint: d.Constraint,
		group:      d.Group,
		successor:  d.Successor,
		admin:      d.Admin,
		issuer:     d.Issuer,
		media:      d.Media,
		importer:   d.Importer,
		exporter:   d.Exporter,
		compatTTL:  d.CompatTTL,
		respCache:  cache.NewInMemory(d.CompatTTL),
	}
}

// Router builds the full route tree.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Post("/auth/login", s.handleLogin)

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/families", s.handleFamilies)
		r.Get("/{id}/children", s.handleChildren)
		r.Get("/{id}/max-level", s.handleMaxLevel)
		r.Get("/{id}/ancestors", s.handleAncestors)
		r.Get("/{id}/subtree-info", s.handleSubtreeInfo)
		r.Get("/by-code", s.handleNodeByCode)
		r.Get("/{id}/successor", s.handleNodeSuccessor)
	})

	r.Route("/configurator", func(r chi.Router) {
		r.Post("/options", s.handleOptions)
		r.Post("/options/search", s.handleOptionsSearch)
		r.Post("/derived-group", s.handleDerivedGroup)
		r.Post("/decode", s.handleDecode)
		r.Post("/check", s.handleCheck)
		r.Post("/validate", s.handleValidateConstraints)
		r.Post("/successor", s.handleConfiguredSuccessor)
		r.Post("/export/xlsx", s.handleExportOptionsXLSX)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/nodes", s.requireRole(s.handleCreateNode, "admin", "user"))
		r.Put("/nodes/{id}", s.requireRole(s.handleUpdateNode, "admin", "user"))
		r.Delete("/nodes/{id}", s.requireRole(s.handleDeleteNode, "admin", "user"))
		r.Post("/families", s.requireRole(s.handleCreateFamily, "admin"))
		r.Delete("/families/{id}", s.requireRole(s.handleDeleteFamily, "admin"))
		r.Post("/bulk-update", s.requireRole(s.handleBulkUpdate, "admin", "user"))
		r.Post("/nodes/{id}/deep-copy", s.requireRole(s.handleDeepCopy, "admin", "user"))
		r.Post("/nodes/{id}/move", s.requireRole(s.handleMoveNode, "admin", "user"))
		r.Post("/filter", s.requireRole(s.handleFilterNodes, "admin", "user"))

		r.Post("/constraints", s.requireRole(s.handleCreateConstraint, "admin"))
		r.Delete("/constraints/{id}", s.requireRole(s.handleDeleteConstraint, "admin"))
		r.Get("/constraints", s.requireRole(s.handleListConstraints, "admin", "user"))

		r.Post("/successors", s.requireRole(s.handleCreateSuccessor, "admin"))
		r.Post("/successors/bulk", s.requireRole(s.handleBulkCreateSuccessors, "admin"))
		r.Delete("/successors/{id}", s.requireRole(s.handleDeleteSuccessor, "admin"))

		r.Post("/kmat", s.requireRole(s.handleCreateKmat, "admin"))
		r.Delete("/kmat/{id}", s.requireRole(s.handleDeleteKmat, "admin"))
		r.Get("/kmat/{familyID}", s.requireRole(s.handleListKmat, "admin", "user"))

		r.Get("/users", s.requireRole(s.handleListUsers, "admin"))
		r.Post("/users", s.requireRole(s.handleCreateUser, "admin"))
		r.Put("/users/{id}/active", s.requireRole(s.handleSetUserActive, "admin"))
		r.Delete("/users/{id}", s.requireRole(s.handleDeleteUser, "admin"))
		r.Post("/users/{id}/reset-password", s.requireRole(s.handleResetPassword, "admin"))
		r.Post("/users/first-login", s.handleCompleteFirstLogin)

		r.Post("/nodes/{id}/pictures", s.requireRole(s.handleUploadPicture, "admin", "user"))
		r.Delete("/nodes/{id}/pictures", s.requireRole(s.handleDeletePicture, "admin", "user"))
		r.Post("/nodes/{id}/links", s.requireRole(s.handleAddLink, "admin", "user"))
		r.Delete("/nodes/{id}/links", s.requireRole(s.handleDeleteLink, "admin", "user"))

		r.Post("/import", s.requireRole(s.handleImport, "admin"))
		r.Post("/import/merge", s.requireRole(s.handleImportMerge, "admin"))
		r.Get("/export", s.requireRole(s.handleExport, "admin", "user"))
	})

	return r
}
