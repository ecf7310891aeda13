// Command server runs the variant configurator API: it loads
// configuration, opens the database, wires every engine, and serves
// the HTTP API until an interrupt or terminate signal arrives.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/admin"
	"github.com/tmkeil/variantconf/internal/api"
	"github.com/tmkeil/variantconf/internal/auth"
	"github.com/tmkeil/variantconf/internal/compat"
	"github.com/tmkeil/variantconf/internal/config"
	"github.com/tmkeil/variantconf/internal/constraint"
	"github.com/tmkeil/variantconf/internal/decoder"
	"github.com/tmkeil/variantconf/internal/groupinfer"
	"github.com/tmkeil/variantconf/internal/ingest"
	"github.com/tmkeil/variantconf/internal/logging"
	"github.com/tmkeil/variantconf/internal/media"
	"github.com/tmkeil/variantconf/internal/pathengine"
	"github.com/tmkeil/variantconf/internal/store"
	"github.com/tmkeil/variantconf/internal/successor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	debug := flag.Bool("debug", false, "enable development-mode logging")
	bootstrapUser := flag.String("bootstrap-admin", "", "create an initial admin with this username if no users exist")
	bootstrapPass := flag.String("bootstrap-password", "", "password for -bootstrap-admin")
	flag.Parse()

	log, err := logging.New(*debug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(*configPath, *bootstrapUser, *bootstrapPass, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(configPath, bootstrapUser, bootstrapPass string, log *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	paths := pathengine.New(db)
	compatEngine := compat.New(db)
	decoderEngine := decoder.New(db)
	constraintEngine := constraint.New(db)
	groupEngine := groupinfer.New(db)
	successorEngine := successor.New(db)
	adminEngine := admin.New(db, paths)
	issuer := auth.NewIssuer(cfg.Auth.SigningKey, cfg.Auth.TokenTTL)
	mediaStore := newMediaStore(cfg.Media)
	importer := ingest.New(db)
	exporter := ingest.NewExporter(db)

	if bootstrapUser != "" {
		if err := bootstrapAdmin(ctx, adminEngine, bootstrapUser, bootstrapPass); err != nil {
			return err
		}
	}

	srv := api.NewServer(api.Deps{
		Log:        log,
		Store:      db,
		Paths:      paths,
		Compat:     compatEngine,
		Decoder:    decoderEngine,
		Constraint: constraintEngine,
		Group:      groupEngine,
		Successor:  successorEngine,
		Admin:      adminEngine,
		Issuer:     issuer,
		Media:      mediaStore,
		Importer:   importer,
		Exporter:   exporter,
		CompatTTL:  cfg.Cache.CompatTTL,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Router(cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newMediaStore(cfg config.MediaConfig) media.Store {
	if cfg.BlobEndpoint != "" {
		return media.NewHTTPBlob(cfg.BlobEndpoint)
	}
	return media.NewLocalFS(cfg.LocalDir, cfg.LocalBaseURL)
}

func bootstrapAdmin(ctx context.Context, adminEngine *admin.Engine, username, password string) error {
	if password == "" {
		return errors.New("bootstrap-password is required alongside bootstrap-admin")
	}
	users, err := adminEngine.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = adminEngine.BootstrapAdmin(ctx, username, hash)
	return err
}
