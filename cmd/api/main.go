package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-health-tracker/internal/adapters/auth/introspect"
	"pet-health-tracker/internal/adapters/auth/jwtauth"
	mem "pet-health-tracker/internal/adapters/storage/memory"
	"pet-health-tracker/internal/adapters/storage/mongostore"
	pg "pet-health-tracker/internal/adapters/storage/postgres"
	"pet-health-tracker/internal/adapters/storage/redisstore"
	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/platform/config"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/metrics"
	"pet-health-tracker/internal/ports/auth"
	"pet-health-tracker/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	// .env es opcional; las env vars reales tienen prioridad.
	_ = godotenv.Load()

	if err := run(); err != nil {
		logger.NewFromEnv().Error("server stopped with error", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.AppName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	revoker, closeRevoker, err := openRevoker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRevoker()

	verifier, tokens, err := buildAuth(cfg, revoker, log)
	if err != nil {
		return err
	}

	if cfg.Admin.Password != "" {
		if err := users.NewService(stores.Users, cfg.Admin.Username, log).EnsureAdmin(ctx, cfg.Admin.Password); err != nil {
			return err
		}
	} else {
		log.Warn("ADMIN_PASSWORD not set, default admin not ensured", nil)
	}

	handler := router.NewRouter(router.Options{
		Verifier:       verifier,
		Tokens:         tokens,
		Revoker:        revoker,
		Stores:         stores,
		Logger:         log,
		Metrics:        metrics.New(),
		AdminUsername:  cfg.Admin.Username,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		CookieSecure:   cfg.Auth.CookieSecure,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Slog().Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "env": cfg.AppEnv, "storage": cfg.Storage.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, log logger.Logger) (router.Stores, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return router.Stores{}, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }

		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			closeFn()
			return router.Stores{}, nil, err
		}
		photos, err := mongostore.NewPhotoStore(db)
		if err != nil {
			closeFn()
			return router.Stores{}, nil, err
		}
		log.Info("storage ready", map[string]any{"driver": "mongo", "database": cfg.Mongo.Database})
		return router.Stores{
			Pets:    mongostore.NewPetsRepo(db),
			Photos:  photos,
			Records: mongostore.NewRecordsRepo(db),
			Users:   mongostore.NewUsersRepo(db),
		}, closeFn, nil

	case config.DriverPostgres:
		if cfg.Postgres.Migrate {
			if err := pg.Migrate(cfg.Postgres.DSN, log); err != nil {
				return router.Stores{}, nil, err
			}
		}
		pool, err := pg.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return router.Stores{}, nil, err
		}
		log.Info("storage ready", map[string]any{"driver": "postgres"})
		return router.Stores{
			Pets:    pg.NewPetsRepo(pool),
			Photos:  pg.NewPhotoStore(pool),
			Records: pg.NewRecordsRepo(pool),
			Users:   pg.NewUsersRepo(pool),
		}, pool.Close, nil
	}

	log.Warn("using in-memory storage, data is lost on restart", nil)
	return router.Stores{
		Pets:    mem.NewPetRepo(),
		Photos:  mem.NewPhotoStore(),
		Records: mem.NewRecordRepo(),
		Users:   mem.NewUserRepo(),
	}, func() {}, nil
}

func openRevoker(ctx context.Context, cfg config.Config, log logger.Logger) (auth.TokenRevoker, func(), error) {
	if cfg.Redis.Addr == "" {
		return mem.NewRevoker(), func() {}, nil
	}
	client, err := redisstore.Open(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, nil, err
	}
	log.Info("token revocation backed by redis", map[string]any{"addr": cfg.Redis.Addr})
	return redisstore.NewRevoker(client), func() { _ = client.Close() }, nil
}

// buildAuth: introspección si hay URL, si no JWT propio; sin ninguno => modo dev.
func buildAuth(cfg config.Config, revoker auth.TokenRevoker, log logger.Logger) (auth.AuthVerifier, auth.TokenIssuer, error) {
	var tokens *jwtauth.Manager
	if cfg.Auth.JWTSecret != "" {
		m, err := jwtauth.NewManager(jwtauth.Config{
			Secret:     cfg.Auth.JWTSecret,
			AccessTTL:  cfg.Auth.AccessTTL,
			RefreshTTL: cfg.Auth.RefreshTTL,
		}, revoker)
		if err != nil {
			return nil, nil, err
		}
		tokens = m
	}

	switch {
	case cfg.Auth.IntrospectURL != "":
		client := introspect.NewClient(introspect.Config{
			URL:     cfg.Auth.IntrospectURL,
			APIKey:  cfg.Auth.IntrospectAPIKey,
			Timeout: 5 * time.Second,
		})
		log.Info("auth via token introspection", map[string]any{"url": cfg.Auth.IntrospectURL})
		if tokens == nil {
			return introspect.NewVerifier(client), nil, nil
		}
		return introspect.NewVerifier(client), tokens, nil

	case tokens != nil:
		return tokens, tokens, nil
	}

	log.Warn("no auth configured: dev mode, identity taken from X-Debug-User", nil)
	return nil, nil, nil
}
