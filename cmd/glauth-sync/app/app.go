// Package app wires configuration, backends, and the sync pipeline for the
// glauth-sync command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/glauth-sync/internal/api"
	"github.com/99minutos/glauth-sync/internal/api/handler"
	"github.com/99minutos/glauth-sync/internal/api/metrics"
	"github.com/99minutos/glauth-sync/internal/core/ports"
	"github.com/99minutos/glauth-sync/internal/core/service"
	"github.com/99minutos/glauth-sync/internal/infrastructure/config"
	"github.com/99minutos/glauth-sync/internal/infrastructure/db/file"
	mongodb "github.com/99minutos/glauth-sync/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/glauth-sync/internal/infrastructure/db/redis"
	"github.com/99minutos/glauth-sync/internal/infrastructure/elasticsearch"
	"github.com/99minutos/glauth-sync/internal/infrastructure/publish"
	"github.com/99minutos/glauth-sync/internal/infrastructure/queue"
	"github.com/99minutos/glauth-sync/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// errRunFailed marks a failure that has already been logged.
var errRunFailed = errors.New("sync run failed")

// App holds the wired pipeline and the resources it owns.
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	service ports.SyncService
	checks  map[string]handler.DependencyCheck
	closers []func(context.Context) error
}

// New loads the optional dotenv file and the environment, initialises the
// logger, and connects every configured backend.
func New(ctx context.Context, envFile string, logOut io.Writer) (*App, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg: cfg,
		log: logger.Init(logger.Options{
			Level:  cfg.LogLevel,
			Pretty: cfg.LogPretty,
			Output: logOut,
		}),
		checks: make(map[string]handler.DependencyCheck),
	}
	if err := a.wire(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	store, err := a.identityStore(ctx)
	if err != nil {
		return err
	}
	audit, err := a.auditRepository(ctx)
	if err != nil {
		return err
	}

	directory := elasticsearch.New(elasticsearch.Config{
		URL:      a.cfg.Elasticsearch.URL,
		User:     a.cfg.Elasticsearch.User,
		Password: a.cfg.Elasticsearch.Password,
		Timeout:  a.cfg.Elasticsearch.TimeoutDuration(),
	})
	publisher := publish.NewPublisher(a.cfg.GLAuth.ConfigPath, a.cfg.GLAuth.LogDiff, logger.Component("publisher"))

	a.service = service.NewSyncService(
		directory,
		store,
		publish.NewFileTemplate(a.cfg.GLAuth.TemplatePath),
		publisher,
		audit,
		service.SyncSettings{
			MinUID:       a.cfg.GLAuth.MinUID,
			PrimaryGroup: a.cfg.GLAuth.PrimaryGroup,
		},
		logger.Component("sync"),
	)
	return nil
}

func (a *App) identityStore(ctx context.Context) (ports.IdentityStore, error) {
	idCfg := a.cfg.Identity
	if idCfg.Backend != "redis" {
		a.log.Debug().Str("path", idCfg.Path).Msg("using file identity store")
		return file.NewIdentityStore(idCfg.Path), nil
	}

	client, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     idCfg.RedisAddr,
		Password: idCfg.RedisPassword,
		DB:       idCfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("identity store: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.checks["redis"] = redisdb.Ping(client)

	a.log.Debug().Str("addr", idCfg.RedisAddr).Str("key", idCfg.RedisKey).Msg("using redis identity store")
	return redisdb.NewIdentityStore(client, idCfg.RedisKey), nil
}

// auditRepository returns nil when no MongoDB URI is configured.
func (a *App) auditRepository(ctx context.Context) (ports.AuditRepository, error) {
	if !a.cfg.Mongo.Enabled() {
		return nil, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      a.cfg.Mongo.URI,
		Database: a.cfg.Mongo.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	a.closers = append(a.closers, client.Disconnect)
	a.checks["mongodb"] = mongodb.Ping(db)

	repo := mongodb.NewRunRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to ensure sync_runs indexes")
	}
	return repo, nil
}

// RunOnce performs a single sync and records its metrics.
func (a *App) RunOnce(ctx context.Context) error {
	run, err := a.service.Run(ctx)
	metrics.ObserveRun(run, err)

	if path := a.cfg.Metrics.Textfile; path != "" {
		if werr := metrics.WriteTextfile(path); werr != nil {
			a.log.Warn().Err(werr).Str("path", path).Msg("failed to write metrics textfile")
		}
	}

	if err != nil {
		a.log.Error().Err(err).Str("stage", metrics.Reason(err)).Msg("sync failed")
		return errRunFailed
	}
	return nil
}

// Serve runs the scheduler and the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	sched := queue.NewScheduler(a.service, a.cfg.Server.Interval, metrics.ObserveRun, logger.Component("scheduler"))
	e := api.NewRouter(api.RouterDeps{
		Sync:      sched,
		Checks:    a.checks,
		JWTSecret: a.cfg.Server.JWTSecret,
		Log:       logger.Component("http"),
	})

	sched.Start(workerCtx)

	addr := ":" + a.cfg.Server.Port
	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	a.log.Info().
		Str("addr", addr).
		Dur("interval", a.cfg.Server.Interval).
		Msg("serving")

	var err error
	select {
	case <-ctx.Done():
	case err = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := e.Shutdown(shutdownCtx); serr != nil {
		a.log.Warn().Err(serr).Msg("http shutdown")
	}
	stopWorker()
	<-sched.Done()

	a.log.Info().Msg("stopped")
	return err
}

// Close releases backend connections in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range slices.Backward(a.closers) {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
