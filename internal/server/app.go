// Package server initializes and runs the booktag application server.
// It selects the storage backend, wires the optional Redis limiter and
// RabbitMQ publisher, and runs the HTTP and gRPC health listeners until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/config"
	"github.com/dmitrijs2005/booktag/internal/server/events"
	"github.com/dmitrijs2005/booktag/internal/server/httpapi"
	"github.com/dmitrijs2005/booktag/internal/server/ratelimit"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/memory"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/booktag/internal/server/services"
	goredis "github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/booktag/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	redis     *goredis.Client
	publisher events.Publisher
	handler   *httpapi.Handler
}

// NewLogger builds the JSON stdout logger at the configured level; an
// unknown level falls back to info.
func NewLogger(level string) logging.Logger {
	return logging.NewJSONLogger(os.Stdout, logging.ParseLevel(level))
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	app := &App{config: c, logger: NewLogger(c.LogLevel)}

	var (
		dbtx dbx.DBTX
		tx   dbx.Transactor
		rm   repomanager.RepositoryManager
	)

	if c.DatabaseDSN != "" {
		db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, db); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		dbtx, tx, rm = db, dbx.NewSQLTransactor(db, nil), pm
	} else {
		app.logger.Warn(ctx, "no database DSN configured, using in-memory storage")
		tx, rm = memory.Transactor{}, repomanager.NewMemoryRepositoryManager(memory.NewStore())
	}

	var limiter services.AttemptLimiter
	if c.RedisAddr != "" {
		rdb, err := ratelimit.NewClient(ctx, c.RedisAddr)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = rdb
		limiter = ratelimit.NewFixedWindowLimiter(rdb, c.MaxVerifyAttempts, c.VerifyAttemptWindow)
	}

	if c.RabbitMQURL != "" {
		p, err := events.NewRabbitPublisher(c.RabbitMQURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("rabbitmq init error: %w", err)
		}
		app.publisher = p
	} else {
		app.publisher = events.NewLogPublisher(app.logger)
	}

	app.handler = httpapi.NewHandler(
		services.NewQRCodeRegistry(dbtx, tx, rm, app.logger),
		services.NewVerificationCodeService(dbtx, tx, rm, c, limiter, app.publisher, app.logger),
		services.NewUserService(tx, rm, app.logger),
		services.NewManifestService(dbtx, rm, c, app.logger),
		app.logger,
	)

	return app, nil
}

// Close releases the connections opened by NewApp.
func (app *App) Close() {
	if app.publisher != nil {
		_ = app.publisher.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(app.handler, app.logger)
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives, or either
// listener fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(ctx, "App stopped")
}
