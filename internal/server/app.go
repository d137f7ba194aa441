// Package server wires the capsule authority together: Postgres
// repositories, the S3 ciphertext store, the Redis open-attempt limiter, the
// services, the unlock dispatcher and the gRPC endpoint. It also handles
// graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/blobstore"
	"github.com/dmitrijs2005/timecapsule/internal/server/config"
	"github.com/dmitrijs2005/timecapsule/internal/server/ratelimit"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/timecapsule/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	redis      *redis.Client
	server     *gs.GRPCServer
	dispatcher *services.UnlockDispatcher
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	limiter := app.newLimiter(ctx)
	notifier := services.NewLogNotifier(logger)

	us := services.NewUserService(db, rm, c)
	cs := services.NewCapsuleService(db, rm, blobs, limiter, notifier, logger)
	fs := services.NewFriendService(db, rm, logger)
	is := services.NewInviteService(db, rm, notifier, logger, c.InviteTTL)

	app.server = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us, cs, fs, is, c.SecretKey)
	app.dispatcher = services.NewUnlockDispatcher(db, rm, notifier, logger, c.UnlockSweepInterval)

	return app, nil
}

// newLimiter connects to Redis when open attempts are limited. Without Redis
// the server runs unlimited rather than refusing every open.
func (app *App) newLimiter(ctx context.Context) ratelimit.Limiter {
	if app.config.OpenAttemptLimit <= 0 || app.config.RedisURI == "" {
		return ratelimit.Unlimited{}
	}
	rdb, err := ratelimit.Connect(ctx, app.config.RedisURI)
	if err != nil {
		app.logger.Warn(ctx, "redis unavailable, open attempts are not limited", "error", err)
		return ratelimit.Unlimited{}
	}
	app.redis = rdb
	return ratelimit.NewRedisLimiter(rdb, app.config.OpenAttemptLimit, app.config.OpenAttemptWindow, app.logger)
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.dispatcher.Run(ctx)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
