package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "StockCast/pkg/logger"
)

// HTTPServer is the lifecycle surface of the HTTP server.
type HTTPServer interface {
	Start() error
	Stop(ctx context.Context) error
}

// Scheduler is the lifecycle surface of the maintenance scheduler.
type Scheduler interface {
	Start()
	Stop()
}

// Option configures an App.
type Option func(*App)

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// WithWarmup runs fn before serving; a failure aborts startup.
func WithWarmup(fn func(ctx context.Context) error) Option {
	return func(a *App) { a.warmup = fn }
}

// App encapsulates the entire application lifecycle.
type App struct {
	httpServer      HTTPServer
	scheduler       Scheduler
	log             *applogger.Logger
	warmup          func(ctx context.Context) error
	warmupTimeout   time.Duration
	shutdownTimeout time.Duration
}

// New creates a new App instance with all dependencies.
func New(srv HTTPServer, sched Scheduler, l *applogger.Logger, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{
		httpServer:      srv,
		scheduler:       sched,
		log:             l,
		warmupTimeout:   30 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until ctx is done or the process is interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.warmup != nil {
		wctx, cancel := context.WithTimeout(ctx, a.warmupTimeout)
		err := a.warmup(wctx)
		cancel()
		if err != nil {
			return fmt.Errorf("warmup: %w", err)
		}
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		if a.scheduler != nil {
			a.scheduler.Stop()
		}
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	a.log.Info("shutdown complete")
	return firstErr
}
