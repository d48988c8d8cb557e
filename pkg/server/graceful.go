package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/logging"
)

// Options configures the underlying http.Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          logging.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	hooksMu sync.Mutex
	hooks   []func()
}

// NewGracefulServer creates a new graceful HTTP server. Zero timeouts take
// the defaults below.
func NewGracefulServer(handler http.Handler, opts Options, logger logging.Logger) *GracefulServer {
	return &GracefulServer{
		server: &http.Server{
			Addr:           opts.Addr,
			Handler:        handler,
			ReadTimeout:    orDefault(opts.ReadTimeout, 30*time.Second),
			WriteTimeout:   orDefault(opts.WriteTimeout, 30*time.Second),
			IdleTimeout:    orDefault(opts.IdleTimeout, 120*time.Second),
			MaxHeaderBytes: 1 << 20,
		},
		shutdownTimeout: orDefault(opts.ShutdownTimeout, 30*time.Second),
		logger:          logging.OrNop(logger).With(logging.Component("http")),
		shutdownCh:      make(chan struct{}),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// OnShutdown registers fn to run after the listener has drained. Hooks run
// in reverse registration order.
func (gs *GracefulServer) OnShutdown(fn func()) {
	gs.hooksMu.Lock()
	defer gs.hooksMu.Unlock()
	gs.hooks = append(gs.hooks, fn)
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	return gs.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))
		errCh <- gs.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return gs.Shutdown()
		}
		gs.runHooks()
		return err
	case <-ctx.Done():
		gs.logger.Info("shutdown requested", logging.Error(context.Cause(ctx)))
		return gs.Shutdown()
	}
}

// Shutdown initiates a graceful shutdown
func (gs *GracefulServer) Shutdown() error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), gs.shutdownTimeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", gs.shutdownTimeout))
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.shutdownErr = err
			gs.logger.Error("error during shutdown", logging.Error(err))
		}
		gs.runHooks()
		gs.logger.Info("server shutdown complete")
	})
	return gs.shutdownErr
}

func (gs *GracefulServer) runHooks() {
	gs.hooksMu.Lock()
	hooks := gs.hooks
	gs.hooks = nil
	gs.hooksMu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}
