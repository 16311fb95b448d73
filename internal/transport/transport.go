// Package transport serves HTTP/1 and gRPC on one port. cmux routes
// connections whose HTTP/2 preface carries content-type application/grpc to
// the gRPC server and everything else to the HTTP server. The gRPC side
// exposes grpc.health.v1 and server reflection.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger reports whether a dependency is reachable. *store.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewGRPCServer builds the gRPC server with health and reflection registered.
// The returned health server starts out NOT_SERVING; run WatchHealth to keep
// it in sync with the database.
func NewGRPCServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

// WatchHealth pings p every interval and mirrors the result into hs until
// ctx is cancelled. The first check runs immediately.
func WatchHealth(ctx context.Context, hs *health.Server, p Pinger, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := checkOnce(ctx, p)
		hs.SetServingStatus("", status)
		if status != last {
			logger.Info("transport: health changed", "status", status.String())
			last = status
		}

		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

func checkOnce(ctx context.Context, p Pinger) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// Serve multiplexes lis between grpcSrv and httpSrv and blocks until ctx is
// cancelled or one of the servers fails. On return both servers have been
// shut down; in-flight HTTP requests get up to 20 seconds.
func Serve(ctx context.Context, lis net.Listener, httpSrv *http.Server, grpcSrv *grpc.Server, logger *slog.Logger) error {
	m := cmux.New(lis)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	errc := make(chan error, 3)
	go func() { errc <- grpcSrv.Serve(grpcL) }()
	go func() { errc <- httpSrv.Serve(httpL) }()
	go func() { errc <- m.Serve() }()

	logger.Info("transport: listening", "addr", lis.Addr().String())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("transport: shutting down")
	case err := <-errc:
		if !isClosed(err) {
			serveErr = fmt.Errorf("transport: serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("transport: http shutdown: %w", err)
	}
	stopGRPC(shutdownCtx, grpcSrv)
	m.Close()

	return serveErr
}

// stopGRPC tries a graceful stop and falls back to Stop when ctx expires,
// since GracefulStop waits on open streams indefinitely.
func stopGRPC(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}

func isClosed(err error) bool {
	return err == nil ||
		errors.Is(err, http.ErrServerClosed) ||
		errors.Is(err, grpc.ErrServerStopped) ||
		errors.Is(err, cmux.ErrServerClosed) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, net.ErrClosed)
}
