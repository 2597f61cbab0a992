// Package api hosts the crypto-intel server listeners: the HTTP API and the
// gRPC health service.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"cryptointel/internal/config"
)

// Server is the main API server that hosts HTTP and gRPC endpoints.
type Server struct {
	httpAddr string
	grpcAddr string
	handler  http.Handler
	health   *health.Server
	log      *slog.Logger
}

// NewServer creates a Server listening on the addresses in cfg. The market
// service starts NOT_SERVING.
func NewServer(cfg *config.Config, handler http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{
		httpAddr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		grpcAddr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort),
		handler:  handler,
		health:   hs,
		log:      log,
	}
}

// SetServing flips the health status of the market service.
func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// ListenAndServe opens both listeners and serves until ctx is cancelled or a
// listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpLn, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpAddr, err)
	}
	grpcLn, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		httpLn.Close()
		return fmt.Errorf("listening on %s: %w", s.grpcAddr, err)
	}
	return s.Serve(ctx, httpLn, grpcLn)
}

// Serve serves HTTP on httpLn and gRPC on grpcLn, shutting both down
// gracefully when ctx is cancelled.
func (s *Server) Serve(ctx context.Context, httpLn, grpcLn net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	gs := newGRPCServer(s.health)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.log.Info("gRPC server listening", "addr", grpcLn.Addr().String())
		if err := gs.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down servers")
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown error", "error", err)
		}
		gs.GracefulStop()
		return nil
	})
	return g.Wait()
}
