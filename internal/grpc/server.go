package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"community-service/internal/observability"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// Server exposes the standard gRPC health service. Its status follows the
// probe: SERVING while it succeeds, NOT_SERVING otherwise.
type Server struct {
	srv      *grpc.Server
	health   *health.Server
	probe    Probe
	interval time.Duration
	log      zerolog.Logger
}

// NewServer builds a health server instrumented with otel and Prometheus.
func NewServer(probe Probe, interval time.Duration, log zerolog.Logger) *Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Server{srv: srv, health: hs, probe: probe, interval: interval, log: log}
}

// Health returns the underlying health service.
func (s *Server) Health() *health.Server { return s.health }

// Listen serves on addr until Stop is called.
func (s *Server) Listen(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	s.log.Info().Str("addr", addr).Msg("grpc health server listening")
	return s.srv.Serve(lis)
}

// Watch re-runs the probe every interval until ctx ends.
func (s *Server) Watch(ctx context.Context) {
	s.check(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Server) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := s.probe(pctx)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Msg("health probe failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
