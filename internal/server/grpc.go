package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCHealth builds a gRPC server that only serves the standard health protocol and reflection.
// The overall status starts SERVING.
func NewGRPCHealth() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)
	return grpcServer, healthServer
}

// WatchHealth mirrors db connectivity into the gRPC health status until ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, db HealthChecker, every time.Duration, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if every <= 0 {
		every = 15 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := grpc_health_v1.HealthCheckResponse_SERVING
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		next := grpc_health_v1.HealthCheckResponse_SERVING
		if err := db.HealthCheck(ctx, 2*time.Second); err != nil {
			next = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		if next != last {
			logger.Warn("grpc.health.changed", "status", next.String())
			last = next
		}
		hs.SetServingStatus("", next)
	}
}
