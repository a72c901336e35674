package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/grpc/middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

type GRPCConfig struct {
	Address       string
	ProbeInterval time.Duration
	// Probes are checked on every tick; any failure marks the server
	// NOT_SERVING until the next successful round.
	Probes map[string]Probe
}

// NewGRPCServer builds the ops server: the standard health service,
// reflection and prometheus metrics behind the interceptor chain.
func NewGRPCServer(logger *zap.Logger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(middleware.ChainUnaryServer(logger)),
		grpc.ChainStreamInterceptor(middleware.ChainStreamServer(logger)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	grpc_prometheus.Register(grpcServer)
	grpc_prometheus.EnableHandlingTimeHistogram()
	return grpcServer, hs
}

// StartGRPCServer listens on cfg.Address and serves until ctx is cancelled.
func StartGRPCServer(ctx context.Context, cfg GRPCConfig, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	return Serve(ctx, lis, cfg, logger)
}

func Serve(ctx context.Context, lis net.Listener, cfg GRPCConfig, logger *zap.Logger) error {
	grpcServer, hs := NewGRPCServer(logger)

	probeCtx, stopProbes := context.WithCancel(ctx)
	defer stopProbes()
	checkProbes(probeCtx, hs, cfg.Probes, logger)
	go runProbes(probeCtx, hs, cfg, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server")
	hs.Shutdown()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-stopCtx.Done():
		grpcServer.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}

func runProbes(ctx context.Context, hs *health.Server, cfg GRPCConfig, logger *zap.Logger) {
	interval := cfg.ProbeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkProbes(ctx, hs, cfg.Probes, logger)
		}
	}
}

func checkProbes(ctx context.Context, hs *health.Server, probes map[string]Probe, logger *zap.Logger) {
	status := healthpb.HealthCheckResponse_SERVING
	for name, probe := range probes {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := probe(pctx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("health probe failed", zap.String("probe", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	hs.SetServingStatus("", status)
}
