// Package grpc holds gRPC server and client helpers shared by services.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthServer returns a health server reporting SERVING for the overall
// server and for each named service.
func NewHealthServer(services ...string) *health.Server {
	server := health.NewServer()
	server.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, service := range services {
		server.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	return server
}

var errNotServing = errors.New("health status is not SERVING")

// WaitForHealth blocks until the health check for service reports SERVING
// or ctx ends.
func WaitForHealth(ctx context.Context, conn gogrpc.ClientConnInterface, service string, logger zerolog.Logger) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	client := grpc_health_v1.NewHealthClient(conn)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = 0

	check := func() error {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		response, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			return err
		}
		if response.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			return fmt.Errorf("%w: %s", errNotServing, response.GetStatus())
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Debug().Err(err).Dur("retry_in", wait).Msg("waiting for gRPC health")
	}
	if err := backoff.RetryNotify(check, backoff.WithContext(policy, ctx), notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("wait for gRPC health: %w", ctxErr)
		}
		return fmt.Errorf("wait for gRPC health: %w", err)
	}
	logger.Debug().Str("service", service).Msg("gRPC health check is SERVING")
	return nil
}

// RegisterHealth registers server as the gRPC health service.
func RegisterHealth(registrar gogrpc.ServiceRegistrar, server *health.Server) {
	grpc_health_v1.RegisterHealthServer(registrar, server)
}
