package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestDialWithHealthConnects(t *testing.T) {
	addr := startHealthServer(t, NewHealthServer())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := DialWithHealth(ctx, addr, "", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestDialWithHealthReportsHealthStage(t *testing.T) {
	server := health.NewServer()
	server.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	addr := startHealthServer(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := DialWithHealth(ctx, addr, "", zerolog.Nop())

	var dialErr *DialError
	require.True(t, errors.As(err, &dialErr))
	require.Equal(t, DialStageHealth, dialErr.Stage)
}

func TestDialWithHealthReportsConnectStage(t *testing.T) {
	// Without transport credentials the client cannot be created.
	_, err := DialWithHealth(context.Background(), "127.0.0.1:1", "", zerolog.Nop(), gogrpc.WithUserAgent("test"))

	var dialErr *DialError
	require.True(t, errors.As(err, &dialErr))
	require.Equal(t, DialStageConnect, dialErr.Stage)
}
