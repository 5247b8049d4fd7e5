package server

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

func TestRequestIDFromMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-7"))
	assert.Equal(t, "req-7", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestUnaryLoggingPropagatesID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	intercept := UnaryLogging(logger.Wrap(zap.New(core)))
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	var seen string
	_, err := intercept(context.Background(), nil, info, func(ctx context.Context, _ any) (any, error) {
		seen = RequestID(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, seen)

	_, err = intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, seen, entries[0].ContextMap()["request_id"])
}

func TestHealthStartsNotServing(t *testing.T) {
	_, hs := New(logger.NewNop())
	ctx := context.Background()

	resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	MarkServing(hs)
	resp, err = hs.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
