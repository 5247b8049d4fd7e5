package server

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name reported through the health service.
const ServiceName = "omnipos.storefront"

type ctxKey struct{}

// RequestID returns the id attached by the logging interceptor, falling
// back to the x-request-id metadata of the incoming call.
func RequestID(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey{}).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-request-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// UnaryLogging tags each call with a request id and logs its outcome.
func UnaryLogging(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := RequestID(ctx)
		if id == "" {
			id = uuid.New().String()
		}
		ctx = context.WithValue(ctx, ctxKey{}, id)

		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("request_id", id),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		if err != nil {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc call", fields...)
		}
		return resp, err
	}
}

// New builds the gRPC server with health and reflection registered. The
// storefront service starts NOT_SERVING until MarkServing is called.
func New(log logger.ZapLogger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogging(log)))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)
	return srv, hs
}

func MarkServing(hs *health.Server) {
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}
