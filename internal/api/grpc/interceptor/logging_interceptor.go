package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"chama-backend/internal/logger"
)

// Logging logs every unary call with its status code and latency. It runs
// after the auth interceptor so the caller is known.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{"method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start)}
		if userID, ok := CallerID(ctx); ok {
			attrs = append(attrs, "user_id", userID)
		}
		if err != nil {
			logger.WarnContext(ctx, "gRPC call failed", append(attrs, "error", err)...)
			return resp, err
		}
		logger.DebugContext(ctx, "gRPC call", attrs...)
		return resp, nil
	}
}
