package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"chama-backend/internal/api/grpc/interceptor"
	"chama-backend/internal/security"
)

// NewServer builds the gRPC server with health and reflection registered.
// The returned health server is driven by a HealthMonitor.
func NewServer(tokens security.TokenManager) (*grpc.Server, *health.Server) {
	auth := interceptor.NewAuthInterceptor(tokens)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(auth.Unary(), interceptor.Logging()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	// Register reflection service for grpcurl
	reflection.Register(s)
	return s, hs
}
