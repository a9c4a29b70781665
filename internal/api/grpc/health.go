package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"chama-backend/internal/logger"
)

// ServiceName is the health-check name reported for the approval backend.
const ServiceName = "chama.v1.Approvals"

type Pinger interface {
	PingContext(ctx context.Context) error
}

type StatusSetter interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

// HealthMonitor reports SERVING while the database answers pings.
type HealthMonitor struct {
	db       Pinger
	health   StatusSetter
	interval time.Duration
}

func NewHealthMonitor(db Pinger, health StatusSetter, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthMonitor{db: db, health: health, interval: interval}
}

// Check pings once and updates the serving status.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := m.db.PingContext(ctx)
	if err != nil {
		logger.Warn("Database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.health.SetServingStatus("", status)
	m.health.SetServingStatus(ServiceName, status)
	return err == nil
}

// Run checks until ctx is done.
func (m *HealthMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
