package handlers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatusSetter is the part of the gRPC health server the reporter drives.
type HealthStatusSetter interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

// HealthReporter keeps the gRPC health status in line with the service
// dependencies. The overall status ("") is SERVING only when every check
// passes; each check is also published under its own name.
type HealthReporter struct {
	mu       sync.Mutex
	status   HealthStatusSetter
	checks   map[string]Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewHealthReporter(status HealthStatusSetter, interval time.Duration, logger *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{
		status:   status,
		checks:   make(map[string]Pinger),
		interval: interval,
		timeout:  2 * time.Second,
		logger:   logger.Named("health"),
	}
}

func (r *HealthReporter) AddCheck(name string, p Pinger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = p
}

// Check runs every check once and publishes the results. It returns whether
// all checks passed.
func (r *HealthReporter) Check(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	healthy := true
	for name, p := range r.checks {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := p.Ping(cctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			st = healthpb.HealthCheckResponse_NOT_SERVING
			r.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
		}
		r.status.SetServingStatus(name, st)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.status.SetServingStatus("", overall)
	return healthy
}

// Run checks periodically until ctx is done.
func (r *HealthReporter) Run(ctx context.Context) {
	r.Check(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}
