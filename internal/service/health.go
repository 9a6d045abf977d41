package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/repository"
)

// DefaultHealthTimeout bounds a single store ping.
const DefaultHealthTimeout = 3 * time.Second

// HealthService checks that the backing store is reachable.
type HealthService struct {
	store   repository.Pinger
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthService creates a HealthService. A non-positive timeout means DefaultHealthTimeout.
func NewHealthService(store repository.Pinger, timeout time.Duration, logger *slog.Logger) *HealthService {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	return &HealthService{
		store:   store,
		timeout: timeout,
		logger:  logger,
	}
}

// Check pings the store. Failure or timeout returns apperror.ErrUnavailable.
func (s *HealthService) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		return apperror.Unavailable("store unreachable", err)
	}
	return nil
}
