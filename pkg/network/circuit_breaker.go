// pkg/network/circuit_breaker.go
package network

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/logging"
)

// NetworkService wraps client network operations with a circuit breaker and
// a bounded retry loop, so a dead server is not hammered by reconnects.
type NetworkService struct {
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.Logger
	maxRetries int
	retryDelay time.Duration
}

// NetworkOperation represents a function that performs a network operation.
// It should return an error if the operation fails.
type NetworkOperation func() error

// NewNetworkService creates a NetworkService from the client policy
func NewNetworkService(cfg config.ClientConfig, logger *logging.Logger) *NetworkService {
	if logger == nil {
		logger = logging.Discard()
	}
	maxFails := cfg.CircuitBreakerMaxConsecutiveFails
	if maxFails < 1 {
		maxFails = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	settings := gobreaker.Settings{
		Name:        "arena-client",
		MaxRequests: uint32(cfg.CircuitBreakerMaxRequests),
		Interval:    cfg.CircuitBreakerInterval,
		Timeout:     cfg.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &NetworkService{
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
		maxRetries: maxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Execute runs a network operation through the circuit breaker.
// An open circuit fails immediately without calling operation.
func (ns *NetworkService) Execute(ctx context.Context, operation NetworkOperation) error {
	_, err := ns.breaker.Execute(func() (interface{}, error) {
		return nil, operation()
	})
	if err != nil {
		ns.logger.LogWithContext(ctx, slog.LevelWarn, "circuit breaker execution failed",
			"error", err,
			"state", ns.breaker.State().String(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}

	return nil
}

// ExecuteWithRetry runs operation up to maxRetries times with a linearly
// growing delay. It stops early when the circuit opens or ctx is done.
func (ns *NetworkService) ExecuteWithRetry(ctx context.Context, operation NetworkOperation) error {
	var err error
	for attempt := 0; attempt < ns.maxRetries; attempt++ {
		if err = ns.Execute(ctx, operation); err == nil {
			return nil
		}

		if ns.breaker.State() == gobreaker.StateOpen {
			ns.logger.Warn(ctx, "circuit breaker is open, skipping retries",
				"attempt", attempt+1,
				"max_retries", ns.maxRetries,
			)
			return err
		}

		if attempt == ns.maxRetries-1 {
			break
		}

		delay := time.Duration(attempt+1) * ns.retryDelay
		ns.logger.Warn(ctx, "operation failed, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", ns.maxRetries, err)
}

// GetState returns the current state of the circuit breaker.
func (ns *NetworkService) GetState() gobreaker.State {
	return ns.breaker.State()
}

// GetCounts returns the current failure/success counts of the circuit breaker.
func (ns *NetworkService) GetCounts() gobreaker.Counts {
	return ns.breaker.Counts()
}
