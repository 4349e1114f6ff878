// pkg/resource/manager.go
package resource

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/logging"
)

// ErrGoroutineLimit is returned by Go once MaxGoroutines are running.
var ErrGoroutineLimit = errors.New("goroutine limit exceeded")

// ErrAlreadyRunning is returned by a second concurrent Run.
var ErrAlreadyRunning = errors.New("resource manager already running")

// Manager bounds the goroutines started on behalf of network sessions and
// samples heap usage so the process can report itself unhealthy before it
// runs out of memory.
type Manager struct {
	maxMemoryMB     int64
	maxGoroutines   int64
	shutdownTimeout time.Duration
	checkInterval   time.Duration
	logger          *logging.Logger

	goroutines    atomic.Int64
	memoryUsageMB atomic.Int64
	lastCheck     atomic.Int64 // unix nanos
	running       atomic.Bool

	wg sync.WaitGroup
}

// NewManager creates a manager for the given limits. A nil logger discards.
func NewManager(cfg config.ResourceConfig, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		maxMemoryMB:     cfg.MaxMemoryMB,
		maxGoroutines:   int64(cfg.MaxGoroutines),
		shutdownTimeout: cfg.ShutdownTimeout,
		checkInterval:   cfg.CheckInterval,
		logger:          logger.With("component", "resource"),
	}
}

// Go starts fn on a tracked goroutine. A panic in fn is logged and
// recovered. It fails with ErrGoroutineLimit instead of exceeding the limit.
func (m *Manager) Go(ctx context.Context, name string, fn func(context.Context)) error {
	for {
		current := m.goroutines.Load()
		if current >= m.maxGoroutines {
			m.logger.Warn(ctx, "Goroutine limit exceeded",
				"current", current,
				"limit", m.maxGoroutines,
				"name", name,
			)
			return fmt.Errorf("%w: %d/%d", ErrGoroutineLimit, current, m.maxGoroutines)
		}
		if m.goroutines.CompareAndSwap(current, current+1) {
			break
		}
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.goroutines.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error(ctx, "Goroutine panic", fmt.Errorf("panic: %v", r), "name", name)
			}
		}()
		fn(ctx)
	}()
	return nil
}

// CheckMemoryUsage samples the heap and reports whether it is over the limit.
func (m *Manager) CheckMemoryUsage() error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	currentMB := int64(ms.Alloc / 1024 / 1024)
	m.memoryUsageMB.Store(currentMB)
	m.lastCheck.Store(time.Now().UnixNano())

	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// Goroutines returns the number of goroutines started by Go still running.
func (m *Manager) Goroutines() int64 {
	return m.goroutines.Load()
}

// MemoryUsage returns the last sampled heap size in MB.
func (m *Manager) MemoryUsage() int64 {
	return m.memoryUsageMB.Load()
}

// Stats is a point-in-time view of resource usage
type Stats struct {
	Goroutines        int64     `json:"goroutines"`
	MaxGoroutines     int64     `json:"max_goroutines"`
	RuntimeGoroutines int       `json:"runtime_goroutines"`
	MemoryUsageMB     int64     `json:"memory_usage_mb"`
	MaxMemoryMB       int64     `json:"max_memory_mb"`
	LastCheck         time.Time `json:"last_check"`
}

// Stats returns current resource usage
func (m *Manager) Stats() Stats {
	var last time.Time
	if ns := m.lastCheck.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return Stats{
		Goroutines:        m.Goroutines(),
		MaxGoroutines:     m.maxGoroutines,
		RuntimeGoroutines: runtime.NumGoroutine(),
		MemoryUsageMB:     m.MemoryUsage(),
		MaxMemoryMB:       m.maxMemoryMB,
		LastCheck:         last,
	}
}

// Run samples memory every check interval until ctx is done, then waits up
// to the shutdown timeout for tracked goroutines to finish.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer m.running.Store(false)

	m.logger.Info(ctx, "Resource manager started",
		"max_memory_mb", m.maxMemoryMB,
		"max_goroutines", m.maxGoroutines,
		"check_interval", m.checkInterval,
	)

	m.performResourceChecks(ctx)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.performResourceChecks(ctx)
		case <-ctx.Done():
			return m.drain()
		}
	}
}

// drain waits for tracked goroutines until the shutdown timeout elapses
func (m *Manager) drain() error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(m.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		m.logger.Info(context.Background(), "All tracked goroutines finished")
		return nil
	case <-timer.C:
		remaining := m.Goroutines()
		m.logger.Warn(context.Background(), "Shutdown timeout exceeded with goroutines still running",
			"remaining", remaining,
		)
		return fmt.Errorf("shutdown timeout: %d goroutines still running", remaining)
	}
}

func (m *Manager) performResourceChecks(ctx context.Context) {
	if err := m.CheckMemoryUsage(); err != nil {
		m.logger.Error(ctx, "Memory limit exceeded", err,
			"current_mb", m.MemoryUsage(),
			"limit_mb", m.maxMemoryMB,
		)
	}

	m.logger.Debug(ctx, "Resource usage check",
		"goroutines", m.Goroutines(),
		"max_goroutines", m.maxGoroutines,
		"runtime_goroutines", runtime.NumGoroutine(),
		"memory_mb", m.MemoryUsage(),
	)
}
