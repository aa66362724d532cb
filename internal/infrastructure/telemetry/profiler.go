package telemetry

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// pprof label keys attached around every engine operation. Values are
// operation names and roles, never IDs.
const (
	ProfilingLabelOperation = "operation"
	ProfilingLabelActorRole = "actor_role"
)

// contentionRate samples one in five mutex and blocking events
const contentionRate = 5

// ProfilerConfig holds Pyroscope continuous profiling configuration
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	// Contention adds mutex and block profiles, useful when chasing row lock waits
	Contention bool
}

// Profiler pushes CPU, heap and goroutine profiles to Pyroscope
type Profiler struct {
	once     sync.Once
	profiler *pyroscope.Profiler
	logger   *zap.Logger
}

// NewProfiler starts the profiler, or returns an idle one when disabled
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	switch {
	case cfg.ServerAddress == "":
		return nil, fmt.Errorf("profiler server address is required when profiling is enabled")
	case cfg.ApplicationName == "":
		return nil, fmt.Errorf("profiler application name is required when profiling is enabled")
	}

	if cfg.Contention {
		runtime.SetMutexProfileFraction(contentionRate)
		runtime.SetBlockProfileRate(contentionRate)
	}
	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}

	started, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            logger.Named("pyroscope").Sugar(),
		Tags:              tags,
		ProfileTypes:      profileTypes(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.profiler = started

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.Bool("contention", cfg.Contention),
	)
	return p, nil
}

func profileTypes(cfg ProfilerConfig) []pyroscope.ProfileType {
	types := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	if !cfg.Contention {
		return types
	}
	return append(types,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockCount,
		pyroscope.ProfileBlockDuration,
	)
}

// Stop flushes the last profiles. Later calls do nothing.
func (p *Profiler) Stop() error {
	var err error
	p.once.Do(func() {
		if p.profiler == nil {
			return
		}
		if err = p.profiler.Stop(); err != nil {
			err = fmt.Errorf("failed to stop profiler: %w", err)
			return
		}
		p.logger.Info("Pyroscope profiler stopped")
	})
	return err
}

func (p *Profiler) IsEnabled() bool { return p.profiler != nil }

// WithOperationLabels runs fn under pprof labels naming the engine operation
// and the caller's role, so profiles can be sliced per operation.
func WithOperationLabels(ctx context.Context, operation, actorRole string, fn func(context.Context)) {
	if actorRole == "" {
		actorRole = "unknown"
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(
		ProfilingLabelOperation, operation,
		ProfilingLabelActorRole, actorRole,
	), fn)
}
