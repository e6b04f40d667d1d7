package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const defaultProfileRate = 5

var profileTypesByName = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// Profiler pushes continuous profiles to a Pyroscope server.
// A disabled Profiler is a no-op whose Stop always succeeds.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger

	mu      sync.Mutex
	stopped bool
}

// StartProfiler starts profiling when cfg.Enabled. The application name
// falls back to serviceName.
func StartProfiler(cfg config.ProfilingConfig, serviceName string, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}

	pcfg, err := pyroscopeConfig(cfg, serviceName, logger)
	if err != nil {
		return nil, err
	}
	setRuntimeRates(pcfg.ProfileTypes, cfg)

	profiler, err := pyroscope.Start(pcfg)
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Continuous profiling enabled",
		zap.String("server_address", pcfg.ServerAddress),
		zap.String("application_name", pcfg.ApplicationName),
		zap.Int("profile_types", len(pcfg.ProfileTypes)),
	)
	return p, nil
}

func pyroscopeConfig(cfg config.ProfilingConfig, serviceName string, logger *zap.Logger) (pyroscope.Config, error) {
	if cfg.ServerAddress == "" {
		return pyroscope.Config{}, fmt.Errorf("profiling server address is required")
	}
	types, err := parseProfileTypes(cfg.ProfileTypes)
	if err != nil {
		return pyroscope.Config{}, err
	}
	name := cfg.ApplicationName
	if name == "" {
		name = serviceName
	}

	pcfg := pyroscope.Config{
		ApplicationName: name,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            hostTags(),
		ProfileTypes:    types,
		DisableGCRuns:   cfg.DisableGCRuns,
	}
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPassword != "" {
		pcfg.BasicAuthUser = cfg.BasicAuthUser
		pcfg.BasicAuthPassword = cfg.BasicAuthPassword
	}
	return pcfg, nil
}

// parseProfileTypes maps configured names to profile types, keeping order
// and dropping repeats. An empty list means CPU only.
func parseProfileTypes(names []string) ([]pyroscope.ProfileType, error) {
	if len(names) == 0 {
		return []pyroscope.ProfileType{pyroscope.ProfileCPU}, nil
	}
	types := make([]pyroscope.ProfileType, 0, len(names))
	seen := make(map[pyroscope.ProfileType]bool, len(names))
	for _, name := range names {
		t, ok := profileTypesByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile type %q", name)
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types, nil
}

// setRuntimeRates turns on the runtime's mutex and block sampling when
// those profiles are requested; they are off by default.
func setRuntimeRates(types []pyroscope.ProfileType, cfg config.ProfilingConfig) {
	for _, t := range types {
		switch t {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			runtime.SetMutexProfileFraction(positiveOr(cfg.MutexProfileFraction, defaultProfileRate))
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			runtime.SetBlockProfileRate(positiveOr(cfg.BlockProfileRate, defaultProfileRate))
		}
	}
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func hostTags() map[string]string {
	tags := map[string]string{}
	if host := os.Getenv("HOSTNAME"); host != "" {
		tags["hostname"] = host
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		tags["pod"] = pod
	}
	return tags
}

// IsEnabled reports whether profiles are being pushed.
func (p *Profiler) IsEnabled() bool { return p.profiler != nil }

// Stop flushes pending profiles and stops the profiler. Later calls do nothing.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.profiler == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true
	if err := p.profiler.Stop(); err != nil {
		return fmt.Errorf("stop pyroscope profiler: %w", err)
	}
	p.logger.Info("Continuous profiling stopped")
	return nil
}

// EnableSpanProfiles labels CPU samples with the id of the span that was
// running, so a trace links to its profile. Start the profiler first.
// With tracing disabled there are no spans to label and it does nothing.
func (tp *TracerProvider) EnableSpanProfiles() {
	if tp.provider == nil {
		return
	}
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.provider))
	tp.logger.Info("Span profiles enabled")
}

type pyroscopeLogger struct{ s *zap.SugaredLogger }

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
