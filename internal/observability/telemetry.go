package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/config"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"
)

// Telemetry owns the exporters the API process starts next to its HTTP server.
// Each one is optional and configured from config.Config.
type Telemetry struct {
	logger   *logging.Logger
	tracing  bool
	profiler *pyroscope.Profiler
	pprof    *http.Server
}

// StartTelemetry brings up Uptrace tracing (and the log mirror), Pyroscope and the pprof listener.
// On error everything already started is shut down again.
func StartTelemetry(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger}

	t.tracing = t.startTracing(cfg)

	profiler, err := t.startProfiler(cfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("start pyroscope: %w", err), t.Shutdown(context.Background()))
	}
	t.profiler = profiler

	t.pprof = t.startPprof(cfg)
	return t, nil
}

// Shutdown stops pprof first and flushes traces last so shutdown spans are still exported.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.pprof != nil {
		if err := t.pprof.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop pprof: %w", err))
		}
		t.pprof = nil
	}
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
		t.profiler = nil
	}
	if t.tracing {
		logging.SetMirror(nil)
		if err := uptrace.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
		}
		t.tracing = false
	}
	return errors.Join(errs...)
}

func (t *Telemetry) startTracing(cfg config.Config) bool {
	logging.SetMirror(nil)
	switch {
	case !cfg.UptraceEnabled:
		t.logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return false
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		t.logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return false
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newLogMirror(cfg.ServiceVersion))
	}

	t.logger.Info("uptrace enabled", "environment", cfg.AppEnv, "logs_enabled", cfg.UptraceLogsEnabled)
	return true
}

func (t *Telemetry) startProfiler(cfg config.Config) (*pyroscope.Profiler, error) {
	if !cfg.PyroscopeEnabled {
		t.logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return nil, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profileTags(cfg),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileInuseObjects,
		},
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("pyroscope enabled", "application", cfg.PyroscopeAppName)
	return profiler, nil
}

// profileTags let flame graphs be split by deployment, storage backend and competition timezone.
func profileTags(cfg config.Config) map[string]string {
	tags := map[string]string{
		"env":     cfg.AppEnv,
		"service": cfg.ServiceName,
		"storage": cfg.StorageDriver,
	}
	if cfg.Location != nil {
		tags["timezone"] = cfg.Location.String()
	}
	return tags
}

func (t *Telemetry) startPprof(cfg config.Config) *http.Server {
	if !cfg.PprofEnabled {
		t.logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           debugMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		t.logger.Info("pprof server starting", "addr", cfg.PprofAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("pprof server failed", "error", err)
		}
	}()
	return srv
}

func debugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
