// Package observability starts the process-wide telemetry: Uptrace tracing,
// Pyroscope continuous profiling and an optional pprof listener.
package observability

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/config"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
)

// Stack owns whatever Setup started. Its zero value shuts down cleanly.
type Stack struct {
	logger   *logging.Logger
	tracing  func(context.Context) error
	profiler func() error
	pprof    *pprofServer
}

// Setup starts each enabled component in order. When one fails, the ones
// already running are stopped before the error is returned.
func Setup(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Stack{logger: logger}

	var err error
	if s.tracing, err = setupUptrace(cfg, logger); err != nil {
		return nil, crerr.Wrap(err, "setup uptrace")
	}
	if s.profiler, err = setupPyroscope(cfg, logger); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, crerr.Wrap(err, "setup pyroscope")
	}
	if s.pprof, err = startPprof(cfg, logger); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, crerr.Wrap(err, "start pprof")
	}
	return s, nil
}

// Shutdown stops components in reverse start order and flushes pending spans last.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs error
	if s.pprof != nil {
		if err := s.pprof.stop(ctx); err != nil {
			errs = crerr.CombineErrors(errs, crerr.Wrap(err, "stop pprof"))
		}
	}
	if s.profiler != nil {
		if err := s.profiler(); err != nil {
			errs = crerr.CombineErrors(errs, crerr.Wrap(err, "stop pyroscope"))
		}
	}
	if s.tracing != nil {
		if err := s.tracing(ctx); err != nil {
			errs = crerr.CombineErrors(errs, crerr.Wrap(err, "flush uptrace"))
		}
	}
	return errs
}

// PprofAddr reports the bound pprof address, or "" when pprof is off.
func (s *Stack) PprofAddr() string {
	if s == nil || s.pprof == nil {
		return ""
	}
	return s.pprof.addr()
}
