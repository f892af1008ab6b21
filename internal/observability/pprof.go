package observability

import (
	"context"
	"net"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/config"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
)

type pprofServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *logging.Logger
}

// startPprof binds before returning so a taken port fails startup instead of
// being logged later from a goroutine.
func startPprof(cfg config.Config, logger *logging.Logger) (*pprofServer, error) {
	if !cfg.PprofEnabled {
		return nil, nil
	}

	ln, err := net.Listen("tcp", cfg.PprofAddr)
	if err != nil {
		return nil, crerr.Wrapf(err, "listen %s", cfg.PprofAddr)
	}

	r := chi.NewRouter()
	r.Mount("/debug", chimiddleware.Profiler())

	p := &pprofServer{
		srv:      &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second},
		listener: ln,
		logger:   logger,
	}
	go func() {
		if err := p.srv.Serve(ln); err != nil && !crerr.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server stopped unexpectedly", "error", err)
		}
	}()
	logger.Info("pprof listening", "addr", ln.Addr().String())
	return p, nil
}

func (p *pprofServer) addr() string {
	return p.listener.Addr().String()
}

func (p *pprofServer) stop(ctx context.Context) error {
	if err := p.srv.Shutdown(ctx); err != nil {
		return err
	}
	p.logger.Info("pprof stopped")
	return nil
}
