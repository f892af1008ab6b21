package httpapi

import (
	"net/http"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the internal ops surface. metricsHandler may be nil when
// metrics are disabled.
func NewRouter(handler *Handler, logger *logging.Logger, internalJobToken string, metricsHandler http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(func(next http.Handler) http.Handler { return RequestLogging(logger, next) })
	r.Use(nameServerSpan)
	r.Use(func(next http.Handler) http.Handler { return recoverPanic(logger, next) })

	r.Get("/healthz", handler.Healthz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/v1/internal", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return RequireInternalJobToken(internalJobToken, next) })

		r.Get("/jobs", handler.ListJobs)
		r.Post("/jobs/crawl", handler.RunCrawl)
		r.Post("/rankings/rewarm", handler.RewarmRankings)
		r.Get("/rankings/{scope}/top", handler.TopRanking)
		r.Get("/rankings/{scope}/nearby/{userID}", handler.NearbyRanking)
	})

	return RequestTracing(r)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
