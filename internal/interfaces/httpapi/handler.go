package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/jobscheduler"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/usecase"
	sonic "github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxRequestBodySize = 1 << 16

type JobLister interface {
	List() []jobscheduler.Info
}

type ScheduleCrawler interface {
	RunDaily(ctx context.Context) (usecase.CrawlResult, error)
	CrawlMonth(ctx context.Context, year int, month time.Month) (usecase.CrawlResult, error)
}

type RankingReader interface {
	RewarmAll(ctx context.Context) (usecase.RewarmResult, error)
	Nearby(ctx context.Context, scope string, userID int64) ([]usecase.RankingEntry, error)
	Top(ctx context.Context, scope string, limit int) ([]usecase.RankingEntry, error)
}

type Handler struct {
	jobs      JobLister
	crawler   ScheduleCrawler
	rankings  RankingReader
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(jobs JobLister, crawler ScheduleCrawler, rankings RankingReader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		jobs:      jobs,
		crawler:   crawler,
		rankings:  rankings,
		logger:    logger,
		validator: validator.New(),
	}
}

type jobDTO struct {
	Name    string     `json:"name"`
	Kind    string     `json:"kind"`
	Subject string     `json:"subject,omitempty"`
	ArmedAt time.Time  `json:"armed_at"`
	Next    *time.Time `json:"next,omitempty"`
	Prev    *time.Time `json:"prev,omitempty"`
}

// crawlRequest selects one month. An empty body runs the daily crawl.
type crawlRequest struct {
	Year  int `json:"year" validate:"required_with=Month,omitempty,min=1982,max=2100"`
	Month int `json:"month" validate:"required_with=Year,omitempty,min=1,max=12"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "httpapi.Handler.ListJobs")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: job scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	infos := h.jobs.List()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	out := make([]jobDTO, 0, len(infos))
	for _, info := range infos {
		item := jobDTO{
			Name:    info.Name,
			Kind:    string(info.Kind),
			ArmedAt: info.ArmedAt,
			Next:    optionalTime(info.Next),
			Prev:    optionalTime(info.Prev),
		}
		if _, subject, ok := jobscheduler.ParseName(info.Name); ok {
			item.Subject = subject
		}
		out = append(out, item)
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) RunCrawl(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "httpapi.Handler.RunCrawl")
	defer span.End()

	if h.crawler == nil {
		writeError(ctx, w, fmt.Errorf("%w: schedule crawler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req crawlRequest
	if err := h.decodeOptionalJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	var (
		result usecase.CrawlResult
		err    error
	)
	if req.Month == 0 {
		result, err = h.crawler.RunDaily(ctx)
	} else {
		result, err = h.crawler.CrawlMonth(ctx, req.Year, time.Month(req.Month))
	}
	if err != nil {
		h.logger.WarnContext(ctx, "manual crawl failed", "year", req.Year, "month", req.Month, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RewarmRankings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "httpapi.Handler.RewarmRankings")
	defer span.End()

	if h.rankings == nil {
		writeError(ctx, w, fmt.Errorf("%w: ranking service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.rankings.RewarmAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "ranking rewarm failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"users":       result.Users,
		"failed":      result.Failed,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

func (h *Handler) NearbyRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "httpapi.Handler.NearbyRanking")
	defer span.End()

	if h.rankings == nil {
		writeError(ctx, w, fmt.Errorf("%w: ranking service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	scope := strings.TrimSpace(chi.URLParam(r, "scope"))
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: userID must be a positive integer", usecase.ErrInvalidInput))
		return
	}

	entries, err := h.rankings.Nearby(ctx, scope, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entries)
}

func (h *Handler) TopRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "httpapi.Handler.TopRanking")
	defer span.End()

	if h.rankings == nil {
		writeError(ctx, w, fmt.Errorf("%w: ranking service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	entries, err := h.rankings.Top(ctx, strings.TrimSpace(chi.URLParam(r, "scope")), limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entries)
}

func (h *Handler) decodeOptionalJSON(r *http.Request, target any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", usecase.ErrInvalidInput, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	if err := h.validator.Struct(target); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return fmt.Errorf("%w: %s", usecase.ErrInvalidInput, validationErrs.Error())
		}
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
