package kbo

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/resilience"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/usecase"
)

const (
	defaultBaseURL      = "https://www.koreabaseball.com/ws"
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = time.Second
	defaultLeagueID     = 1
	maxResponseBodySize = 6 << 20

	pathScheduleList  = "/Schedule.asmx/GetScheduleList"
	pathScoreBoard    = "/Schedule.asmx/GetScoreBoardScroll"
	pathGameList      = "/Main.asmx/GetKboGameList"
	formContentType   = "application/x-www-form-urlencoded; charset=UTF-8"
	allGameListSeries = "0,1,3,4,5,6,7,8,9"
)

var errKBOTransient = crerr.New("kbo transient failure")

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	LeagueID       int
	SeriesIDs      []int
	Location       *time.Location
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads schedules and live scores from the KBO web service. It
// implements usecase.ScheduleSource and usecase.ScoreSource.
type Client struct {
	httpClient     *fasthttp.Client
	baseURL        string
	timeout        time.Duration
	maxRetries     int
	retryBackoff   time.Duration
	leagueID       int
	seriesIDs      []int
	loc            *time.Location
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.Group[[]byte]
}

var (
	_ usecase.ScheduleSource = (*Client)(nil)
	_ usecase.ScoreSource    = (*Client)(nil)
)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "victoryfairy-kbo",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBodySize,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	leagueID := cfg.LeagueID
	if leagueID <= 0 {
		leagueID = defaultLeagueID
	}

	seriesIDs := append([]int(nil), cfg.SeriesIDs...)
	if len(seriesIDs) == 0 {
		seriesIDs = []int{0}
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	if breakerCfg.Name == "" {
		breakerCfg.Name = "kbo"
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		timeout:        timeout,
		maxRetries:     max(cfg.MaxRetries, 0),
		retryBackoff:   backoff,
		leagueID:       leagueID,
		seriesIDs:      seriesIDs,
		loc:            loc,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type formField struct {
	key   string
	value string
}

// postForm sends a form-encoded POST and decodes the JSON answer into target.
// Identical in-flight requests share one round trip.
func (c *Client) postForm(ctx context.Context, path string, fields []formField, target any) error {
	body := encodeForm(fields)
	key := path + "?" + string(body)
	raw, _, err := c.flight.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		if !c.circuitEnabled {
			return c.executeRequest(ctx, path, body)
		}
		done, err := c.breaker.Allow()
		if err != nil {
			c.logger.WarnContext(ctx, "kbo circuit breaker rejected request", "path", path, "state", c.breaker.State().String())
			return nil, fmt.Errorf("%w: kbo web service is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		out, reqErr := c.executeRequest(ctx, path, body)
		done(reqErr != nil && isCircuitFailure(reqErr))
		return out, reqErr
	})
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode kbo payload %s: %w", path, err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, path string, body []byte) ([]byte, error) {
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, status, err := c.roundTrip(ctx, fullURL, body)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: send request: %v", errKBOTransient, err)
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: kbo status=%d body=%s", errKBOTransient, status, abbreviateBody(raw))
		default:
			return nil, fmt.Errorf("kbo status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("kbo request failed")
	}
	c.logger.WarnContext(ctx, "kbo request failed", "path", path, "error", lastErr)
	return nil, lastErr
}

func (c *Client) roundTrip(ctx context.Context, fullURL string, body []byte) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(formContentType)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	// resp is released on return; keep a copy of the body.
	raw := append([]byte(nil), resp.Body()...)
	return raw, resp.StatusCode(), nil
}

func encodeForm(fields []formField) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, field := range fields {
		if i > 0 {
			_ = buf.WriteByte('&')
		}
		_, _ = buf.WriteString(url.QueryEscape(field.key))
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(url.QueryEscape(field.value))
	}
	return append([]byte(nil), buf.B...)
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	return crerr.Is(err, errKBOTransient) || stderrors.Is(err, context.DeadlineExceeded)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusRequestTimeout ||
		code == fasthttp.StatusTooManyRequests ||
		code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
