package espn

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
	"github.com/riskibarqy/nfl-pickem/internal/platform/resilience"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL        = "https://site.api.espn.com"
	scoreboardPath        = "/apis/site/v2/sports/football/nfl/scoreboard"
	regularSeasonType     = "2"
	defaultTimeout        = 10 * time.Second
	defaultRetryStep      = time.Second
	maxRetryBackoff       = 5 * time.Second
	maxResponseBodyBytes  = 6 << 20
	abbreviatedBodyLength = 240
)

var errTransient = errors.New("espn transient failure")

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryStep      time.Duration
	Logger         *logging.Logger
	Clock          clockwork.Clock
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads weekly NFL results from the ESPN public scoreboard.
type Client struct {
	httpClient     *fasthttp.Client
	baseURL        string
	timeout        time.Duration
	maxRetries     int
	retryStep      time.Duration
	logger         *logging.Logger
	clock          clockwork.Clock
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "nfl-pickem",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBodyBytes,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	retryStep := cfg.RetryStep
	if retryStep <= 0 {
		retryStep = defaultRetryStep
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		timeout:        timeout,
		maxRetries:     max(cfg.MaxRetries, 0),
		retryStep:      retryStep,
		logger:         logger.Named("espn"),
		clock:          clock,
		breaker:        resilience.NewCircuitBreakerWithClock(breakerCfg, clock),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// CircuitState exposes the breaker state for health reporting.
func (c *Client) CircuitState() resilience.CircuitState {
	return c.breaker.State()
}

// FetchResults returns the normalized results of one regular-season week.
func (c *Client) FetchResults(ctx context.Context, seasonYear, weekNumber int) ([]usecase.ExternalGameResult, error) {
	if seasonYear <= 0 || weekNumber <= 0 {
		return nil, errors.Wrapf(usecase.ErrValidation, "invalid season=%d week=%d", seasonYear, weekNumber)
	}

	query := url.Values{}
	query.Set("dates", strconv.Itoa(seasonYear))
	query.Set("seasontype", regularSeasonType)
	query.Set("week", strconv.Itoa(weekNumber))

	var payload scoreboardEnvelope
	if err := c.doJSON(ctx, scoreboardPath, query, &payload); err != nil {
		return nil, errors.Wrapf(err, "fetch scoreboard season=%d week=%d", seasonYear, weekNumber)
	}
	return normalizeEvents(payload.Events), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return errors.Mark(errors.Wrap(err, "score feed is temporarily unavailable"), usecase.ErrUpstreamUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			c.breaker.Record(reqErr != nil && errors.Is(reqErr, errTransient))
		}
		return raw, reqErr
	})
	if err != nil {
		if errors.Is(err, errTransient) || errors.Is(err, context.DeadlineExceeded) {
			err = errors.Mark(err, usecase.ErrUpstreamUnavailable)
		}
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return errors.Newf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return errors.Mark(errors.Wrap(err, "decode scoreboard payload"), usecase.ErrUpstreamUnavailable)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, status, err := c.get(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = errors.Mark(errors.Wrap(err, "send request"), errTransient)
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = errors.Mark(errors.Newf("provider status=%d body=%s", status, abbreviateBody(raw)), errTransient)
		default:
			return nil, errors.Newf("provider status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := resilience.LinearBackoff(attempt+1, c.retryStep, maxRetryBackoff)
		if err := resilience.Sleep(ctx, c.clock, backoff); err != nil {
			return nil, err
		}
	}

	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > abbreviatedBodyLength {
		return text[:abbreviatedBodyLength] + "..."
	}
	return text
}
