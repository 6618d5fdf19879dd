package socrata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/couchcryptid/crime-dashboard/internal/observability"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Config holds the Socrata client settings.
type Config struct {
	BaseURL         string // e.g. https://data.cityofchicago.org
	Dataset         string // e.g. ijzp-q8t2
	AppToken        string
	Timeout         time.Duration
	MaxRecords      int
	RetryCount      int
	RetryWait       time.Duration
	RateLimit       float64 // requests per second; 0 disables limiting
	BreakerFailures int
	BreakerTimeout  time.Duration
}

// Client implements domain.Fetcher against the Socrata SODA API.
type Client struct {
	rest       *resty.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	limiter    *rate.Limiter
	resource   string
	maxRecords int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Socrata client with retries, client-side rate limiting
// and a circuit breaker.
func NewClient(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4 * cfg.RetryWait).
		AddRetryCondition(retryable).
		SetLogger(restyLogger{logger: logger})
	if cfg.AppToken != "" {
		rest.SetHeader("X-App-Token", cfg.AppToken)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		rest:       rest,
		limiter:    rate.NewLimiter(limit, 1),
		resource:   fmt.Sprintf("/resource/%s.json", cfg.Dataset),
		maxRecords: cfg.MaxRecords,
		logger:     logger,
		metrics:    metrics,
	}

	failures := uint32(max(cfg.BreakerFailures, 1))
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "socrata",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				metrics.CircuitBreakerOpen.Set(1)
			} else {
				metrics.CircuitBreakerOpen.Set(0)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// Fetch retrieves incidents matching req, newest first, capped at MaxRecords.
func (c *Client) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error) {
	where, err := BuildWhere(req)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("rejected").Inc()
		return domain.FetchResult{}, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return domain.FetchResult{}, fmt.Errorf("%w: rate limit wait: %w", domain.ErrFetch, err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, where)
	})
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return domain.FetchResult{}, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	incidents, rejected, err := domain.DecodeIncidents(body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return domain.FetchResult{}, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	c.metrics.FetchedRecords.Observe(float64(len(incidents) + len(rejected)))
	if len(incidents)+len(rejected) >= c.maxRecords {
		c.logger.Warn("socrata result reached record limit", "limit", c.maxRecords, "area_id", req.AreaID)
	}
	c.logger.Debug("socrata fetch complete",
		"area_id", req.AreaID,
		"records", len(incidents),
		"rejected", len(rejected),
		"duration", time.Since(start),
	)
	return domain.FetchResult{Incidents: incidents, Rejected: rejected}, nil
}

// CheckReadiness reports an error while the circuit breaker is open.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return errors.New("socrata circuit breaker is open")
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, where string) ([]byte, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"$select": strings.Join(domain.IncidentColumns, ", "),
			"$where":  where,
			"$order":  "date DESC",
			"$limit":  strconv.Itoa(c.maxRecords),
		}).
		Get(c.resource)
	if err != nil {
		return nil, fmt.Errorf("socrata request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("socrata API error: status %d: %s", resp.StatusCode(), truncate(resp.String(), 512))
	}
	return resp.Body(), nil
}

// retryable retries transport errors, throttling and server errors, but not
// a cancelled or expired context.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
}

// restyLogger routes resty's internal messages through slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error("resty", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn("resty", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("resty", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
