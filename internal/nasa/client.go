// Package nasa talks to the two NASA sources used by the API: the APOD JSON
// endpoint on api.nasa.gov and the HTML archive on apod.nasa.gov.
package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
)

const dateLayout = "2006-01-02"

// apodResponse is the payload of GET /planetary/apod
type apodResponse struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright"`
}

// Client fetches APOD entries from the NASA API with rate limiting and retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	attempts   uint64
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a Client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg config.NASAConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimitPerHour > 0 {
		limit = rate.Limit(float64(cfg.RateLimitPerHour) / time.Hour.Seconds())
		burst = max(1, cfg.RateLimitPerHour/60)
	}

	attempts := uint64(1)
	if cfg.RetryAttempts > 1 {
		attempts = uint64(cfg.RetryAttempts)
	}

	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(limit, burst),
		attempts:   attempts,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

// FetchAPOD returns the APOD published on date. A 400 or 404 answer yields
// errs.ErrNotFound. Network failures, 429 and 5xx answers are retried and end
// in errs.ErrUpstreamUnavailable; other 4xx answers (a bad API key, say) fail
// at once with errs.ErrUpstreamUnavailable.
func (c *Client) FetchAPOD(ctx context.Context, date time.Time) (*models.ApodEntry, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("date", date.Format(dateLayout))
	endpoint := c.baseURL + "planetary/apod?" + q.Encode()

	backoff := retry.WithMaxRetries(c.attempts-1, retry.NewConstant(max(c.retryDelay, time.Millisecond)))

	var payload apodResponse
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit: %v", errUpstream, err)
		}

		err := c.get(ctx, endpoint, &payload)
		if err != nil && isRetryable(err) {
			c.logger.Warn("NASA API request failed",
				"date", date.Format(dateLayout), "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound), errors.Is(err, context.Canceled):
			return nil, err
		case errors.Is(err, errUpstream), errors.Is(err, errUpstreamRejected),
			errors.Is(err, context.DeadlineExceeded), isNetError(err):
			return nil, fmt.Errorf("%w: %v", errs.ErrUpstreamUnavailable, err)
		default:
			return nil, err
		}
	}

	return payload.toEntry(date)
}

var (
	errUpstream         = errors.New("nasa api server error")
	errUpstreamRejected = errors.New("nasa api rejected the request")
)

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("nasa api returned status %d", e.code)
}

func (e *statusError) Unwrap() error {
	switch {
	case e.code >= 500, e.code == http.StatusTooManyRequests:
		return errUpstream
	case e.code == http.StatusBadRequest, e.code == http.StatusNotFound:
		return errs.ErrNotFound
	default:
		return errUpstreamRejected
	}
}

type netError struct{ err error }

func (e *netError) Error() string { return e.err.Error() }
func (e *netError) Unwrap() error { return e.err }

func isNetError(err error) bool {
	var ne *netError
	return errors.As(err, &ne)
}

func isRetryable(err error) bool {
	return errors.Is(err, errUpstream) || isNetError(err)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &netError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode apod response: %w", err)
	}
	return nil
}

func (r apodResponse) toEntry(requested time.Time) (*models.ApodEntry, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, fmt.Errorf("decode apod response: empty title")
	}

	date := requested
	if r.Date != "" {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("decode apod response date %q: %w", r.Date, err)
		}
		date = d
	}

	return &models.ApodEntry{
		Date:        date,
		Title:       r.Title,
		Explanation: r.Explanation,
		URL:         optional(r.URL),
		HDURL:       optional(r.HDURL),
		MediaType:   r.MediaType,
		Copyright:   optional(strings.TrimSpace(r.Copyright)),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
