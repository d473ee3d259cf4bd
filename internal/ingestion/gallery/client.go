package gallery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://nhentai.net"
	defaultUserAgent = "Mozilla/5.0"

	// Retry configuration
	maxRetries   = 4
	initialDelay = 1 * time.Second
	maxDelay     = 16 * time.Second

	maxBodySize = 8 << 20
)

type Options struct {
	BaseURL   string
	UserAgent string
	// RateLimit is requests per second against the source.
	RateLimit  int
	Workers    int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client scrapes gallery metadata and page images with rate limiting and
// retry logic.
type Client struct {
	baseURL     string
	userAgent   string
	workers     int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger

	initialDelay time.Duration
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RateLimit < 1 {
		opts.RateLimit = 4
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		userAgent:    opts.UserAgent,
		workers:      opts.Workers,
		httpClient:   opts.HTTPClient,
		rateLimiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit*2),
		logger:       opts.Logger.With("component", "gallery"),
		initialDelay: initialDelay,
	}
}

// FetchGallery scrapes <base>/g/<id>/.
func (c *Client) FetchGallery(ctx context.Context, id string) (*Gallery, error) {
	body, err := c.get(ctx, fmt.Sprintf("/g/%s/", id))
	if err != nil {
		return nil, fmt.Errorf("fetch gallery %s: %w", id, err)
	}
	return ParseGallery(id, bytes.NewReader(body))
}

// FetchPageImage scrapes the image URL of page n (1-based).
func (c *Client) FetchPageImage(ctx context.Context, id string, n int) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/g/%s/%d/", id, n))
	if err != nil {
		return "", fmt.Errorf("fetch page %s/%d: %w", id, n, err)
	}
	img, err := ParsePageImage(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("page %s/%d: %w", id, n, err)
	}
	return img, nil
}

// FetchPageImages scrapes pages 1..total concurrently and returns the image
// URLs in page order. Any failed page fails the whole call.
func (c *Client) FetchPageImages(ctx context.Context, id string, total int) ([]string, error) {
	if total < 1 {
		return nil, fmt.Errorf("%w: gallery %s has no pages", ErrMissingContent, id)
	}

	urls := make([]string, total)
	var mu sync.Mutex

	pool := NewWorkerPool(ctx, c.workers, c.logger)
	pool.Start()
	for n := 1; n <= total; n++ {
		if !pool.Submit(func(ctx context.Context) error {
			img, err := c.FetchPageImage(ctx, id, n)
			if err != nil {
				return err
			}
			mu.Lock()
			urls[n-1] = img
			mu.Unlock()
			return nil
		}) {
			break
		}
	}
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	c.logger.Info("fetched page images", "gallery", id, "pages", total)
	return urls, nil
}

// get performs a GET with rate limiting and retries on 429 and 5xx.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	fullURL := c.baseURL + path

	var lastErr error
	delay := c.initialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxRetries && ctx.Err() == nil {
				c.logger.Warn("request failed, retrying", "url", fullURL, "attempt", attempt+1, "delay", delay, "error", err)
				if err := sleep(ctx, delay); err != nil {
					return nil, err
				}
				delay = minDuration(delay*2, maxDelay)
				continue
			}
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("read body: %w", readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fullURL)
		case shouldRetry(resp.StatusCode) && attempt < maxRetries:
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if secs, err := strconv.Atoi(retryAfter); err == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			c.logger.Warn("source returned retryable status", "url", fullURL, "status", resp.StatusCode, "attempt", attempt+1, "delay", delay)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay = minDuration(delay*2, maxDelay)
		default:
			return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, fullURL)
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// shouldRetry determines if an HTTP status code warrants a retry
func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
