package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Safari/537.36"

// Options controls the fetch client.
type Options struct {
	Timeout    time.Duration // per-attempt timeout
	Retries    int           // attempts beyond the first
	RetryDelay time.Duration // fixed delay between attempts
	UserAgent  string
}

// Client issues GET requests against the source site. It is stateless across
// calls apart from the shared transport and user-agent header. A 404 fails
// immediately with ErrNotFound; every other failure is retried with a fixed
// delay and finally wrapped as a TransientError.
type Client struct {
	client     *resty.Client
	retries    int
	retryDelay time.Duration
	log        *slog.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetTransport(&http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	})
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept-Charset", "utf-8")
	// Retry policy lives here, not in resty: 404 must short-circuit before
	// any retry, and the orchestrator layers its own backoff on top.
	client.SetRetryCount(0)
	client.SetLogger(disableLogger{})

	return &Client{
		client:     client,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		log:        slog.With("component", "fetcher"),
	}
}

// Fetch GETs the URL and returns the response body as text.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	attempts := c.retries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.client.R().SetContext(ctx).Get(url)
		switch {
		case err == nil && resp.StatusCode() == http.StatusNotFound:
			return "", fmt.Errorf("fetch %s: %w", url, ErrNotFound)
		case err == nil && resp.IsSuccess():
			return resp.String(), nil
		case err == nil:
			lastErr = fmt.Errorf("unexpected status %s", resp.Status())
		default:
			lastErr = err
		}

		if attempt < attempts {
			c.log.Warn("fetch failed, retrying",
				"url", url, "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", &TransientError{Attempts: attempt, Err: ctx.Err()}
			}
		}
	}

	c.log.Error("fetch failed after all attempts", "url", url, "attempts", attempts, "error", lastErr)
	return "", &TransientError{Attempts: attempts, Err: lastErr}
}

type disableLogger struct{}

func (disableLogger) Errorf(string, ...interface{}) {}
func (disableLogger) Warnf(string, ...interface{})  {}
func (disableLogger) Debugf(string, ...interface{}) {}
