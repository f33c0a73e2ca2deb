// Package scraper provides functionality to fetch player pages over HTTP
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackoff     = 200 * time.Millisecond
	DefaultRate        = 2.0
	DefaultUserAgent   = "footballer-scraper/1.0 (+https://github.com/myusername/footballer-scraper)"
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	Timeout time.Duration
	// MaxAttempts includes the initial attempt.
	MaxAttempts int
	Backoff     time.Duration
	// RequestsPerSecond limits outgoing requests. Negative disables the limit.
	RequestsPerSecond float64
	UserAgent         string
	// SnapshotDir, when set, stores fetched pages and serves them on later fetches.
	SnapshotDir string
}

// Client fetches HTML pages with retries on transient errors.
type Client struct {
	http        *resty.Client
	snapshotDir string
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = DefaultRate
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	limit := rate.Limit(opts.RequestsPerSecond)
	if opts.RequestsPerSecond < 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, 1)

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryCount(opts.MaxAttempts - 1).
		SetRetryWaitTime(opts.Backoff).
		SetRetryMaxWaitTime(opts.Backoff * 10).
		AddRetryCondition(isTransient)

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Client{
		http:        httpClient,
		snapshotDir: opts.SnapshotDir,
	}
}

// isTransient retries transport errors, rate limiting and server errors.
func isTransient(res *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	code := res.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Fetch downloads the HTML content of a URL. With a snapshot directory configured
// a previously saved copy is returned instead of hitting the network.
func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	snapshot := c.snapshotPath(pageURL)
	if snapshot != "" {
		if content, err := os.ReadFile(snapshot); err == nil {
			log.Debug().Str("url", pageURL).Str("file", snapshot).Msg("using existing HTML file")
			return content, nil
		}
	}

	log.Debug().Str("url", pageURL).Msg("fetching URL")
	res, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching URL: %w", err)
	}

	log.Debug().
		Str("url", pageURL).
		Int("status", res.StatusCode()).
		Str("content_type", res.Header().Get("Content-Type")).
		Int("bytes", len(res.Body())).
		Msg("HTTP response")

	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("non-200 status code: %d %s", res.StatusCode(), res.Status())
	}

	body := res.Body()
	if snapshot != "" {
		if err := SaveContentToFile(snapshot, body); err != nil {
			log.Warn().Err(err).Str("file", snapshot).Msg("error saving HTML snapshot")
		}
	}
	return body, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SnapshotName derives a file name for a page from its host and path.
func SnapshotName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return unsafeNameChars.ReplaceAllString(pageURL, "_") + ".html"
	}
	name := unsafeNameChars.ReplaceAllString(u.Host+u.Path, "_")
	return strings.Trim(name, "_") + ".html"
}

func (c *Client) snapshotPath(pageURL string) string {
	if c.snapshotDir == "" {
		return ""
	}
	return filepath.Join(c.snapshotDir, SnapshotName(pageURL))
}

// SaveContentToFile saves content to a file, creating parent directories
func SaveContentToFile(filename string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	return os.WriteFile(filename, content, 0o644)
}

// ResolveURL resolves ref against base. Absolute refs are returned as is; an empty
// base leaves ref untouched.
func ResolveURL(base, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("error parsing URL %q: %w", ref, err)
	}
	if refURL.IsAbs() || base == "" {
		return refURL.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL %q: %w", base, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
