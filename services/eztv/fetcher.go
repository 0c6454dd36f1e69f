package eztv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultAttempts = 3
	defaultAgent    = "showdex/1.0"
)

// Fetcher retrieves tracker pages and hands back either a parsed Document
// or a decoded JSON payload. All network policy lives here: timeouts,
// retries with backoff, cancellation. Extraction never re-fetches.
type Fetcher struct {
	baseURL   string
	userAgent string
	attempts  uint
	httpc     *http.Client
}

// NewFetcher creates a fetcher for the tracker at baseURL. A nil client
// gets a default one with a request timeout.
func NewFetcher(baseURL string, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultAgent,
		attempts:  defaultAttempts,
		httpc:     client,
	}
}

// SetRetryAttempts overrides the per-request attempt budget (minimum 1).
func (f *Fetcher) SetRetryAttempts(n int) {
	if n >= 1 {
		f.attempts = uint(n)
	}
}

// SetUserAgent overrides the User-Agent header sent with every request.
func (f *Fetcher) SetUserAgent(agent string) {
	if strings.TrimSpace(agent) != "" {
		f.userAgent = agent
	}
}

// Page fetches an HTML page and parses it into a Document.
func (f *Fetcher) Page(ctx context.Context, path string, query url.Values) (Document, error) {
	body, err := f.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// JSON fetches an endpoint and decodes the response body into v.
func (f *Fetcher) JSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := f.get(ctx, path, query)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// get performs the request with retries. Server-side failures (5xx, 429)
// and transport errors are retried with backoff; other non-200 statuses
// fail immediately.
func (f *Fetcher) get(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	u := f.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.ReadCloser
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("User-Agent", f.userAgent)

			resp, err := f.httpc.Do(req)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", path, err)
			}
			if resp.StatusCode != http.StatusOK {
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
				resp.Body.Close()
				err := fmt.Errorf("fetch %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
				if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
					return err
				}
				return retry.Unrecoverable(err)
			}
			body = resp.Body
			return nil
		},
		retry.Attempts(f.attempts),
		retry.Context(ctx),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}
