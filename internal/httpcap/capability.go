package httpcap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RemoteMetadata is what Probe learns about a remote resource.
type RemoteMetadata struct {
	// ContentLength is nil when the remote doesn't advertise a size.
	ContentLength *int64
	// RangeSupported is true iff the remote advertises byte-range support
	// for this resource (Accept-Ranges: bytes).
	RangeSupported bool
}

// StatusError carries a non-success HTTP status from Probe or StreamRange.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Capability is the HTTP Capability: probing remote metadata and streaming
// range GETs. Probe retries through a bounded exponential backoff (a HEAD is
// idempotent); StreamRange never retries — the resume store, not an
// in-request retry loop, is this system's recovery mechanism for range GETs.
type Capability struct {
	client      *http.Client
	probeClient *retryablehttp.Client
}

// New builds a Capability sharing one tuned transport between the probe and
// streaming paths.
func New() *Capability {
	client := newOptimizedClient()

	probe := retryablehttp.NewClient()
	probe.HTTPClient = client
	probe.RetryMax = 5
	probe.RetryWaitMin = 200 * time.Millisecond
	probe.RetryWaitMax = 15 * time.Second
	probe.Logger = nil
	// Hand the last response back once retries run out, so Probe can report
	// its status as a *StatusError.
	probe.ErrorHandler = retryablehttp.PassthroughErrorHandler
	probe.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return ClassifyError(err) != ErrorTypeFatal, nil
		}
		if resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}
	probe.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		return CalculateBackoff(attemptNum, min, max)
	}

	return &Capability{client: client, probeClient: probe}
}

// Probe issues a HEAD request and reports the remote's advertised size and
// range-support. A non-success status is returned as a *StatusError.
func (c *Capability) Probe(ctx context.Context, url string) (RemoteMetadata, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return RemoteMetadata{}, fmt.Errorf("building probe request: %w", err)
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return RemoteMetadata{}, fmt.Errorf("probing %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return RemoteMetadata{}, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	meta := RemoteMetadata{
		RangeSupported: resp.Header.Get("Accept-Ranges") == "bytes",
	}
	if resp.ContentLength >= 0 {
		cl := resp.ContentLength
		meta.ContentLength = &cl
	}

	return meta, nil
}

// StreamRange issues a GET with a Range header for [start, endInclusive] and
// returns the response body for the caller to consume and close. No retry
// policy is applied here.
func (c *Capability) StreamRange(ctx context.Context, url string, start, endInclusive int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building range request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, endInclusive))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching range %d-%d from %s: %w", start, endInclusive, url, err)
	}

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}

// Get issues a plain GET and returns the response body, for the single-shot
// path where the remote doesn't support ranges.
func (c *Capability) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}
