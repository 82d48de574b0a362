// Package httpcap implements the HTTP Capability the download engine
// consumes: probing remote metadata and streaming range GETs.
package httpcap

import (
	"crypto/tls"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
)

// newOptimizedTransport builds a *http.Transport tuned for many concurrent
// range-GET connections to the same host: a large per-host connection pool,
// HTTP/2 multiplexing, and disabled compression (range responses are already
// partial and frequently pre-compressed).
func newOptimizedTransport() *http.Transport {
	tr := &http.Transport{
		MaxIdleConns:          512,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
	}

	_ = http2.ConfigureTransport(tr)

	// Runtime toggle for HTTP/2 (useful for debugging or compatibility issues).
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
	}

	return tr
}

// newOptimizedClient returns an *http.Client with no overall timeout (each
// caller sets its own deadline via context) built on the optimized transport.
func newOptimizedClient() *http.Client {
	return &http.Client{
		Transport: newOptimizedTransport(),
		Timeout:   0,
	}
}
