package httpcap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeReportsSizeAndRangeSupport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", "9")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	capability := New()
	meta, err := capability.Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, meta.ContentLength)
	assert.EqualValues(t, 9, *meta.ContentLength)
	assert.True(t, meta.RangeSupported)
}

func TestProbeNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	capability := New()
	capability.probeClient.RetryMax = 0
	_, err := capability.Probe(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestStreamRangeReturnsRequestedBytes(t *testing.T) {
	body := []byte("abcdefghi")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		assert.Equal(t, "bytes=4-7", rng)
		w.Header().Set("Content-Range", "bytes 4-7/9")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(body[4:8])
	}))
	defer srv.Close()

	capability := New()
	rc, err := capability.StreamRange(context.Background(), srv.URL, 4, 7)
	require.NoError(t, err)
	defer rc.Close()

	buf := make([]byte, 4)
	n, err := rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "efgh", string(buf[:n]))
}
