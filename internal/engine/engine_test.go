package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdout/netdout/internal/httpcap"
	"github.com/netdout/netdout/internal/logging"
	"github.com/netdout/netdout/internal/store"
)

func itoa(n int) string { return strconv.Itoa(n) }

// parseRange parses a "bytes=start-end" header value.
func parseRange(t *testing.T, header string, bodyLen int) (int, int) {
	t.Helper()
	trimmed := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(trimmed, "-", 2)
	require.Len(t, parts, 2)

	start, err := strconv.Atoi(parts[0])
	require.NoError(t, err)
	end, err := strconv.Atoi(parts[1])
	require.NoError(t, err)
	require.Less(t, end, bodyLen+1, fmt.Sprintf("range end out of bounds: %s", header))

	return start, end
}

func newTestDeps(t *testing.T) (*httpcap.Capability, *store.Store, *logging.Logger) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return httpcap.New(), st, logging.New(os.Stderr)
}

// remoteResourceServer serves body with Accept-Ranges support and records
// every Range header it was asked for.
func remoteResourceServer(t *testing.T, body []byte) (*httptest.Server, *[]string) {
	t.Helper()
	var requestedRanges []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("Content-Length", itoa(len(body)))
			w.WriteHeader(http.StatusOK)
			return
		}

		rng := r.Header.Get("Range")
		requestedRanges = append(requestedRanges, rng)

		start, end := parseRange(t, rng, len(body))
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(body[start : end+1])
	}))

	return srv, &requestedRanges
}

func TestFullJobChunkedDownload(t *testing.T) {
	body := []byte("123456789") // 9 bytes
	srv, ranges := remoteResourceServer(t, body)
	defer srv.Close()

	capability, st, log := newTestDeps(t)

	tmpDir := t.TempDir()
	output := filepath.Join(tmpDir, "out.bin")

	job := newJob("job-1", srv.URL, output)
	runJob(context.Background(), job, capability, st, 8, 4, log)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status)
	require.NotNil(t, snap.TotalBytes)
	assert.EqualValues(t, 9, *snap.TotalBytes)
	assert.EqualValues(t, 9, snap.DownloadedBytes)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	assert.ElementsMatch(t, []string{"bytes=0-3", "bytes=4-7", "bytes=8-8"}, *ranges)
}

func TestResumeSkipsCompletedChunkAndReissuesPartial(t *testing.T) {
	body := []byte("123456789") // 9 bytes, chunk size 4 -> 3 chunks
	srv, ranges := remoteResourceServer(t, body)
	defer srv.Close()

	capability, st, _ := newTestDeps(t)
	ctx := context.Background()

	tmpDir := t.TempDir()
	output := filepath.Join(tmpDir, "out.bin")
	require.NoError(t, os.MkdirAll(chunkDir(output), 0755))

	// Simulate a crash after chunk 0 completed and chunk 1 wrote 2 of 4 bytes.
	require.NoError(t, os.WriteFile(partPath(output, 0), body[0:4], 0644))
	require.NoError(t, os.WriteFile(partPath(output, 1), body[4:6], 0644))

	require.NoError(t, st.Save(ctx, "job-resume", 0, 4, true))
	require.NoError(t, st.Save(ctx, "job-resume", 1, 2, false))

	job := newJob("job-resume", srv.URL, output)
	job.SetTotalBytes(int64(len(body)))

	err := runChunkedPath(ctx, job, capability, st, int64(len(body)), 8, 4)
	require.NoError(t, err)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	// Chunk 0 was already complete: no request for it at all. Chunk 1 should
	// resume from byte 6, chunk 2 fetched in full.
	assert.ElementsMatch(t, []string{"bytes=6-7", "bytes=8-8"}, *ranges)
}

func TestRegistryEnqueueAndStatus(t *testing.T) {
	body := []byte("hello world")
	srv, _ := remoteResourceServer(t, body)
	defer srv.Close()

	capability, st, log := newTestDeps(t)
	reg := New(capability, st, log, 8, 4)

	tmpDir := t.TempDir()
	output := filepath.Join(tmpDir, "out.bin")

	id := reg.Enqueue(srv.URL, output)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		rec, ok := reg.Status(id)
		return ok && rec.Status == StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	rec, ok := reg.Status(id)
	require.True(t, ok)
	assert.Equal(t, output, rec.Output)
	assert.EqualValues(t, len(body), rec.DownloadedBytes)
}

func TestRegistryStatusUnknownJob(t *testing.T) {
	capability, st, log := newTestDeps(t)
	reg := New(capability, st, log, 8, 4)

	_, ok := reg.Status("does-not-exist")
	assert.False(t, ok)
}

func TestJobZeroTotalUsesSingleShotAndWritesEmptyFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", "0")
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	capability, st, log := newTestDeps(t)
	tmpDir := t.TempDir()
	output := filepath.Join(tmpDir, "empty.bin")

	job := newJob("job-empty", srv.URL, output)
	runJob(context.Background(), job, capability, st, 8, 4, log)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.EqualValues(t, 0, snap.DownloadedBytes)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
