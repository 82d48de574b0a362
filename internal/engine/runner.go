package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/netdout/netdout/internal/httpcap"
	"github.com/netdout/netdout/internal/logging"
	"github.com/netdout/netdout/internal/planner"
	"github.com/netdout/netdout/internal/scheduler"
	"github.com/netdout/netdout/internal/store"
)

// runJob executes job exactly once: probe, plan, spawn workers under the
// scheduler's parallelism limit, merge, finalize. It always leaves the job
// in a terminal state before returning.
func runJob(ctx context.Context, job *Job, capability *httpcap.Capability, st *store.Store, workerCeiling int, chunkSize int64, log *logging.Logger) {
	job.SetRunning()

	snap := job.Snapshot()
	meta, err := capability.Probe(ctx, snap.URL)
	if err != nil {
		job.SetFailed(fmt.Errorf("probing remote: %w", err))
		log.Errorf("job %s: probe failed: %v", snap.ID, err)
		return
	}
	if meta.ContentLength != nil {
		job.SetTotalBytes(*meta.ContentLength)
	}

	if meta.RangeSupported && meta.ContentLength != nil && *meta.ContentLength > 0 {
		err = runChunkedPath(ctx, job, capability, st, *meta.ContentLength, workerCeiling, chunkSize)
	} else {
		err = runSingleShotPath(ctx, job, capability)
	}

	if err != nil {
		job.SetFailed(err)
		log.Errorf("job %s: failed: %v", snap.ID, err)
		return
	}

	job.SetCompleted()
	log.Infof("job %s: completed", snap.ID)
}

func runChunkedPath(ctx context.Context, job *Job, capability *httpcap.Capability, st *store.Store, total int64, workerCeiling int, chunkSize int64) error {
	snap := job.Snapshot()
	output := snap.Output

	if err := os.MkdirAll(chunkDir(output), 0755); err != nil {
		return fmt.Errorf("creating chunk directory: %w", err)
	}

	plan := planner.Plan(total, chunkSize)

	priorRows, err := st.Load(ctx, snap.ID)
	if err != nil {
		return fmt.Errorf("loading resume state: %w", err)
	}
	priorByIndex := make(map[int]store.ChunkProgress, len(priorRows))
	for _, row := range priorRows {
		priorByIndex[row.ChunkIndex] = row
	}

	parallelism := scheduler.Choose(workerCeiling, &total)
	sem := semaphore.NewWeighted(int64(parallelism))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for _, chunk := range plan {
		chunk := chunk
		if err := sem.Acquire(ctx, 1); err != nil {
			errOnce.Do(func() { firstErr = fmt.Errorf("acquiring worker slot: %w", err) })
			break
		}

		var prior *store.ChunkProgress
		if row, ok := priorByIndex[chunk.Index]; ok {
			prior = &row
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := runChunkWorker(ctx, capability, st, job, output, chunk, prior); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}()
	}

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}

	return mergeChunks(output, len(plan))
}

func runSingleShotPath(ctx context.Context, job *Job, capability *httpcap.Capability) error {
	snap := job.Snapshot()

	body, err := capability.Get(ctx, snap.URL)
	if err != nil {
		return fmt.Errorf("fetching resource: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if err := os.WriteFile(snap.Output, data, 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	job.SetDownloaded(int64(len(data)))
	return nil
}

// mergeChunks concatenates chunk-0.part .. chunk-(n-1).part in strict index
// order into a temp file, then atomically renames it onto output.
func mergeChunks(output string, chunkCount int) error {
	tmpPath := mergeTmpPath(output)

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating merge temp file: %w", err)
	}

	for idx := 0; idx < chunkCount; idx++ {
		if err := appendPart(tmp, partPath(output, idx)); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("merging chunk %d: %w", idx, err)
		}
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing merged output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing merge temp file: %w", err)
	}

	if err := os.Rename(tmpPath, output); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming merged output into place: %w", err)
	}

	return nil
}

func appendPart(dst *os.File, partFile string) error {
	src, err := os.Open(partFile)
	if err != nil {
		return fmt.Errorf("opening part file: %w", err)
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}
