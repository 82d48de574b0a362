package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/netdout/netdout/internal/httpcap"
	"github.com/netdout/netdout/internal/planner"
	"github.com/netdout/netdout/internal/store"
)

// chunkReadBufferSize bounds how much of the stream is held in memory
// between part-file writes and resume-store upserts.
const chunkReadBufferSize = 64 * 1024

// runChunkWorker fetches one chunk's missing byte range, appends it to its
// part file, and keeps the resume store's progress row current. prior is the
// store's row for this chunk from a previous run, if any.
func runChunkWorker(ctx context.Context, capability *httpcap.Capability, st *store.Store, job *Job, output string, chunk planner.Chunk, prior *store.ChunkProgress) error {
	if prior != nil && prior.Complete {
		return nil
	}

	var downloaded int64
	if prior != nil {
		downloaded = prior.Downloaded
	}

	jobID := job.Snapshot().ID
	url := job.Snapshot().URL

	path := partPath(output, chunk.Index)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("opening part file for chunk %d: %w", chunk.Index, err)
	}
	defer f.Close()

	// No prior row means the safe interpretation is to trust the store over
	// any pre-existing bytes on disk: treat downloaded as 0 and discard
	// whatever the part file currently holds.
	if prior == nil {
		if err := f.Truncate(0); err != nil {
			return fmt.Errorf("truncating part file for chunk %d: %w", chunk.Index, err)
		}
	}
	if _, err := f.Seek(downloaded, io.SeekStart); err != nil {
		return fmt.Errorf("seeking part file for chunk %d: %w", chunk.Index, err)
	}

	if chunk.Start+downloaded > chunk.EndInclusive {
		// Already fully fetched by a prior run.
		if err := st.Save(ctx, jobID, chunk.Index, downloaded, true); err != nil {
			return fmt.Errorf("recording completed chunk %d: %w", chunk.Index, err)
		}
		return nil
	}

	body, err := capability.StreamRange(ctx, url, chunk.Start+downloaded, chunk.EndInclusive)
	if err != nil {
		return fmt.Errorf("streaming chunk %d: %w", chunk.Index, err)
	}
	defer body.Close()

	buf := make([]byte, chunkReadBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return fmt.Errorf("writing part file for chunk %d: %w", chunk.Index, err)
			}
			downloaded += int64(n)
			if err := st.Save(ctx, jobID, chunk.Index, downloaded, false); err != nil {
				return fmt.Errorf("saving progress for chunk %d: %w", chunk.Index, err)
			}
			job.AddDownloaded(int64(n))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("reading chunk %d stream: %w", chunk.Index, readErr)
		}
	}

	if err := st.Save(ctx, jobID, chunk.Index, downloaded, true); err != nil {
		return fmt.Errorf("recording completed chunk %d: %w", chunk.Index, err)
	}
	return nil
}
