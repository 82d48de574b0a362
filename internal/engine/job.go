// Package engine implements the download engine: the Job Record, the Chunk
// Worker, the Job Runner, and the Engine Registry.
package engine

import "sync"

// Status is a Job Record's lifecycle state. Transitions are
// Queued -> Running -> {Completed, Failed}; no record leaves a terminal
// state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is a point-in-time, JSON-serializable snapshot of a Job.
type Record struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	Output          string `json:"output"`
	TotalBytes      *int64 `json:"total_bytes,omitempty"`
	DownloadedBytes int64  `json:"downloaded_bytes"`
	Status          Status `json:"status"`
	FailureReason   string `json:"failure_reason,omitempty"`
}

// Job is the live, mutex-guarded record for one submitted download. Field
// reads and writes take the lock; Snapshot copies the record out under the
// read side, matching the registry's consistent-snapshot contract.
type Job struct {
	mu     sync.RWMutex
	record Record
}

func newJob(id, url, output string) *Job {
	return &Job{
		record: Record{
			ID:     id,
			URL:    url,
			Output: output,
			Status: StatusQueued,
		},
	}
}

// Snapshot returns a copy of the job's current record.
func (j *Job) Snapshot() Record {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.record
}

// SetRunning transitions the job to Running.
func (j *Job) SetRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.record.Status = StatusRunning
}

// SetTotalBytes records the remote's advertised content length.
func (j *Job) SetTotalBytes(total int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.record.TotalBytes = &total
}

// AddDownloaded additively increments the downloaded-bytes counter. Additive
// increments under the lock avoid any lost-update window.
func (j *Job) AddDownloaded(n int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.record.DownloadedBytes += n
}

// SetDownloaded sets the downloaded-bytes counter to an absolute value, used
// by the single-shot path which writes the whole body in one step.
func (j *Job) SetDownloaded(n int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.record.DownloadedBytes = n
}

// SetCompleted transitions the job to Completed.
func (j *Job) SetCompleted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.record.Status = StatusCompleted
}

// SetFailed transitions the job to Failed, recording err's message.
func (j *Job) SetFailed(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.record.Status = StatusFailed
	j.record.FailureReason = err.Error()
}
