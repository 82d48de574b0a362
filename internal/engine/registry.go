package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/netdout/netdout/internal/httpcap"
	"github.com/netdout/netdout/internal/logging"
	"github.com/netdout/netdout/internal/store"
)

// Registry is the per-process map of job id to live Job Record. It owns all
// Job Records exclusively.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	capability    *httpcap.Capability
	store         *store.Store
	log           *logging.Logger
	workerCeiling int
	chunkSize     int64
}

// New builds a Registry whose background Job Runners share capability, st,
// and log, and are configured with workerCeiling and chunkSize.
func New(capability *httpcap.Capability, st *store.Store, log *logging.Logger, workerCeiling int, chunkSize int64) *Registry {
	return &Registry{
		jobs:          make(map[string]*Job),
		capability:    capability,
		store:         st,
		log:           log,
		workerCeiling: workerCeiling,
		chunkSize:     chunkSize,
	}
}

// Enqueue inserts a fresh Queued record, generates its id, spawns the Job
// Runner as a detached goroutine, and returns the id. The runner writes a
// terminal status back into the registry before it exits.
func (r *Registry) Enqueue(url, output string) string {
	id := uuid.NewString()
	job := newJob(id, url, output)

	r.mu.Lock()
	r.jobs[id] = job
	r.mu.Unlock()

	go runJob(context.Background(), job, r.capability, r.store, r.workerCeiling, r.chunkSize, r.log)

	return id
}

// Status returns a consistent snapshot of the job, or false if unknown.
func (r *Registry) Status(id string) (Record, bool) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return Record{}, false
	}
	return job.Snapshot(), true
}
