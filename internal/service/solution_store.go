package service

import (
	"sync"
	"time"

	"github.com/yuga-labs/yuga-planner-api/internal/models"
)

// JobSnapshot is a fully-formed view of a job's latest reported state.
type JobSnapshot struct {
	JobID     string
	Status    models.JobStatus
	Schedule  *models.Schedule
	UpdatedAt time.Time
}

type jobEntry struct {
	status     models.JobStatus
	schedule   *models.Schedule
	terminated bool
	createdAt  time.Time
	updatedAt  time.Time
}

// SolutionStore is the job registry: the only state shared between solver
// workers and API callers. Writers store pre-cloned snapshots, so readers
// never observe a partially mutated schedule.
type SolutionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*jobEntry
}

// NewSolutionStore builds a registry; finished jobs are evicted ttl after
// their last update.
func NewSolutionStore(ttl time.Duration) *SolutionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SolutionStore{
		ttl:   ttl,
		items: make(map[string]*jobEntry),
	}
}

// Create registers a submitted job.
func (s *SolutionStore) Create(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.items[jobID] = &jobEntry{status: models.JobStatusSubmitted, createdAt: now, updatedAt: now}
}

// MarkRunning transitions a job to RUNNING when its worker picks it up.
func (s *SolutionStore) MarkRunning(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.items[jobID]; ok {
		entry.status = models.JobStatusRunning
		entry.updatedAt = time.Now().UTC()
	}
}

// Report stores an improving snapshot. The schedule must already be a deep
// copy owned by the store after this call.
func (s *SolutionStore) Report(jobID string, sched *models.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[jobID]
	if !ok {
		return
	}
	entry.schedule = sched
	if entry.status != models.JobStatusTerminated {
		entry.status = models.JobStatusImproved
	}
	entry.updatedAt = time.Now().UTC()
}

// Complete marks the job TERMINATED, keeping its last reported schedule.
func (s *SolutionStore) Complete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.items[jobID]; ok {
		entry.status = models.JobStatusTerminated
		entry.updatedAt = time.Now().UTC()
	}
}

// Terminate requests cooperative termination of one job. It reports whether
// the job exists.
func (s *SolutionStore) Terminate(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[jobID]
	if !ok {
		return false
	}
	entry.terminated = true
	return true
}

// TerminateAll flags every known job for termination.
func (s *SolutionStore) TerminateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.items {
		entry.terminated = true
	}
}

// Terminated reports whether termination was requested for the job. Workers
// poll this between moves.
func (s *SolutionStore) Terminated(jobID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.items[jobID]
	return ok && entry.terminated
}

// Get returns the latest snapshot for the job. A job without a reported
// schedule yet returns ok=true with a nil Schedule: polling misses are
// routine, not errors. Expired finished jobs are evicted lazily.
func (s *SolutionStore) Get(jobID string) (JobSnapshot, bool) {
	s.mu.RLock()
	entry, ok := s.items[jobID]
	if !ok {
		s.mu.RUnlock()
		return JobSnapshot{}, false
	}
	snapshot := JobSnapshot{
		JobID:     jobID,
		Status:    entry.status,
		Schedule:  entry.schedule,
		UpdatedAt: entry.updatedAt,
	}
	s.mu.RUnlock()

	if snapshot.Status == models.JobStatusTerminated && time.Since(snapshot.UpdatedAt) > s.ttl {
		s.Delete(jobID)
		return JobSnapshot{}, false
	}
	return snapshot, true
}

// HasResult reports whether the job has reported at least one schedule.
func (s *SolutionStore) HasResult(jobID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.items[jobID]
	return ok && entry.schedule != nil
}

// Delete removes a job from the registry.
func (s *SolutionStore) Delete(jobID string) {
	s.mu.Lock()
	delete(s.items, jobID)
	s.mu.Unlock()
}

// JobIDs lists all registered jobs.
func (s *SolutionStore) JobIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.items))
	for id := range s.items {
		out = append(out, id)
	}
	return out
}
