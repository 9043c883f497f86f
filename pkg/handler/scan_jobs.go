package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	scandb "github.com/yumyai/pfamscan/pkg/db"
	"github.com/yumyai/pfamscan/pkg/hmmer"
)

// ScanJobStatus represents the lifecycle of a scan request.
type ScanJobStatus string

const (
	ScanJobQueued    ScanJobStatus = "queued"
	ScanJobRunning   ScanJobStatus = "running"
	ScanJobCompleted ScanJobStatus = "completed"
	ScanJobFailed    ScanJobStatus = "failed"
)

func (s ScanJobStatus) Finished() bool {
	return s == ScanJobCompleted || s == ScanJobFailed
}

// ScanJob keeps track of a scan while the remote service works on it.
type ScanJob struct {
	ID        string          `json:"id"`
	Sequence  string          `json:"sequence"`
	Status    ScanJobStatus   `json:"status"`
	Results   []*hmmer.Result `json:"results"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	done chan struct{}
}

// Record converts the job into its stored form.
func (job *ScanJob) Record() *scandb.ScanRecord {
	return &scandb.ScanRecord{
		ID:        job.ID,
		Sequence:  job.Sequence,
		Status:    string(job.Status),
		Error:     job.Error,
		Results:   job.Results,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

func jobFromRecord(rec *scandb.ScanRecord) *ScanJob {
	return &ScanJob{
		ID:        rec.ID,
		Sequence:  rec.Sequence,
		Status:    ScanJobStatus(rec.Status),
		Results:   rec.Results,
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// ScanJobManager stores scan job states indexed by job ID.
type ScanJobManager struct {
	mu   sync.RWMutex
	jobs map[string]*ScanJob
}

// NewScanJobManager constructs a job manager with no jobs.
func NewScanJobManager() *ScanJobManager {
	return &ScanJobManager{
		jobs: make(map[string]*ScanJob),
	}
}

// NewJob registers a queued job for the sequence.
func (m *ScanJobManager) NewJob(sequence string) *ScanJob {
	now := time.Now()
	job := &ScanJob{
		ID:        uuid.NewString(),
		Sequence:  sequence,
		Status:    ScanJobQueued,
		CreatedAt: now,
		UpdatedAt: now,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job.snapshot()
}

// SetRunning marks the job as running.
func (m *ScanJobManager) SetRunning(jobID string) {
	m.updateJob(jobID, func(job *ScanJob) {
		job.Status = ScanJobRunning
	})
}

// CompleteJob stores the scan results and marks the job complete.
func (m *ScanJobManager) CompleteJob(jobID string, results []*hmmer.Result) {
	m.updateJob(jobID, func(job *ScanJob) {
		job.Status = ScanJobCompleted
		job.Results = results
		close(job.done)
	})
}

// FailJob records a failure and attaches a user-facing error message.
func (m *ScanJobManager) FailJob(jobID string, err error) {
	m.updateJob(jobID, func(job *ScanJob) {
		job.Status = ScanJobFailed
		job.Error = err.Error()
		close(job.done)
	})
}

// GetJob fetches a copy of the job by ID.
func (m *ScanJobManager) GetJob(jobID string) (*ScanJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.snapshot(), true
}

// Wait blocks until the job finishes or ctx is done.
func (m *ScanJobManager) Wait(ctx context.Context, jobID string) (*ScanJob, bool) {
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	select {
	case <-job.done:
	case <-ctx.Done():
	}
	return m.GetJob(jobID)
}

func (m *ScanJobManager) updateJob(jobID string, update func(job *ScanJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok || job.Status.Finished() {
		return
	}

	update(job)
	job.UpdatedAt = time.Now()
}

// snapshot must be called with the lock held or on a job no one else sees yet.
func (job *ScanJob) snapshot() *ScanJob {
	cp := *job
	return &cp
}
