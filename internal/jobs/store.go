package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/infinity-9427/IntelliDoc-AI/internal/pipeline"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

// Job tracks one document through the processing pipeline
type Job struct {
	ID        string                   `json:"id"`
	Filename  string                   `json:"filename"`
	FileType  document.Type            `json:"file_type"`
	Status    document.Status          `json:"status"`
	Stage     string                   `json:"stage,omitempty"`
	Progress  int                      `json:"progress"`
	Error     string                   `json:"error,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
	Result    *document.AnalysisResult `json:"result,omitempty"`
}

// StoreStats summarizes the job store contents
type StoreStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Errored    int `json:"errored"`
}

// Store is an in-memory job registry fed by pipeline events
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new pending job and returns its id
func (s *Store) Create(filename string, fileType document.Type) *Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		Filename:  filename,
		FileType:  fileType,
		Status:    document.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	log.Info().
		Str("job_id", job.ID).
		Str("filename", filename).
		Str("file_type", string(fileType)).
		Msg("Job created")

	return job
}

// Get returns a copy of the job with the given id
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	copied := *job
	return &copied, nil
}

// Stats returns aggregate counts by status
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{Total: len(s.jobs)}
	for _, job := range s.jobs {
		switch job.Status {
		case document.StatusPending:
			stats.Pending++
		case document.StatusProcessing:
			stats.Processing++
		case document.StatusCompleted:
			stats.Completed++
		case document.StatusError:
			stats.Errored++
		}
	}
	return stats
}

// Subscribe wires the store to the event bus so job state follows
// the published lifecycle events.
func (s *Store) Subscribe(bus *pipeline.EventBus) error {
	types := []pipeline.EventType{
		pipeline.EventJobSubmitted,
		pipeline.EventJobProgress,
		pipeline.EventJobCompleted,
		pipeline.EventJobFailed,
	}
	_, err := bus.Subscribe(types, func(ctx context.Context, ev *pipeline.JobEvent) error {
		return s.Apply(ev)
	})
	return err
}

// Apply updates the tracked job from a lifecycle event. Progress never
// moves backwards, and once a job is completed or errored a late
// progress event cannot pull it back to processing.
func (s *Store) Apply(ev *pipeline.JobEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[ev.JobID]
	if !ok {
		return fmt.Errorf("job not found: %s", ev.JobID)
	}

	switch ev.Type {
	case pipeline.EventJobSubmitted:
		if job.Status == document.StatusPending {
			job.Status = document.StatusProcessing
		}
	case pipeline.EventJobProgress:
		if job.Status == document.StatusCompleted || job.Status == document.StatusError {
			return nil
		}
		job.Status = document.StatusProcessing
		job.Stage = ev.Stage
		if ev.Progress > job.Progress {
			job.Progress = ev.Progress
		}
	case pipeline.EventJobCompleted:
		job.Status = document.StatusCompleted
		job.Progress = 100
		job.Result = ev.Result
	case pipeline.EventJobFailed:
		job.Status = document.StatusError
		job.Stage = ev.Stage
		job.Error = ev.Error
	default:
		return fmt.Errorf("unknown event type: %s", ev.Type)
	}

	job.UpdatedAt = time.Now()
	return nil
}
