package pipeline

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

// EventType represents the type of job lifecycle event
type EventType string

const (
	EventJobSubmitted EventType = "job.submitted"
	EventJobProgress  EventType = "job.progress"
	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"
)

// JobEvent represents a state change in a document processing job
type JobEvent struct {
	ID        string                   `json:"id"`
	Type      EventType                `json:"type"`
	JobID     string                   `json:"job_id"`
	Timestamp time.Time                `json:"timestamp"`
	Stage     string                   `json:"stage,omitempty"`
	Progress  int                      `json:"progress"`
	Result    *document.AnalysisResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// NewJobEvent creates a new job event
func NewJobEvent(eventType EventType, jobID string) *JobEvent {
	return &JobEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		JobID:     jobID,
		Timestamp: time.Now(),
	}
}

// ProgressEvent creates a job.progress event for one processing stage
func ProgressEvent(jobID, stage string, progress int) *JobEvent {
	ev := NewJobEvent(EventJobProgress, jobID)
	ev.Stage = stage
	ev.Progress = progress
	return ev
}

// CompletedEvent creates a job.completed event carrying the final result
func CompletedEvent(jobID string, result *document.AnalysisResult) *JobEvent {
	ev := NewJobEvent(EventJobCompleted, jobID)
	ev.Progress = 100
	ev.Result = result
	return ev
}

// FailedEvent creates a job.failed event
func FailedEvent(jobID, stage, errMsg string) *JobEvent {
	ev := NewJobEvent(EventJobFailed, jobID)
	ev.Stage = stage
	ev.Error = errMsg
	return ev
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("evt_%d_%s", time.Now().UnixNano(), generateRandomString(8))
}

func generateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
