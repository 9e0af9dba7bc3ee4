package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinity-9427/IntelliDoc-AI/internal/pipeline"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

func TestCreateAndGet(t *testing.T) {
	store := NewStore()

	job := store.Create("report.pdf", document.TypePDF)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, document.StatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, document.TypePDF, got.FileType)

	_, err = store.Get("missing")
	assert.Error(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore()
	job := store.Create("a.txt", document.TypeText)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	got.Status = document.StatusError

	again, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusPending, again.Status)
}

func TestApplyLifecycle(t *testing.T) {
	store := NewStore()
	job := store.Create("scan.png", document.TypeImage)

	require.NoError(t, store.Apply(pipeline.NewJobEvent(pipeline.EventJobSubmitted, job.ID)))
	got, _ := store.Get(job.ID)
	assert.Equal(t, document.StatusProcessing, got.Status)

	require.NoError(t, store.Apply(pipeline.ProgressEvent(job.ID, "ocr", 40)))
	got, _ = store.Get(job.ID)
	assert.Equal(t, 40, got.Progress)
	assert.Equal(t, "ocr", got.Stage)

	result := &document.AnalysisResult{JobID: job.ID, Filename: "scan.png"}
	require.NoError(t, store.Apply(pipeline.CompletedEvent(job.ID, result)))
	got, _ = store.Get(job.ID)
	assert.Equal(t, document.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, job.ID, got.Result.JobID)
}

func TestProgressNeverMovesBackwards(t *testing.T) {
	store := NewStore()
	job := store.Create("scan.png", document.TypeImage)

	require.NoError(t, store.Apply(pipeline.ProgressEvent(job.ID, "analysis", 80)))
	require.NoError(t, store.Apply(pipeline.ProgressEvent(job.ID, "ocr", 40)))

	got, _ := store.Get(job.ID)
	assert.Equal(t, 80, got.Progress)
}

func TestTerminalJobIgnoresLateProgress(t *testing.T) {
	store := NewStore()

	done := store.Create("done.pdf", document.TypePDF)
	require.NoError(t, store.Apply(pipeline.CompletedEvent(done.ID, &document.AnalysisResult{JobID: done.ID})))
	require.NoError(t, store.Apply(pipeline.ProgressEvent(done.ID, "report", 95)))

	got, _ := store.Get(done.ID)
	assert.Equal(t, document.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)

	failed := store.Create("broken.pdf", document.TypePDF)
	require.NoError(t, store.Apply(pipeline.FailedEvent(failed.ID, "ocr", "boom")))
	require.NoError(t, store.Apply(pipeline.ProgressEvent(failed.ID, "ocr", 50)))

	got, _ = store.Get(failed.ID)
	assert.Equal(t, document.StatusError, got.Status)
	assert.Equal(t, "ocr", got.Stage)
}

func TestFailedEventRecordsError(t *testing.T) {
	store := NewStore()
	job := store.Create("broken.pdf", document.TypePDF)

	require.NoError(t, store.Apply(pipeline.FailedEvent(job.ID, "extraction", "corrupt file")))

	got, _ := store.Get(job.ID)
	assert.Equal(t, document.StatusError, got.Status)
	assert.Equal(t, "extraction", got.Stage)
	assert.Equal(t, "corrupt file", got.Error)
}

func TestApplyUnknownJob(t *testing.T) {
	store := NewStore()
	err := store.Apply(pipeline.ProgressEvent("nope", "ocr", 10))
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	store := NewStore()
	a := store.Create("a.pdf", document.TypePDF)
	b := store.Create("b.pdf", document.TypePDF)
	store.Create("c.pdf", document.TypePDF)

	require.NoError(t, store.Apply(pipeline.CompletedEvent(a.ID, nil)))
	require.NoError(t, store.Apply(pipeline.FailedEvent(b.ID, "ocr", "boom")))

	stats := store.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Errored)
}

func TestSubscribeFollowsBusEvents(t *testing.T) {
	store := NewStore()
	bus := pipeline.NewEventBus(16, 1)
	defer bus.Close()

	require.NoError(t, store.Subscribe(bus))

	job := store.Create("doc.pdf", document.TypePDF)
	require.NoError(t, bus.Publish(pipeline.ProgressEvent(job.ID, "rasterize", 20)))

	assert.Eventually(t, func() bool {
		got, err := store.Get(job.ID)
		return err == nil && got.Progress == 20
	}, time.Second, 10*time.Millisecond)
}
