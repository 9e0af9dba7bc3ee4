package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/mocks"

	"github.com/infinity-9427/IntelliDoc-AI/internal/jobs"
	"github.com/infinity-9427/IntelliDoc-AI/internal/pipeline"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
)

func newTestApp(t *testing.T) (*fiber.App, *jobs.Store, *mocks.Client) {
	t.Helper()

	store := jobs.NewStore()
	bus := pipeline.NewEventBus(32, 1)
	t.Cleanup(bus.Close)
	require.NoError(t, store.Subscribe(bus))

	temporal := &mocks.Client{}
	handlers := NewHandlers(temporal, store, bus, "intellidoc", 50*1024*1024)

	app := fiber.New()
	handlers.Register(app)
	return app, store, temporal
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestHealthEndpoint(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "intellidoc-ai", body["service"])
}

func TestUploadStartsProcessing(t *testing.T) {
	app, store, temporal := newTestApp(t)
	temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mocks.WorkflowRun{}, nil)

	body, contentType := multipartBody(t, "notes.txt", []byte("some plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var upload UploadResponse
	decodeBody(t, resp, &upload)
	assert.NotEmpty(t, upload.JobID)
	assert.Equal(t, "notes.txt", upload.Filename)
	assert.Equal(t, document.TypeText, upload.FileType)

	// The submitted and queued events flow through the bus to the store
	assert.Eventually(t, func() bool {
		job, err := store.Get(upload.JobID)
		return err == nil && job.Progress == 15
	}, time.Second, 10*time.Millisecond)

	temporal.AssertExpectations(t)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	app, _, _ := newTestApp(t)

	body, contentType := multipartBody(t, "malware.exe", []byte{0x4d, 0x5a})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody map[string]interface{}
	decodeBody(t, resp, &errBody)
	assert.Contains(t, errBody["error"], "Unsupported file type")
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	store := jobs.NewStore()
	temporal := &mocks.Client{}
	handlers := NewHandlers(temporal, store, nil, "intellidoc", 10)

	app := fiber.New()
	handlers.Register(app)

	body, contentType := multipartBody(t, "big.txt", bytes.Repeat([]byte("x"), 100))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetJobStatus(t *testing.T) {
	app, store, _ := newTestApp(t)
	job := store.Create("scan.pdf", document.TypePDF)
	require.NoError(t, store.Apply(pipeline.ProgressEvent(job.ID, "ocr", 55)))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status JobStatusResponse
	decodeBody(t, resp, &status)
	assert.Equal(t, job.ID, status.JobID)
	assert.Equal(t, document.StatusProcessing, status.Status)
	assert.Equal(t, "ocr", status.Stage)
	assert.Equal(t, 55, status.Progress)
}

func TestGetJobNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetJobResult(t *testing.T) {
	app, store, _ := newTestApp(t)
	job := store.Create("scan.pdf", document.TypePDF)

	// Still running
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/result", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	result := &document.AnalysisResult{
		JobID:         job.ID,
		Filename:      "scan.pdf",
		ExtractedText: "recovered text",
		Summary:       "A scanned document.",
	}
	require.NoError(t, store.Apply(pipeline.CompletedEvent(job.ID, result)))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/result", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got document.AnalysisResult
	decodeBody(t, resp, &got)
	assert.Equal(t, "recovered text", got.ExtractedText)
	assert.Equal(t, "A scanned document.", got.Summary)
}

func TestGetJobResultAfterFailure(t *testing.T) {
	app, store, _ := newTestApp(t)
	job := store.Create("bad.pdf", document.TypePDF)
	require.NoError(t, store.Apply(pipeline.FailedEvent(job.ID, "text_extraction", "corrupt file")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/result", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "corrupt file", body["detail"])
}

func TestGetJobReportFormats(t *testing.T) {
	app, store, _ := newTestApp(t)
	job := store.Create("invoice.pdf", document.TypePDF)
	require.NoError(t, store.Apply(pipeline.CompletedEvent(job.ID, &document.AnalysisResult{
		JobID:         job.ID,
		Filename:      "invoice.pdf",
		ExtractedText: "Invoice text body.",
		Summary:       "An invoice.",
	})))

	t.Run("txt", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/report", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "invoice_report.txt")

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(data), "=== DOCUMENT PROCESSING RESULTS ===")
	})

	t.Run("docx", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/report?format=docx", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "wordprocessingml")

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.True(t, len(data) > 4)
		assert.Equal(t, []byte{0x50, 0x4b}, data[:2], "docx output must be a zip archive")
	})

	t.Run("json", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/report?format=json", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got document.AnalysisResult
		decodeBody(t, resp, &got)
		assert.Equal(t, "An invoice.", got.Summary)
	})

	t.Run("unsupported", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/report?format=pdf", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetJobReportBeforeCompletion(t *testing.T) {
	app, store, _ := newTestApp(t)
	job := store.Create("pending.pdf", document.TypePDF)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/report", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
