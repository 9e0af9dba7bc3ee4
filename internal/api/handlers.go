package api

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"

	"github.com/infinity-9427/IntelliDoc-AI/internal/jobs"
	"github.com/infinity-9427/IntelliDoc-AI/internal/pipeline"
	"github.com/infinity-9427/IntelliDoc-AI/internal/report"
	"github.com/infinity-9427/IntelliDoc-AI/internal/temporal/workflows"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/document"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// Handlers contains the HTTP handlers for the API
type Handlers struct {
	temporal    client.Client
	store       *jobs.Store
	bus         *pipeline.EventBus
	taskQueue   string
	maxFileSize int64
	log         zerolog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(temporal client.Client, store *jobs.Store, bus *pipeline.EventBus, taskQueue string, maxFileSize int64) *Handlers {
	return &Handlers{
		temporal:    temporal,
		store:       store,
		bus:         bus,
		taskQueue:   taskQueue,
		maxFileSize: maxFileSize,
		log:         logging.GetLogger("api"),
	}
}

// Register mounts the API routes on the fiber app
func (h *Handlers) Register(app *fiber.App) {
	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")
	v1.Post("/documents", h.UploadDocument)
	v1.Get("/jobs/:id", h.GetJob)
	v1.Get("/jobs/:id/result", h.GetJobResult)
	v1.Get("/jobs/:id/report", h.GetJobReport)
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "intellidoc-ai",
		"version":   "0.1.0",
		"timestamp": time.Now().UTC(),
	})
}

// UploadResponse represents the response for a document upload
type UploadResponse struct {
	JobID    string        `json:"job_id"`
	Filename string        `json:"filename"`
	FileType document.Type `json:"file_type"`
	Size     int64         `json:"size"`
	Status   string        `json:"status"`
}

// UploadDocument accepts a multipart file and starts processing
func (h *Handlers) UploadDocument(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		h.log.Warn().Err(err).Msg("Upload without a file part")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "No file uploaded or invalid file format",
			"details": err.Error(),
		})
	}

	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large: %d bytes. Maximum size is %d bytes", file.Size, h.maxFileSize),
		})
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if ext == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File must have a valid extension",
		})
	}

	fileType := document.TypeFromFilename(file.Filename)
	if fileType == document.TypeUnknown {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported file type: %s. Supported types: %s",
				ext, strings.Join(supportedExtensions(), ", ")),
		})
	}

	src, err := file.Open()
	if err != nil {
		h.log.Error().Err(err).Str("filename", file.Filename).Msg("Failed to open upload")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to process uploaded file",
			"details": err.Error(),
		})
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		h.log.Error().Err(err).Str("filename", file.Filename).Msg("Failed to read upload")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to read file content",
			"details": err.Error(),
		})
	}

	job := h.store.Create(file.Filename, fileType)
	h.publish(pipeline.NewJobEvent(pipeline.EventJobSubmitted, job.ID))
	h.publish(pipeline.ProgressEvent(job.ID, "received", 5))

	_, err = h.temporal.ExecuteWorkflow(c.Context(), client.StartWorkflowOptions{
		ID:        fmt.Sprintf("process-%s", job.ID),
		TaskQueue: h.taskQueue,
	}, workflows.DocumentProcessingWorkflow, workflows.ProcessingInput{
		JobID:    job.ID,
		Filename: file.Filename,
		FileType: fileType,
		Content:  content,
	})
	if err != nil {
		h.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to start processing workflow")
		h.publish(pipeline.FailedEvent(job.ID, "submission", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to start document processing",
			"details": err.Error(),
		})
	}

	h.publish(pipeline.ProgressEvent(job.ID, "queued", 15))
	h.log.Info().
		Str("job_id", job.ID).
		Str("filename", file.Filename).
		Str("file_type", string(fileType)).
		Int64("size", file.Size).
		Msg("Processing started")

	return c.Status(fiber.StatusAccepted).JSON(UploadResponse{
		JobID:    job.ID,
		Filename: file.Filename,
		FileType: fileType,
		Size:     file.Size,
		Status:   string(document.StatusPending),
	})
}

// JobStatusResponse is the progress view of a job
type JobStatusResponse struct {
	JobID     string          `json:"job_id"`
	Filename  string          `json:"filename"`
	FileType  document.Type   `json:"file_type"`
	Status    document.Status `json:"status"`
	Stage     string          `json:"stage,omitempty"`
	Progress  int             `json:"progress"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GetJob returns status and progress for one job
func (h *Handlers) GetJob(c *fiber.Ctx) error {
	job, err := h.store.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}

	return c.JSON(JobStatusResponse{
		JobID:     job.ID,
		Filename:  job.Filename,
		FileType:  job.FileType,
		Status:    job.Status,
		Stage:     job.Stage,
		Progress:  job.Progress,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	})
}

// GetJobResult returns the full analysis result of a completed job
func (h *Handlers) GetJobResult(c *fiber.Ctx) error {
	job, err := h.store.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}

	if job.Status == document.StatusError {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Processing failed",
			"stage":  job.Stage,
			"detail": job.Error,
		})
	}
	if job.Status != document.StatusCompleted || job.Result == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":    "Job is not finished yet",
			"status":   job.Status,
			"progress": job.Progress,
		})
	}

	return c.JSON(job.Result)
}

// GetJobReport renders the result in the requested format
func (h *Handlers) GetJobReport(c *fiber.Ctx) error {
	job, err := h.store.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	if job.Status != document.StatusCompleted || job.Result == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":    "Job is not finished yet",
			"status":   job.Status,
			"progress": job.Progress,
		})
	}

	base := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	switch format := c.Query("format", "txt"); format {
	case "txt":
		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s_report.txt"`, base))
		return c.SendString(report.Text(job.Result))
	case "docx":
		data, err := report.DOCX(job.Result)
		if err != nil {
			h.log.Error().Err(err).Str("job_id", job.ID).Msg("Report generation failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate report",
			})
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s_report.docx"`, base))
		return c.Send(data)
	case "json":
		data, err := report.JSON(job.Result)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate report",
			})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported report format: %s. Use txt, docx or json", format),
		})
	}
}

func (h *Handlers) publish(ev *pipeline.JobEvent) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(ev); err != nil {
		h.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("Event dropped")
	}
}

func supportedExtensions() []string {
	return []string{"txt", "html", "htm", "pdf", "docx", "doc", "png", "jpg", "jpeg", "tiff", "bmp"}
}
