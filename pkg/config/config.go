// Package config holds the environment-driven configuration for the
// IntelliDoc AI service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// Config is the complete service configuration
type Config struct {
	Logging    *logging.LogConfig `json:"logging"`
	Server     *ServerConfig      `json:"server"`
	Ops        *OpsConfig         `json:"ops"`
	Processing *ProcessingConfig  `json:"processing"`
	Engines    *EnginesConfig     `json:"engines"`
	Analysis   *AnalysisConfig    `json:"analysis"`
	Temporal   *TemporalConfig    `json:"temporal"`
}

// ServerConfig holds public API server settings
type ServerConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	CORSOrigins string `json:"cors_origins"`
}

// OpsConfig holds the secondary operations server settings
type OpsConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// ProcessingConfig holds document processing settings
type ProcessingConfig struct {
	MaxFileSize int64  `json:"max_file_size"` // bytes
	UploadDir   string `json:"upload_dir"`
	ReportDir   string `json:"report_dir"`
	PDFMaxPages int    `json:"pdf_max_pages"`
}

// EnginesConfig holds OCR engine settings
type EnginesConfig struct {
	Languages    []string `json:"languages"`      // ISO 639 codes for Tesseract
	RasterDPI    int      `json:"raster_dpi"`     // PDF rasterization DPI
	EasyOCRURL   string   `json:"easyocr_url"`    // sidecar endpoint, empty disables
	PaddleOCRURL string   `json:"paddleocr_url"`  // sidecar endpoint, empty disables
}

// AnalysisConfig holds language-model analysis settings
type AnalysisConfig struct {
	OllamaHost string        `json:"ollama_host"`
	Model      string        `json:"model"`
	Timeout    time.Duration `json:"timeout"`
}

// TemporalConfig holds workflow engine settings
type TemporalConfig struct {
	HostPort  string `json:"host_port"`
	TaskQueue string `json:"task_queue"`
}

// FromEnv builds a configuration from environment variables with defaults
// mirroring the service's deployment layout.
func FromEnv() *Config {
	return &Config{
		Logging: &logging.LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputFile: getEnv("LOG_FILE", "logs/intellidoc.log"),
			Console:    true,
		},
		Server: &ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8000),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Ops: &OpsConfig{
			Enabled: getEnvBool("OPS_SERVER_ENABLED", true),
			Host:    getEnv("OPS_HOST", "127.0.0.1"),
			Port:    getEnvInt("OPS_PORT", 8090),
		},
		Processing: &ProcessingConfig{
			MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 50*1024*1024),
			UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
			ReportDir:   getEnv("REPORT_DIR", "reports"),
			PDFMaxPages: getEnvInt("PDF_MAX_PAGES", 1000),
		},
		Engines: &EnginesConfig{
			Languages:    strings.Split(getEnv("OCR_LANGUAGES", "eng"), ","),
			RasterDPI:    getEnvInt("RASTER_DPI", 300),
			EasyOCRURL:   getEnv("EASYOCR_URL", "http://localhost:8501"),
			PaddleOCRURL: getEnv("PADDLEOCR_URL", "http://localhost:8502"),
		},
		Analysis: &AnalysisConfig{
			OllamaHost: getEnv("OLLAMA_HOST", "http://localhost:11435"),
			Model:      getEnv("OLLAMA_MODEL", "llama3"),
			Timeout:    getEnvDuration("OLLAMA_TIMEOUT", 120*time.Second),
		},
		Temporal: &TemporalConfig{
			HostPort:  getEnv("TEMPORAL_HOST", "localhost:7233"),
			TaskQueue: getEnv("TEMPORAL_TASK_QUEUE", "intellidoc"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}
