package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// remoteResponse is the wire shape shared by the OCR sidecar services
// (easyocr-server, paddleocr-server). Both report per-token confidence
// and bounding boxes directly.
type remoteResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Box        Box     `json:"box"`
	} `json:"words"`
	Error string `json:"error,omitempty"`
}

// RemoteEngine wraps an OCR sidecar service reachable over HTTP. The
// sidecar runs a single-pass recognition; preprocessing aggressiveness
// is decided by the caller, not the adapter.
type RemoteEngine struct {
	id      string
	baseURL string
	client  *http.Client
	status  EngineStatus
	log     zerolog.Logger
}

// NewRemoteEngine constructs a sidecar adapter. The sidecar is probed
// once; an unreachable service marks the engine unavailable for the
// process lifetime. An empty baseURL disables the engine.
func NewRemoteEngine(id, baseURL string, timeout time.Duration) *RemoteEngine {
	e := &RemoteEngine{
		id:      id,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		status:  StatusReady,
		log:     logging.GetEngineLogger(id),
	}
	if baseURL == "" {
		e.status = StatusUnavailable
		return e
	}
	if err := e.probe(); err != nil {
		e.log.Warn().Err(err).Str("url", baseURL).Msgf("%s not available", id)
		e.status = StatusUnavailable
	}
	return e
}

func (e *RemoteEngine) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// ID implements Engine
func (e *RemoteEngine) ID() string { return e.id }

// Status implements Engine
func (e *RemoteEngine) Status() EngineStatus { return e.status }

// Recognize implements Engine
func (e *RemoteEngine) Recognize(ctx context.Context, img image.Image) Result {
	result := Result{EngineID: e.id, Status: StatusFailed}
	if e.status != StatusReady {
		result.Status = StatusUnavailable
		result.Err = fmt.Sprintf("%s not available", e.id)
		return result
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		result.Err = fmt.Sprintf("encode image: %v", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/ocr", &buf)
	if err != nil {
		result.Err = fmt.Sprintf("build request: %v", err)
		return result
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := e.client.Do(req)
	if err != nil {
		result.Err = fmt.Sprintf("call %s: %v", e.id, err)
		return result
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		result.Err = fmt.Sprintf("%s returned %d", e.id, resp.StatusCode)
		return result
	}

	var body remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Err = fmt.Sprintf("decode response: %v", err)
		return result
	}
	if body.Error != "" {
		result.Err = body.Error
		return result
	}

	tokens := make([]Token, 0, len(body.Words))
	for _, w := range body.Words {
		if w.Text == "" {
			continue
		}
		conf := w.Confidence
		if conf > 1 {
			conf /= 100 // some sidecars report percentages
		}
		tokens = append(tokens, Token{Text: w.Text, Confidence: conf, Box: w.Box})
	}

	confidence := MeanTokenConfidence(tokens)
	if len(tokens) == 0 {
		confidence = body.Confidence
		if confidence > 1 {
			confidence /= 100
		}
	}

	return Result{
		EngineID:       e.id,
		RawText:        body.Text,
		MeanConfidence: confidence,
		Tokens:         tokens,
		Status:         StatusReady,
	}
}
