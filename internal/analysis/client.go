package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// Client talks to a local Ollama instance. Availability and the exact
// model name are resolved once at construction; an unreachable server
// leaves the client in degraded mode where Generate always errors and
// the analyzer falls back to local heuristics.
type Client struct {
	baseURL   string
	model     string
	http      *http.Client
	available bool
	log       zerolog.Logger
}

// NewClient probes the Ollama server and resolves the model name: an
// exact or substring match of the configured model wins, then any
// llama3 variant, then the first model the server reports.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
		log:     logging.GetLogger("analysis"),
	}
	c.available = c.resolveModel()
	if !c.available {
		c.log.Warn().Str("host", c.baseURL).Msg("Ollama unreachable, analysis will use local fallbacks")
	}
	return c
}

// Available reports whether the model server answered the startup probe
func (c *Client) Available() bool { return c.available }

// Model returns the resolved model name
func (c *Client) Model() string { return c.model }

func (c *Client) resolveModel() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}

	var names []string
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	c.log.Info().Strs("models", names).Msg("Ollama models available")

	for _, name := range names {
		if strings.Contains(name, c.model) || strings.Contains(c.model, name) {
			c.model = name
			return true
		}
	}
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), "llama3") {
			c.log.Info().Str("model", name).Msg("Configured model not found, using similar model")
			c.model = name
			return true
		}
	}
	if len(names) > 0 {
		c.log.Info().Str("model", names[0]).Msg("Configured model not found, using first available")
		c.model = names[0]
		return true
	}
	return false
}

type generateRequest struct {
	Model   string     `json:"model"`
	Prompt  string     `json:"prompt"`
	System  string     `json:"system,omitempty"`
	Stream  bool       `json:"stream"`
	Options genOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs one task's prompt against the model and returns the
// raw completion text.
func (c *Client) Generate(ctx context.Context, task Task, text string) (string, error) {
	if !c.available {
		return "", fmt.Errorf("model server is unavailable")
	}
	spec, ok := promptTable[task]
	if !ok {
		return "", fmt.Errorf("unknown analysis task %q", task)
	}

	payload, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  userPrompt(task, text),
		System:  spec.system,
		Stream:  false,
		Options: spec.options,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate request returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}
