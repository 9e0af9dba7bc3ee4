// Package ocr implements the multi-engine text recovery pipeline:
// image enhancement, interchangeable recognition backends, confidence
// scoring, and consensus selection across engines.
package ocr

import (
	"context"
	"image"
)

// EngineStatus reports whether a backend can serve requests
type EngineStatus string

const (
	StatusReady       EngineStatus = "ready"
	StatusUnavailable EngineStatus = "unavailable"
	StatusFailed      EngineStatus = "failed"
)

// Box is a token bounding box in page coordinates
type Box struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Token is one recognized text unit with its own confidence
type Token struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // normalized to [0,1]
	Box        Box     `json:"box"`
}

// Result is the uniform output shape shared by all engine adapters.
// An adapter never returns a Go error from Recognize; failures are
// reported as a zero-confidence Result with Err set.
type Result struct {
	EngineID       string       `json:"engine_id"`
	RawText        string       `json:"text"`
	MeanConfidence float64      `json:"confidence"`
	Tokens         []Token      `json:"tokens,omitempty"`
	Status         EngineStatus `json:"status"`
	Err            string       `json:"error,omitempty"`
	ConfigUsed     string       `json:"config_used,omitempty"`
}

// Engine is an interchangeable OCR recognition backend
type Engine interface {
	ID() string
	Status() EngineStatus
	Recognize(ctx context.Context, img image.Image) Result
}

// Registry is the immutable set of engines constructed at startup.
// Availability is decided once, at construction; the pipeline holds the
// registry by reference and never mutates it.
type Registry struct {
	engines []Engine
}

// NewRegistry builds a registry from the given engines, preserving order.
// Order matters downstream: the consensus tie-break is first-seen wins.
func NewRegistry(engines ...Engine) *Registry {
	return &Registry{engines: engines}
}

// Ready returns the engines able to serve requests, in registration order
func (r *Registry) Ready() []Engine {
	var ready []Engine
	for _, e := range r.engines {
		if e.Status() == StatusReady {
			ready = append(ready, e)
		}
	}
	return ready
}

// All returns every registered engine, in registration order
func (r *Registry) All() []Engine {
	return r.engines
}

// Stats summarizes engine availability for the ops endpoint
func (r *Registry) Stats() map[string]string {
	stats := make(map[string]string, len(r.engines))
	for _, e := range r.engines {
		stats[e.ID()] = string(e.Status())
	}
	return stats
}
