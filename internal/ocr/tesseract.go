package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

const alnumWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz .,;:!?()-"

// psmAttempt is one page-segmentation configuration tried against the
// same enhanced image.
type psmAttempt struct {
	name      string
	mode      gosseract.PageSegMode
	whitelist string
	variables map[string]string
}

// TesseractEngine is the primary recognition backend. Each call tries
// several page-segmentation configurations and keeps the one with the
// highest computed confidence.
type TesseractEngine struct {
	languages []string
	status    EngineStatus
	attempts  []psmAttempt
	log       zerolog.Logger
}

// NewTesseractEngine constructs the primary engine. Initialization is
// best-effort: a probe failure marks the engine unavailable for the
// process lifetime rather than failing construction.
func NewTesseractEngine(languages []string) *TesseractEngine {
	e := &TesseractEngine{
		languages: languages,
		status:    StatusReady,
		log:       logging.GetEngineLogger("tesseract"),
		attempts: []psmAttempt{
			{name: "single_block", mode: gosseract.PSM_SINGLE_BLOCK, whitelist: alnumWhitelist},
			{name: "single_column", mode: gosseract.PSM_SINGLE_COLUMN, whitelist: alnumWhitelist},
			{name: "auto", mode: gosseract.PSM_AUTO, whitelist: alnumWhitelist},
			{name: "auto_osd", mode: gosseract.PSM_AUTO_OSD, variables: map[string]string{"preserve_interword_spaces": "1"}},
		},
	}
	if err := e.probe(); err != nil {
		e.log.Warn().Err(err).Msg("Tesseract not available")
		e.status = StatusUnavailable
	}
	return e
}

func (e *TesseractEngine) probe() error {
	client := gosseract.NewClient()
	defer client.Close()
	return client.SetLanguage(e.languages...)
}

// ID implements Engine
func (e *TesseractEngine) ID() string { return "tesseract" }

// Status implements Engine
func (e *TesseractEngine) Status() EngineStatus { return e.status }

// Recognize implements Engine. It never returns an error to the caller;
// backend failures yield a zero-confidence Result with an error note.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) Result {
	result := Result{EngineID: e.ID(), Status: StatusFailed}
	if e.status != StatusReady {
		result.Status = StatusUnavailable
		result.Err = "tesseract not available"
		return result
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		result.Err = fmt.Sprintf("encode image: %v", err)
		return result
	}
	encoded := buf.Bytes()

	best := Result{EngineID: e.ID(), Status: StatusFailed, Err: "all segmentation attempts failed"}
	for _, attempt := range e.attempts {
		if ctx.Err() != nil {
			break
		}
		r, err := e.recognizeOnce(encoded, attempt)
		if err != nil {
			e.log.Debug().Err(err).Str("psm", attempt.name).Msg("Segmentation attempt failed")
			continue
		}
		if best.Status != StatusReady || r.MeanConfidence > best.MeanConfidence {
			best = r
		}
	}
	return best
}

func (e *TesseractEngine) recognizeOnce(encoded []byte, attempt psmAttempt) (Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return Result{}, fmt.Errorf("set language %q: %w", strings.Join(e.languages, "+"), err)
	}
	if err := client.SetPageSegMode(attempt.mode); err != nil {
		return Result{}, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if attempt.whitelist != "" {
		if err := client.SetWhitelist(attempt.whitelist); err != nil {
			return Result{}, fmt.Errorf("set whitelist: %w", err)
		}
	}
	for name, value := range attempt.variables {
		if err := client.SetVariable(gosseract.SettableVariable(name), value); err != nil {
			return Result{}, fmt.Errorf("set variable %s: %w", name, err)
		}
	}
	if err := client.SetImageFromBytes(encoded); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		e.log.Debug().Err(err).Msg("Word data extraction failed")
		boxes = nil
	}

	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:       word,
			Confidence: b.Confidence / 100.0,
			Box: Box{
				Left:   b.Box.Min.X,
				Top:    b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
		})
	}

	return Result{
		EngineID:       e.ID(),
		RawText:        text,
		MeanConfidence: MeanTokenConfidence(tokens),
		Tokens:         tokens,
		Status:         StatusReady,
		ConfigUsed:     attempt.name,
	}, nil
}
