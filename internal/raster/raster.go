// Package raster converts PDF pages to images for OCR using the
// poppler pdftoppm tool.
package raster

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// Rasterizer shells out to pdftoppm. Availability is probed once at
// construction; an absent binary disables rasterization (and with it
// the OCR path for scanned PDFs) without failing startup.
type Rasterizer struct {
	dpi       int
	available bool
	log       zerolog.Logger
}

func NewRasterizer(dpi int) *Rasterizer {
	if dpi <= 0 {
		dpi = 300
	}
	_, err := exec.LookPath("pdftoppm")
	r := &Rasterizer{
		dpi:       dpi,
		available: err == nil,
		log:       logging.GetLogger("raster"),
	}
	if !r.available {
		r.log.Warn().Msg("pdftoppm not found, scanned-PDF OCR disabled")
	}
	return r
}

// Available reports whether PDF rasterization can run on this host
func (r *Rasterizer) Available() bool { return r.available }

// Pages renders every page of the PDF to an image at the configured
// DPI. Page order follows page numbers.
func (r *Rasterizer) Pages(ctx context.Context, pdf []byte) ([]image.Image, error) {
	if !r.available {
		return nil, fmt.Errorf("pdftoppm is not installed")
	}

	dir, err := os.MkdirTemp("", "intellidoc-raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create raster workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage PDF: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", fmt.Sprintf("%d", r.dpi),
		input, prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, out)
	}

	rendered, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	if len(rendered) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}
	// pdftoppm zero-pads page numbers to a fixed width per run, so
	// lexicographic order is page order.
	sort.Strings(rendered)

	pages := make([]image.Image, 0, len(rendered))
	for _, path := range rendered {
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %s: %w", filepath.Base(path), err)
		}
		pages = append(pages, img)
	}
	r.log.Debug().Int("pages", len(pages)).Int("dpi", r.dpi).Msg("PDF rasterized")
	return pages, nil
}
