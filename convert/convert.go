// Package convert produces a PDF representation of a non-PDF input file.
//
// DOCX and PPTX conversion is two-tier: the external render engine is tried
// first and preserves native layout; when the engine is absent, errors or
// times out, the content is reconstructed manually from extracted blocks at
// lower fidelity.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/docmerge/docpipe"
	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/engine"
)

// ConversionError reports that an input file could not be rendered to PDF.
type ConversionError struct {
	File string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.File, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Converter turns classified input files into PDFs.
type Converter struct {
	pipe   *docpipe.Pipeline
	engine engine.Converter
	logger *slog.Logger
}

// New creates a Converter. engine may be nil (manual conversion only).
func New(pipe *docpipe.Pipeline, eng engine.Converter, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{pipe: pipe, engine: eng, logger: logger}
}

// ToPDF renders srcPath (of the given kind) to a PDF at dstPath.
func (c *Converter) ToPDF(ctx context.Context, kind doctype.Kind, srcPath, dstPath string) error {
	switch kind {
	case doctype.Pdf:
		return copyFile(srcPath, dstPath)
	case doctype.Image:
		return c.imageToPDF(srcPath, dstPath)
	case doctype.Text:
		return c.textToPDF(srcPath, dstPath)
	case doctype.Docx:
		return c.docxToPDF(ctx, srcPath, dstPath)
	case doctype.Pptx:
		return c.pptxToPDF(ctx, srcPath, dstPath)
	case doctype.Unknown:
		return &ConversionError{File: srcPath, Err: fmt.Errorf("unsupported content type")}
	default:
		return &ConversionError{File: srcPath, Err: fmt.Errorf("unhandled content type %q", kind)}
	}
}

// engineConvert runs the external render engine, moving its output to
// dstPath. Returns false when the engine is unavailable or failed and the
// caller should fall back to manual reconstruction.
func (c *Converter) engineConvert(ctx context.Context, srcPath, dstPath string) bool {
	if c.engine == nil || !c.engine.Available() {
		return false
	}
	produced, err := c.engine.Convert(ctx, srcPath, filepath.Dir(dstPath))
	if err != nil {
		c.logger.Warn("engine conversion failed, using fallback", "input", filepath.Base(srcPath), "error", err)
		return false
	}
	if produced != dstPath {
		if err := os.Rename(produced, dstPath); err != nil {
			c.logger.Warn("engine output move failed, using fallback", "error", err)
			os.Remove(produced)
			return false
		}
	}
	return true
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &ConversionError{File: src, Err: err}
	}
	if err := os.WriteFile(dst, data, 0600); err != nil {
		return &ConversionError{File: src, Err: err}
	}
	return nil
}
