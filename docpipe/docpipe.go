// Package docpipe extracts structured content from uploaded document files.
//
// Supported sources:
//   - .docx: Microsoft Word (archive/zip, word/document.xml)
//   - .pptx: PowerPoint (archive/zip, ppt/slides/slideN.xml)
//   - .txt: plain text (tolerant decoding, invalid bytes dropped)
//   - .pdf: per-page text extraction (text only, layout not preserved)
//
// OOXML parsing is pure Go over archive/zip + encoding/xml. Extraction
// failures carry the source filename so callers can substitute a visible
// error artifact instead of aborting a whole job.
package docpipe

import (
	"fmt"
	"log/slog"
	"os"
)

// Config configures the extraction pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline is the content extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// ExtractionError reports that a source file could not be opened or parsed.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// checkSize enforces the configured size limit before parsing.
func (p *Pipeline) checkSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}
	return nil
}
