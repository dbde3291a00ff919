// Package engine wraps the external high-fidelity document renderer
// (LibreOffice in headless mode) behind a small capability interface, so the
// manual conversion fallback is the only rendering path this repository
// implements itself. The engine is best-effort: absence, failure or timeout
// all downgrade to the fallback, never to a job failure.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Converter converts an office document to PDF in outDir, returning the path
// of the produced file.
type Converter interface {
	// Available reports whether the engine can be invoked on this host.
	Available() bool

	// Convert renders inputPath to a PDF inside outDir. A timed-out or
	// failed invocation returns an error and is not retried.
	Convert(ctx context.Context, inputPath, outDir string) (string, error)
}

// DefaultTimeout bounds one engine invocation.
const DefaultTimeout = 60 * time.Second

// candidates probed when no binary path is configured.
var candidates = []string{"libreoffice", "soffice"}

// LibreOffice invokes soffice --headless --convert-to pdf.
//
// Invocations are serialized: soffice holds a per-host user-profile lock, and
// concurrent instances fail spuriously instead of queueing.
type LibreOffice struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewLibreOffice resolves the soffice binary (explicit path, or PATH probe
// when empty) and returns the engine. A missing binary is not an error: the
// engine reports unavailable and callers fall back to manual conversion.
func NewLibreOffice(binary string, timeout time.Duration, logger *slog.Logger) *LibreOffice {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	var resolved string
	if binary != "" {
		if p, err := exec.LookPath(binary); err == nil {
			resolved = p
		}
	} else {
		for _, c := range candidates {
			if p, err := exec.LookPath(c); err == nil {
				resolved = p
				break
			}
		}
	}
	if resolved == "" {
		logger.Info("render engine not found, manual conversion only")
	} else {
		logger.Info("render engine resolved", "path", resolved)
	}

	return &LibreOffice{path: resolved, timeout: timeout, logger: logger}
}

// Available reports whether a soffice binary was resolved.
func (lo *LibreOffice) Available() bool { return lo.path != "" }

// Convert renders inputPath to PDF in outDir with a hard timeout.
func (lo *LibreOffice) Convert(ctx context.Context, inputPath, outDir string) (string, error) {
	if lo.path == "" {
		return "", errors.New("render engine not available")
	}

	lo.mu.Lock()
	defer lo.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, lo.timeout)
	defer cancel()

	args := []string{
		"--headless",
		"--invisible",
		"--nocrashreport",
		"--nodefault",
		"--nofirststartwizard",
		"--nolockcheck",
		"--nologo",
		"--norestore",
		"--convert-to", "pdf",
		"--outdir", outDir,
		inputPath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, lo.path, args...)
	cmd.Stderr = &stderr
	cmd.Stdin = nil

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		lo.logger.Warn("render engine timed out", "input", filepath.Base(inputPath), "timeout", lo.timeout)
		return "", fmt.Errorf("render engine timed out after %s", lo.timeout)
	}
	if err != nil {
		lo.logger.Warn("render engine failed", "input", filepath.Base(inputPath), "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return "", fmt.Errorf("render engine: %w", err)
	}

	// soffice writes <basename>.pdf into outDir.
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	produced := filepath.Join(outDir, base+".pdf")
	if _, statErr := os.Stat(produced); statErr != nil {
		return "", fmt.Errorf("render engine produced no output for %s", filepath.Base(inputPath))
	}

	lo.logger.Debug("render engine converted", "input", filepath.Base(inputPath), "elapsed", elapsed)
	return produced, nil
}
