// Package combine assembles uploaded documents into one combined output.
// An Assembler runs one job at a time from the caller's point of view:
// inputs are processed strictly in upload order, per-file failures are
// substituted with error artifacts in the target format, and only failures
// of the final write or merge abort the job.
package combine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/hazyhaar/docmerge/convert"
	"github.com/hazyhaar/docmerge/docpipe"
	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/render"
)

// Mode selects the assembly layout.
type Mode string

const (
	ModePlain     Mode = "plain"
	ModeChecklist Mode = "checklist"
	ModeUniDoc    Mode = "unidoc"
)

// Target is the output document format.
type Target string

const (
	TargetPDF  Target = "pdf"
	TargetDocx Target = "docx"
	TargetPptx Target = "pptx"
)

// ParseTarget validates an output format string from a request.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetPDF, TargetDocx, TargetPptx:
		return Target(s), nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("invalid output format %q, must be one of pdf, docx, pptx", s)}
}

// Ext returns the file extension for the target, dot included.
func (t Target) Ext() string {
	return "." + string(t)
}

// InputFile is one uploaded document persisted to the job workdir.
type InputFile struct {
	Path string // location on disk
	Name string // original upload filename
	Kind doctype.Kind
}

// ChecklistEntry is one file reference inside a checklist section. File is
// nil when the referenced upload key was not present in the request; the
// assembler substitutes a placeholder page instead of failing the job.
type ChecklistEntry struct {
	Key  string
	File *InputFile
}

// Section is one named checklist section with its ordered file entries.
type Section struct {
	Name    string
	Entries []ChecklistEntry
}

// Job describes one combination request. Files carries the uploads in
// request order; Sections is set in checklist mode, Fields and Title in
// unidoc mode.
type Job struct {
	Files    []InputFile
	Mode     Mode
	Target   Target
	Sections []Section
	Title    string
	Subtitle string
	Fields   []render.Field
}

// Arena is the scratch directory of one job. All intermediate parts and the
// final output live under it; Close removes everything. It also counts the
// job's contained per-file failures.
type Arena struct {
	Dir      string
	n        atomic.Int64
	failures atomic.Int64
}

// NewArena creates a uniquely named job directory under base.
func NewArena(base string) (*Arena, error) {
	dir := filepath.Join(base, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job dir: %w", err)
	}
	return &Arena{Dir: dir}, nil
}

// Path returns a fresh unique file path inside the arena with the given
// extension.
func (a *Arena) Path(ext string) string {
	return filepath.Join(a.Dir, fmt.Sprintf("part%04d%s", a.n.Add(1), ext))
}

// Close removes the arena and everything in it.
func (a *Arena) Close() error {
	return os.RemoveAll(a.Dir)
}

// Failures reports how many per-file failures were contained so far.
func (a *Arena) Failures() int {
	return int(a.failures.Load())
}

// Assembler combines job inputs into one output document.
type Assembler struct {
	pipe   *docpipe.Pipeline
	conv   *convert.Converter
	logger *slog.Logger
}

func New(pipe *docpipe.Pipeline, conv *convert.Converter, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{pipe: pipe, conv: conv, logger: logger}
}

// Combine runs the job and returns the path of the finished output inside
// the arena. The caller owns the arena and removes it after streaming the
// result.
func (a *Assembler) Combine(ctx context.Context, ar *Arena, job Job) (string, error) {
	if job.Mode != ModePlain && job.Target != TargetPDF {
		return "", &ValidationError{Msg: fmt.Sprintf("%s mode supports only pdf output", job.Mode)}
	}
	switch job.Target {
	case TargetPDF:
		switch job.Mode {
		case ModeChecklist:
			return a.combineChecklist(ctx, ar, job.Sections)
		case ModeUniDoc:
			return a.combineUniDoc(ctx, ar, job)
		default:
			return a.combinePDF(ctx, ar, job.Files)
		}
	case TargetDocx:
		return a.combineDocx(ar, job.Files)
	case TargetPptx:
		return a.combinePptx(ar, job.Files)
	}
	return "", &ValidationError{Msg: fmt.Sprintf("invalid output format %q", job.Target)}
}

// contained logs a per-file failure, counts it against the job, and hands
// the message to the caller's substitution. Every combiner routes per-file
// errors through here so the containment behavior stays uniform across
// target formats.
func (a *Assembler) contained(ar *Arena, name string, err error) string {
	ar.failures.Add(1)
	a.logger.Warn("file processing failed, substituting error artifact",
		"file", name, "error", err)
	return err.Error()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// truncateRunes caps s at n runes. The cap is silent: no ellipsis, no error.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
