package combine

import (
	"context"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/render"
)

// combinePDF converts every input to a PDF part and merges the parts in
// order. Native PDFs join the merge directly without re-rendering.
func (a *Assembler) combinePDF(ctx context.Context, ar *Arena, files []InputFile) (string, error) {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, a.pdfPart(ctx, ar, f))
	}
	return a.mergeParts(ar, parts)
}

// pdfPart produces the PDF part for one input, substituting an error page
// when conversion fails. Uploaded PDFs are verified readable before joining
// the merge so one corrupt upload cannot sink the whole job.
func (a *Assembler) pdfPart(ctx context.Context, ar *Arena, f InputFile) string {
	if f.Kind == doctype.Pdf {
		if _, err := api.PageCountFile(f.Path); err != nil {
			return a.errorPage(ar, f.Name, a.contained(ar, f.Name, err))
		}
		return f.Path
	}
	dst := ar.Path(".pdf")
	if err := a.conv.ToPDF(ctx, f.Kind, f.Path, dst); err != nil {
		return a.errorPage(ar, f.Name, a.contained(ar, f.Name, err))
	}
	return dst
}

// errorPage renders the single-page error artifact for a failed input.
func (a *Assembler) errorPage(ar *Arena, name, message string) string {
	p := ar.Path(".pdf")
	if err := render.WriteError(p, name, message); err != nil {
		a.logger.Error("error page render failed", "file", name, "error", err)
	}
	return p
}

// mergeParts writes the final combined PDF. A single part is copied rather
// than run through the merge, which keeps a lone PDF upload byte-comparable
// in page structure to its source.
func (a *Assembler) mergeParts(ar *Arena, parts []string) (string, error) {
	out := filepath.Join(ar.Dir, "combined.pdf")
	if len(parts) == 1 {
		if err := copyFile(parts[0], out); err != nil {
			return "", &AssemblyError{Stage: "copy output", Err: err}
		}
		return out, nil
	}
	if err := api.MergeCreateFile(parts, out, false, nil); err != nil {
		return "", &AssemblyError{Stage: "merge", Err: err}
	}
	return out, nil
}
