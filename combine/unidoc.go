package combine

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/render"
)

// combineUniDoc builds the unified course document: a cover page, a course
// information page, an index of the uploads, then every upload in order
// using the plain PDF logic. Uploads of an unsupported type contribute a
// single explanatory page so the index and the body stay aligned.
func (a *Assembler) combineUniDoc(ctx context.Context, ar *Arena, job Job) (string, error) {
	now := time.Now()

	cover := ar.Path(".pdf")
	title := job.Title
	if title == "" {
		title = "Course File"
	}
	if err := render.WriteCover(cover, title, job.Subtitle, now); err != nil {
		return "", &AssemblyError{Stage: "cover page", Err: err}
	}

	info := ar.Path(".pdf")
	if err := render.WriteCourseInfo(info, "Course Information", job.Fields); err != nil {
		return "", &AssemblyError{Stage: "course info page", Err: err}
	}

	index := ar.Path(".pdf")
	entries := make([]string, len(job.Files))
	for i, f := range job.Files {
		entries[i] = strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
	}
	if err := render.WriteIndex(index, "Index", entries); err != nil {
		return "", &AssemblyError{Stage: "index page", Err: err}
	}

	parts := []string{cover, info, index}
	for _, f := range job.Files {
		if !doctype.Allowed(f.Name) {
			parts = append(parts, a.placeholderPage(ar, "File type not allowed: "+f.Name))
			continue
		}
		parts = append(parts, a.pdfPart(ctx, ar, f))
	}
	return a.mergeParts(ar, parts)
}
