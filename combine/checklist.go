package combine

import (
	"context"
	"time"

	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/render"
)

// combineChecklist builds the checklist PDF: each section contributes a
// divider page followed by its files in section order. Entries that did not
// resolve to an upload, or that name a disallowed file type, contribute a
// single explanatory page so the section listing stays complete.
func (a *Assembler) combineChecklist(ctx context.Context, ar *Arena, sections []Section) (string, error) {
	now := time.Now()
	var parts []string
	for _, sec := range sections {
		divider := ar.Path(".pdf")
		if err := render.WriteDivider(divider, sec.Name, now); err != nil {
			return "", &AssemblyError{Stage: "divider page", Err: err}
		}
		parts = append(parts, divider)
		for _, entry := range sec.Entries {
			parts = append(parts, a.checklistPart(ctx, ar, entry))
		}
	}
	return a.mergeParts(ar, parts)
}

func (a *Assembler) checklistPart(ctx context.Context, ar *Arena, entry ChecklistEntry) string {
	if entry.File == nil {
		a.logger.Warn("checklist key has no matching upload", "key", entry.Key)
		return a.placeholderPage(ar, "Missing file for: "+entry.Key)
	}
	if !doctype.Allowed(entry.File.Name) {
		return a.placeholderPage(ar, "File type not allowed: "+entry.File.Name)
	}
	return a.pdfPart(ctx, ar, *entry.File)
}

func (a *Assembler) placeholderPage(ar *Arena, message string) string {
	p := ar.Path(".pdf")
	if err := render.WritePlaceholder(p, message); err != nil {
		a.logger.Error("placeholder page render failed", "message", message, "error", err)
	}
	return p
}
