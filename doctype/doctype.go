// Package doctype classifies uploaded files into logical content types
// based on their filename extension. Classification is a pure function of
// the name: the same filename always yields the same Kind.
package doctype

import (
	"path/filepath"
	"strings"
)

// Kind identifies the logical content type of a file, independent of the
// exact extension (.doc and .docx both map to Docx).
type Kind string

const (
	Pdf     Kind = "pdf"
	Docx    Kind = "docx"
	Pptx    Kind = "pptx"
	Text    Kind = "text"
	Image   Kind = "image"
	Unknown Kind = "unknown"
)

// Classify maps a filename to its logical content type. Unknown is a valid
// outcome, not an error; callers decide whether to reject or placeholder it.
func Classify(filename string) Kind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return Pdf
	case "docx", "doc":
		return Docx
	case "pptx", "ppt":
		return Pptx
	case "txt":
		return Text
	case "jpg", "jpeg", "png", "gif":
		return Image
	default:
		return Unknown
	}
}

// Allowed reports whether the filename maps to a supported content type.
func Allowed(filename string) bool {
	return Classify(filename) != Unknown
}

// Extensions returns all accepted input extensions.
func Extensions() []string {
	return []string{"pdf", "docx", "doc", "pptx", "ppt", "txt", "jpg", "jpeg", "png", "gif"}
}
