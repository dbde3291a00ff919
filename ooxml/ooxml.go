// Package ooxml writes minimal Office Open XML packages: a Word document
// writer and a PowerPoint writer, sufficient for the combined-document
// outputs (headings, paragraphs, tables, text boxes, inline pictures, page
// breaks). Packages are plain zip archives with hand-assembled part XML,
// mirroring how the extraction side reads OOXML with archive/zip and
// encoding/xml directly.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// EMU is the OOXML length unit: 914400 per inch.
const emuPerInch = 914400

// Inches converts inches to EMU.
func Inches(in float64) int64 {
	return int64(in * emuPerInch)
}

// esc returns text escaped for inclusion in XML character data, with
// control characters that are invalid in XML 1.0 stripped.
func esc(s string) string {
	var clean strings.Builder
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		clean.WriteRune(r)
	}
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(clean.String()))
	return buf.String()
}

// imageContentType maps an image format name to its MIME type.
func imageContentType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// imageExt normalizes an image format name to a part extension.
func imageExt(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "jpeg"
	case "gif":
		return "gif"
	default:
		return "png"
	}
}

// pkg accumulates zip parts for one output package.
type pkg struct {
	parts []pkgPart
}

type pkgPart struct {
	name string
	data []byte
}

func (p *pkg) add(name, content string) {
	p.parts = append(p.parts, pkgPart{name: name, data: []byte(content)})
}

func (p *pkg) addBytes(name string, data []byte) {
	p.parts = append(p.parts, pkgPart{name: name, data: data})
}

func (p *pkg) writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := zip.NewWriter(f)
	for _, part := range p.parts {
		fw, err := w.Create(part.name)
		if err != nil {
			f.Close()
			return fmt.Errorf("zip part %s: %w", part.name, err)
		}
		if _, err := fw.Write(part.data); err != nil {
			f.Close()
			return fmt.Errorf("zip part %s: %w", part.name, err)
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}
