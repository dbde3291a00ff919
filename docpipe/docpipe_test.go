package docpipe

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeZip creates a zip file at path with the given name→content entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t></w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Revenue</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>42</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>After the table.</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestExtractDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.docx")
	writeZip(t, path, map[string]string{"word/document.xml": docxBody})

	pipe := New(Config{})
	doc, err := pipe.ExtractDocx(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Blocks) != 4 {
		t.Fatalf("expected 4 blocks (heading, para, table, para), got %d: %#v", len(doc.Blocks), doc.Blocks)
	}

	h, ok := doc.Blocks[0].(TextBlock)
	if !ok || h.Text != "Quarterly Report" || h.Style != "Heading1" {
		t.Fatalf("block 0: got %#v", doc.Blocks[0])
	}
	if HeadingLevel(h.Style) != 1 {
		t.Fatalf("HeadingLevel(%q) != 1", h.Style)
	}

	tbl, ok := doc.Blocks[2].(TableBlock)
	if !ok {
		t.Fatalf("block 2 should be a table, got %#v", doc.Blocks[2])
	}
	if len(tbl.Rows) != 2 || len(tbl.Rows[0]) != 2 {
		t.Fatalf("table shape: %#v", tbl.Rows)
	}
	if tbl.Rows[1][0] != "Revenue" || tbl.Rows[1][1] != "42" {
		t.Fatalf("table content: %#v", tbl.Rows)
	}

	last, ok := doc.Blocks[3].(TextBlock)
	if !ok || last.Text != "After the table." {
		t.Fatalf("block 3: got %#v", doc.Blocks[3])
	}
}

func TestExtractDocxMissingDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")
	writeZip(t, path, map[string]string{"other.xml": "<x/>"})

	pipe := New(Config{})
	_, err := pipe.ExtractDocx(path)
	if err == nil {
		t.Fatal("expected error for archive without document.xml")
	}
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected ExtractionError, got %T", err)
	}
	if xerr.File != path {
		t.Fatalf("error should carry filename, got %q", xerr.File)
	}
}

func TestExtractDocxCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.docx")
	os.WriteFile(path, []byte("this is not a zip archive"), 0644)

	pipe := New(Config{})
	if _, err := pipe.ExtractDocx(path); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

const slideXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:sp><p:txBody><a:p><a:r><a:t>SLIDETITLE</a:t></a:r></a:p></p:txBody></p:sp>
<p:sp><p:txBody><a:p><a:r><a:t>First line</a:t></a:r></a:p><a:p><a:r><a:t>Second line</a:t></a:r></a:p></p:txBody></p:sp>
<p:sp><p:txBody><a:p><a:r><a:t> </a:t></a:r></a:p></p:txBody></p:sp>
</p:spTree></p:cSld>
</p:sld>`

func TestExtractPptx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")
	writeZip(t, path, map[string]string{
		"ppt/slides/slide2.xml": strings.ReplaceAll(slideXML, "SLIDETITLE", "Slide Two"),
		"ppt/slides/slide1.xml": strings.ReplaceAll(slideXML, "SLIDETITLE", "Slide One"),
	})

	pipe := New(Config{})
	doc, err := pipe.ExtractPptx(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(doc.Blocks))
	}

	s1 := doc.Blocks[0].(SlideBlock)
	if s1.Index != 1 {
		t.Fatalf("first slide index = %d", s1.Index)
	}
	if len(s1.Items) != 2 {
		t.Fatalf("slide 1 items: %#v (whitespace-only shape should be dropped)", s1.Items)
	}
	if s1.Items[0] != "Slide One" {
		t.Fatalf("numeric slide ordering broken: %q", s1.Items[0])
	}
	if s1.Items[1] != "First line\nSecond line" {
		t.Fatalf("multi-paragraph shape text: %q", s1.Items[1])
	}

	s2 := doc.Blocks[1].(SlideBlock)
	if s2.Index != 2 || s2.Items[0] != "Slide Two" {
		t.Fatalf("slide 2: %#v", s2)
	}
}

func TestExtractText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	// Invalid UTF-8 byte in the middle must be dropped, not fatal.
	os.WriteFile(path, []byte("hello\n\xff\nworld\n"), 0644)

	pipe := New(Config{})
	doc, err := pipe.ExtractText(path)
	if err != nil {
		t.Fatal(err)
	}
	tb := doc.Blocks[0].(TextBlock)
	if strings.Contains(tb.Text, "\xff") {
		t.Fatal("invalid byte survived decoding")
	}
	if !strings.Contains(tb.Text, "hello") || !strings.Contains(tb.Text, "world") {
		t.Fatalf("text content lost: %q", tb.Text)
	}
}

func TestNonBlankLines(t *testing.T) {
	lines := NonBlankLines("one\r\n\n  \ntwo\nthree\n\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %#v", len(lines), lines)
	}
	if lines[0] != "one" || lines[2] != "three" {
		t.Fatalf("lines: %#v", lines)
	}
}

func TestExtractPDFPagesCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pdf")
	os.WriteFile(path, []byte("%PDF-1.4 garbage without xref"), 0644)

	pipe := New(Config{})
	if _, err := pipe.ExtractPDFPages(path); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}

func TestMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644)

	pipe := New(Config{MaxFileSize: 16})
	if _, err := pipe.ExtractText(path); err == nil {
		t.Fatal("expected size-limit error")
	}
}
