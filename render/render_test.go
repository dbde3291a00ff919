package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func TestFitBox(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH float64
	}{
		{800, 600, 648, 468}, // landscape
		{600, 800, 648, 468}, // portrait
		{100, 99, 648, 468},  // near-square landscape, width-fit would overflow height
		{99, 100, 648, 468},
		{5000, 100, 648, 468},
		{100, 5000, 648, 468},
	}
	for _, tt := range tests {
		fw, fh := FitBox(tt.w, tt.h, tt.maxW, tt.maxH)
		if fw > tt.maxW+0.01 || fh > tt.maxH+0.01 {
			t.Errorf("FitBox(%v,%v) = %v,%v exceeds bounds %vx%v", tt.w, tt.h, fw, fh, tt.maxW, tt.maxH)
		}
		want := tt.w / tt.h
		got := fw / fh
		if math.Abs(got-want)/want > 0.01 {
			t.Errorf("FitBox(%v,%v) aspect %v, want %v", tt.w, tt.h, got, want)
		}
	}
}

func pageCount(t *testing.T, path string) int {
	t.Helper()
	n, err := api.PageCountFile(path)
	if err != nil {
		t.Fatalf("page count %s: %v", path, err)
	}
	return n
}

func TestScaffoldPagesAreSinglePage(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writes := map[string]func(string) error{
		"cover.pdf": func(p string) error { return WriteCover(p, "Combined Document", "Course X", now) },
		"info.pdf": func(p string) error {
			return WriteCourseInfo(p, "Course Information", []Field{{"Program", "B.Tech"}, {"Code", "CS101"}})
		},
		"divider.pdf":     func(p string) error { return WriteDivider(p, "Section A", now) },
		"error.pdf":       func(p string) error { return WriteError(p, "bad.docx", "archive is corrupt") },
		"placeholder.pdf": func(p string) error { return WritePlaceholder(p, "Missing file for: k3") },
	}
	for name, write := range writes {
		path := filepath.Join(dir, name)
		if err := write(path); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got := pageCount(t, path); got != 1 {
			t.Errorf("%s: %d pages, want 1", name, got)
		}
	}
}

func TestWriteIndexPaginates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.pdf")

	entries := make([]string, 80)
	for i := range entries {
		entries[i] = "entry"
	}
	if err := WriteIndex(path, "Index", entries); err != nil {
		t.Fatal(err)
	}
	if got := pageCount(t, path); got < 2 {
		t.Errorf("80-entry index should paginate, got %d pages", got)
	}

	short := filepath.Join(dir, "short.pdf")
	if err := WriteIndex(short, "Index", []string{"one", "two"}); err != nil {
		t.Fatal(err)
	}
	if got := pageCount(t, short); got != 1 {
		t.Errorf("short index: %d pages, want 1", got)
	}
}

func TestDocFlow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.pdf")

	d := NewDoc()
	d.Heading("Heading", 1)
	d.Paragraph("Body text that should wrap onto the page without issue.")
	d.Table([][]string{{"h1", "h2"}, {"a", "b"}})
	d.PageBreak()
	d.Paragraph("second page")
	if err := d.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	if got := pageCount(t, path); got != 2 {
		t.Errorf("flow doc: %d pages, want 2", got)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDocImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.pdf")

	d := NewDoc()
	if err := d.Image(testPNG(t, 40, 20), 432, 576); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestWriteImagePage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.pdf")

	if err := WriteImagePage(path, testPNG(t, 96, 48), 96, 48); err != nil {
		t.Fatal(err)
	}
	if got := pageCount(t, path); got != 1 {
		t.Errorf("image page count = %d", got)
	}
}
