package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// stubEngine writes a fake soffice script into dir and returns its path.
// The script emulates "--outdir DIR INPUT" by creating DIR/<base>.pdf.
func stubEngine(t *testing.T, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	path := filepath.Join(dir, "soffice-stub")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUnavailable(t *testing.T) {
	lo := NewLibreOffice("definitely-not-a-real-binary-name", time.Second, nil)
	if lo.Available() {
		t.Fatal("engine should be unavailable")
	}
	if _, err := lo.Convert(context.Background(), "in.docx", t.TempDir()); err == nil {
		t.Fatal("convert on unavailable engine should fail")
	}
}

func TestConvertSuccess(t *testing.T) {
	dir := t.TempDir()
	// Find the value following --outdir, take the basename of the last arg.
	body := `
outdir=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--outdir" ]; then outdir="$a"; fi
  prev="$a"
  last="$a"
done
base=$(basename "$last")
base="${base%.*}"
printf '%%PDF-1.4 stub' > "$outdir/$base.pdf"
`
	stub := stubEngine(t, dir, body)

	input := filepath.Join(dir, "report.docx")
	os.WriteFile(input, []byte("x"), 0644)

	lo := NewLibreOffice(stub, 5*time.Second, nil)
	if !lo.Available() {
		t.Fatal("stub engine should be available")
	}
	out, err := lo.Convert(context.Background(), input, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "report.pdf") {
		t.Fatalf("unexpected output path %q", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}

func TestConvertNoOutput(t *testing.T) {
	dir := t.TempDir()
	stub := stubEngine(t, dir, "exit 0")

	input := filepath.Join(dir, "report.docx")
	os.WriteFile(input, []byte("x"), 0644)

	lo := NewLibreOffice(stub, 5*time.Second, nil)
	if _, err := lo.Convert(context.Background(), input, dir); err == nil {
		t.Fatal("expected error when engine produces no file")
	}
}

func TestConvertTimeout(t *testing.T) {
	dir := t.TempDir()
	stub := stubEngine(t, dir, "sleep 10")

	input := filepath.Join(dir, "report.docx")
	os.WriteFile(input, []byte("x"), 0644)

	lo := NewLibreOffice(stub, 200*time.Millisecond, nil)
	start := time.Now()
	_, err := lo.Convert(context.Background(), input, dir)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout not enforced")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("error should name the timeout: %v", err)
	}
}
