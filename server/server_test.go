package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/hazyhaar/docmerge/combine"
	"github.com/hazyhaar/docmerge/convert"
	"github.com/hazyhaar/docmerge/docpipe"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	pipe := docpipe.New(docpipe.Config{Logger: logger})
	asm := combine.New(pipe, convert.New(pipe, nil, logger), logger)
	svc := New(asm, nil, t.TempDir(), logger)
	r := chi.NewRouter()
	svc.RegisterHTTP(r)
	return r
}

type upload struct {
	field, name, content string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, uploads []upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, u := range uploads {
		fw, err := mw.CreateFormFile(u.field, u.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(u.content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func pdfPages(t *testing.T, data []byte) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	return n
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["timestamp"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestCapabilities(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Service       string   `json:"service"`
		OutputFormats []string `json:"output_formats"`
		Extensions    []string `json:"supported_input_extensions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Service != "docmerge" {
		t.Errorf("service = %q", body.Service)
	}
	if len(body.OutputFormats) != 3 || len(body.Extensions) == 0 {
		t.Errorf("formats = %v, extensions = %v", body.OutputFormats, body.Extensions)
	}
}

func TestCombineNoFiles(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine", map[string]string{"output_format": "pdf"}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if errorBody(t, rec)["error"] != "No files provided" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCombineDisallowedExtension(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine", map[string]string{"output_format": "pdf"},
		[]upload{{"files", "evil.exe", "MZ"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorBody(t, rec)["error"]; !strings.Contains(got, "evil.exe") {
		t.Errorf("error %q does not name the file", got)
	}
}

func TestCombineBadOutputFormat(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine", map[string]string{"output_format": "odt"},
		[]upload{{"files", "a.txt", "hello"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCombinePDF(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine", map[string]string{"output_format": "pdf"},
		[]upload{
			{"files", "one.txt", "first file\n"},
			{"files", "two.txt", "second file\n"},
		})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "combined_document.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if got := pdfPages(t, rec.Body.Bytes()); got != 2 {
		t.Errorf("page count = %d, want 2", got)
	}
}

func TestCombineDocxAttachment(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine", map[string]string{"output_format": "docx"},
		[]upload{{"files", "notes.txt", "hello\n"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	want := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	if ct := rec.Header().Get("Content-Type"); ct != want {
		t.Errorf("content type = %q", ct)
	}
	// zip magic
	if body := rec.Body.Bytes(); len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
		t.Error("body is not a zip archive")
	}
}

func TestChecklistMissingData(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine-checklist", nil,
		[]upload{{"file_a", "a.txt", "x"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChecklistMalformedData(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine-checklist",
		map[string]string{"checklist_data": "{not json"},
		[]upload{{"file_a", "a.txt", "x"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChecklistMissingKeyDegrades(t *testing.T) {
	r := newTestRouter(t)
	checklist := `[{"name":"Section A","files":["file_a","file_gone"]}]`
	req := multipartRequest(t, "/combine-checklist",
		map[string]string{"checklist_data": checklist},
		[]upload{{"file_a", "a.txt", "content\n"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	// divider + file + missing placeholder
	if got := pdfPages(t, rec.Body.Bytes()); got != 3 {
		t.Errorf("page count = %d, want 3", got)
	}
}

func TestUniDocLayout(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine-unidoc",
		map[string]string{
			"program": "B.Tech", "code": "CS-301", "coordinator": "R. Iyer",
			"name": "Operating Systems", "faculty": "CSE", "ltpc": "3-0-2-4",
		},
		[]upload{
			{"files", "syllabus.txt", "week one\n"},
			{"files", "plan.txt", "lecture plan\n"},
		})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	// cover + course info + index + 2 content pages
	if got := pdfPages(t, rec.Body.Bytes()); got != 5 {
		t.Errorf("page count = %d, want 5", got)
	}
}

func TestUniDocDisallowedExtensionDegrades(t *testing.T) {
	r := newTestRouter(t)
	req := multipartRequest(t, "/combine-unidoc",
		map[string]string{"name": "Operating Systems"},
		[]upload{
			{"files", "syllabus.txt", "week one\n"},
			{"files", "setup.exe", "MZ"},
		})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	// cover + course info + index + content page + type placeholder page
	if got := pdfPages(t, rec.Body.Bytes()); got != 5 {
		t.Errorf("page count = %d, want 5", got)
	}
}

func TestJobsWithoutStore(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`..\..\win.docx`, "win.docx"},
		{"  ", "upload"},
		{"", "upload"},
		{"a/b/c.txt", "c.txt"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
