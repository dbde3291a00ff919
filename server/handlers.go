package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hazyhaar/docmerge/combine"
	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/jobstore"
	"github.com/hazyhaar/docmerge/render"
	"github.com/hazyhaar/docmerge/shield"
)

// formMemory is the multipart in-memory threshold; larger parts spill to
// disk before being copied into the job workdir.
const formMemory = 32 << 20

var attachmentTypes = map[combine.Target]string{
	combine.TargetPDF:  "application/pdf",
	combine.TargetDocx: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	combine.TargetPptx: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

func (s *Service) handleCombine(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(formMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	target, err := combine.ParseTarget(r.FormValue("output_format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided", nil)
		return
	}
	for _, fh := range headers {
		if name := sanitizeFilename(fh.Filename); !doctype.Allowed(name) {
			writeError(w, http.StatusBadRequest, "File type not allowed: "+name, nil)
			return
		}
	}

	ar, ok := s.newArena(w)
	if !ok {
		return
	}
	defer ar.Close()

	files, err := s.saveUploads(ar, headers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store uploads", err)
		return
	}

	s.runJob(w, r, ar, combine.Job{
		Files:  files,
		Mode:   combine.ModePlain,
		Target: target,
	})
}

// checklistRequest mirrors the checklist_data form field: ordered sections,
// each naming the upload field keys it contains.
type checklistRequest []struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

func (s *Service) handleChecklist(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(formMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	raw := r.FormValue("checklist_data")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing checklist_data", nil)
		return
	}
	var req checklistRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid checklist_data JSON", err)
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "checklist_data has no sections", nil)
		return
	}

	ar, ok := s.newArena(w)
	if !ok {
		return
	}
	defer ar.Close()

	// Save every uploaded field once; sections reference them by field key.
	uploads := make(map[string]combine.InputFile)
	for key, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		f, err := s.saveUpload(ar, headers[0])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store uploads", err)
			return
		}
		uploads[key] = f
	}

	sections := make([]combine.Section, 0, len(req))
	for _, sec := range req {
		entries := make([]combine.ChecklistEntry, 0, len(sec.Files))
		for _, key := range sec.Files {
			entry := combine.ChecklistEntry{Key: key}
			if f, ok := uploads[key]; ok {
				file := f
				entry.File = &file
			}
			entries = append(entries, entry)
		}
		sections = append(sections, combine.Section{Name: sec.Name, Entries: entries})
	}

	s.runJob(w, r, ar, combine.Job{
		Mode:     combine.ModeChecklist,
		Target:   combine.TargetPDF,
		Sections: sections,
	})
}

// uniDocFields is the fixed order of the course metadata shown on the
// course information page.
var uniDocFields = []struct{ key, label string }{
	{"program", "Program"},
	{"code", "Course Code"},
	{"coordinator", "Course Coordinator"},
	{"name", "Course Name"},
	{"faculty", "Faculty"},
	{"ltpc", "L-T-P-C"},
}

func (s *Service) handleUniDoc(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(formMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided", nil)
		return
	}

	fields := make([]render.Field, 0, len(uniDocFields))
	for _, f := range uniDocFields {
		fields = append(fields, render.Field{Label: f.label, Value: r.FormValue(f.key)})
	}

	ar, ok := s.newArena(w)
	if !ok {
		return
	}
	defer ar.Close()

	files, err := s.saveUploads(ar, headers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store uploads", err)
		return
	}

	s.runJob(w, r, ar, combine.Job{
		Files:    files,
		Mode:     combine.ModeUniDoc,
		Target:   combine.TargetPDF,
		Title:    r.FormValue("name"),
		Subtitle: r.FormValue("program"),
		Fields:   fields,
	})
}

func (s *Service) newArena(w http.ResponseWriter) (*combine.Arena, bool) {
	ar, err := combine.NewArena(s.dataDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create job workspace", err)
		return nil, false
	}
	return ar, true
}

func (s *Service) saveUploads(ar *combine.Arena, headers []*multipart.FileHeader) ([]combine.InputFile, error) {
	files := make([]combine.InputFile, 0, len(headers))
	for _, fh := range headers {
		f, err := s.saveUpload(ar, fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *Service) saveUpload(ar *combine.Arena, fh *multipart.FileHeader) (combine.InputFile, error) {
	name := sanitizeFilename(fh.Filename)
	src, err := fh.Open()
	if err != nil {
		return combine.InputFile{}, err
	}
	defer src.Close()

	path := ar.Path(filepath.Ext(name))
	dst, err := os.Create(path)
	if err != nil {
		return combine.InputFile{}, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return combine.InputFile{}, err
	}
	if err := dst.Close(); err != nil {
		return combine.InputFile{}, err
	}
	return combine.InputFile{Path: path, Name: name, Kind: doctype.Classify(name)}, nil
}

// runJob executes the job, streams the output as an attachment, and records
// the outcome. The arena (and with it the output file) is removed by the
// caller's deferred Close once the response is written.
func (s *Service) runJob(w http.ResponseWriter, r *http.Request, ar *combine.Arena, job combine.Job) {
	start := time.Now()
	out, err := s.asm.Combine(r.Context(), ar, job)
	if err != nil {
		var ve *combine.ValidationError
		if errors.As(err, &ve) {
			s.record(ar, job, start, "error", err)
			writeError(w, http.StatusBadRequest, ve.Msg, nil)
			return
		}
		s.record(ar, job, start, "error", err)
		shield.GetLogger(r.Context()).Error("combine failed", "mode", job.Mode, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to combine documents", err)
		return
	}
	s.record(ar, job, start, "success", nil)
	s.sendAttachment(w, r, out, job.Target)
}

func (s *Service) sendAttachment(w http.ResponseWriter, r *http.Request, path string, target combine.Target) {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read output", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", attachmentTypes[target])
	w.Header().Set("Content-Disposition", `attachment; filename="combined_document`+target.Ext()+`"`)
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	if _, err := io.Copy(w, f); err != nil {
		shield.GetLogger(r.Context()).Warn("output stream interrupted", "error", err)
	}
}

func (s *Service) record(ar *combine.Arena, job combine.Job, start time.Time, outcome string, err error) {
	if s.store == nil {
		return
	}
	fileCount := len(job.Files)
	for _, sec := range job.Sections {
		fileCount += len(sec.Entries)
	}
	rec := jobstore.Record{
		ID:           filepath.Base(ar.Dir),
		StartedAt:    start,
		Mode:         string(job.Mode),
		Target:       string(job.Target),
		FileCount:    fileCount,
		FailureCount: ar.Failures(),
		Duration:     time.Since(start),
		Outcome:      outcome,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.store.Add(rec)
}
