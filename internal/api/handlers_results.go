package api

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/smeta/internal/pipeline"
	"github.com/dgallion1/smeta/internal/report"
)

// finishedJob resolves the job of the request and writes an error response
// unless it completed.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
		return job
	case pipeline.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"errors": snap.Summary.Errors,
		})
	default:
		writeJSON(w, http.StatusConflict, map[string]any{
			"job_id": snap.ID,
			"status": snap.Status,
			"error":  "job not completed",
		})
	}
	return nil
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job := s.finishedJob(w, r)
	if job == nil {
		return
	}
	est, _ := job.Result()
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	job := s.finishedJob(w, r)
	if job == nil {
		return
	}
	_, checks := job.Result()
	writeJSON(w, http.StatusOK, map[string]any{"job_id": job.ID, "checks": checks})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := report.FormatText
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	job := s.finishedJob(w, r)
	if job == nil {
		return
	}
	snap := job.Snapshot()
	est, _ := job.Result()

	var buf bytes.Buffer
	if err := report.Write(&buf, format, snap.Title, est); err != nil {
		s.log.Error("render report", "job_id", snap.ID, "format", format, "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format == report.FormatDOCX {
		name := strings.TrimSuffix(snap.Filename, ".xml") + format.Ext()
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
