package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"splice/internal/api"
	"splice/internal/deps"
	"splice/internal/logging"
	"splice/internal/merge"
	"splice/internal/services"
)

// uploadField is the fixed multipart field name merge inputs arrive under.
const uploadField = "videos"

const defaultJobListLimit = 50

// mergedFilename is the download name callers receive for every merge.
const mergedFilename = "merged.mp4"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErrorResponse(w, http.StatusNotFound, "not found", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "splice video merge service")
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
		return
	}
	if !deps.FFmpegAvailable(s.cfg) {
		writeErrorResponse(w, http.StatusServiceUnavailable,
			services.Label(services.ErrMerge),
			fmt.Sprintf("merge tool %q is not available", s.cfg.FFmpegBinary()))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorResponse(w, http.StatusBadRequest,
				services.Label(services.ErrValidation),
				fmt.Sprintf("request exceeds the %d byte upload limit", maxBytesErr.Limit))
			return
		}
		writeErrorResponse(w, http.StatusBadRequest,
			services.Label(services.ErrValidation),
			"invalid multipart form: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	files := r.MultipartForm.File[uploadField]
	if len(files) < merge.MinInputFiles {
		writeErrorResponse(w, http.StatusBadRequest,
			services.Label(services.ErrValidation),
			fmt.Sprintf("at least 2 files required under field %q", uploadField))
		return
	}
	if len(files) > s.cfg.Server.MaxFiles {
		writeErrorResponse(w, http.StatusBadRequest,
			services.Label(services.ErrValidation),
			fmt.Sprintf("at most %d files allowed per merge", s.cfg.Server.MaxFiles))
		return
	}

	uploads := make([]merge.Upload, 0, len(files))
	for _, header := range files {
		part, err := header.Open()
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError,
				services.Label(services.ErrUpload),
				fmt.Sprintf("open uploaded part %q: %v", header.Filename, err))
			return
		}
		defer part.Close()
		uploads = append(uploads, merge.Upload{Name: header.Filename, Data: part})
	}

	ctx := services.WithRequestID(r.Context(), uuid.NewString())
	result, err := s.pipeline.Run(ctx, uploads)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	s.deliver(w, r, result)
}

// deliver streams the merged artifact. The result's cleanup runs only after
// delivery has finished or failed, so the output file outlives transmission.
func (s *Server) deliver(w http.ResponseWriter, r *http.Request, result *merge.Result) {
	output, err := openOutput(result.OutputPath)
	if err != nil {
		result.Finish(nil)
		writeErrorResponse(w, http.StatusInternalServerError,
			services.Label(services.ErrDelivery), err.Error())
		return
	}
	defer output.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+mergedFilename+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(result.OutputBytes, 10))
	w.WriteHeader(http.StatusOK)

	_, copyErr := io.Copy(w, output)
	if copyErr == nil && r.Context().Err() != nil {
		copyErr = r.Context().Err()
	}
	result.Finish(copyErr)
	if copyErr != nil {
		logging.WarnWithContext(s.logger, "merge delivery interrupted", "delivery_interrupted",
			logging.String(logging.FieldJobID, result.Job.ID),
			logging.Error(copyErr),
		)
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
		return
	}
	if s.journal == nil {
		writeJSON(s.logger, w, http.StatusOK, api.JobListResponse{})
		return
	}

	limit := defaultJobListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeErrorResponse(w, http.StatusBadRequest,
				services.Label(services.ErrValidation), "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := s.journal.List(r.Context(), limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError,
			services.Label(services.ErrIO), err.Error())
		return
	}
	writeJSON(s.logger, w, http.StatusOK, api.JobListResponse{Jobs: api.FromRecords(records)})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeErrorResponse(w, http.StatusNotFound, services.Label(services.ErrNotFound), "job not found")
		return
	}
	if s.journal == nil {
		writeErrorResponse(w, http.StatusNotFound, services.Label(services.ErrNotFound), "job not found")
		return
	}

	record, err := s.journal.Get(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError,
			services.Label(services.ErrIO), err.Error())
		return
	}
	if record == nil {
		writeErrorResponse(w, http.StatusNotFound, services.Label(services.ErrNotFound), "job not found")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, api.JobResponse{Job: api.FromRecord(*record)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
		return
	}
	if s.statusFn == nil {
		writeJSON(s.logger, w, http.StatusOK, api.DaemonStatus{})
		return
	}
	writeJSON(s.logger, w, http.StatusOK, s.statusFn(r.Context()))
}
