package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/yumyai/pfamscan/logger"
	scandb "github.com/yumyai/pfamscan/pkg/db"
	"github.com/yumyai/pfamscan/pkg/handler/request"
	"github.com/yumyai/pfamscan/pkg/hmmer"
	"github.com/yumyai/pfamscan/pkg/render"
	"go.uber.org/zap"
)

const (
	refreshIntervalSeconds = 5
	defaultListLimit       = 20
	maxListLimit           = 200
	maxSequenceBytes       = 1 << 20
)

// APIResponse wraps every JSON answer.
type APIResponse struct {
	Success bool        `json:"success"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

// startScan registers a job and runs it in the background.
func (dbctx *DBContext) startScan(r *http.Request, sequence string) *ScanJob {
	job := dbctx.ScanJobs.NewJob(sequence)
	requestLogger(r).Info("Scan queued", zap.String("job_id", job.ID), zap.Int("length", len(sequence)))
	go dbctx.runScan(job.ID, sequence)
	return job
}

func (dbctx *DBContext) runScan(jobID string, sequence string) {
	ctx, cancel := context.WithTimeout(context.Background(), dbctx.scanTimeout())
	defer cancel()

	dbctx.ScanJobs.SetRunning(jobID)
	start := time.Now()

	results, err := dbctx.Scanner.Scan(ctx, sequence)
	took := time.Since(start)

	// Stored before the job is marked finished, so anyone woken by Wait can
	// already read it back from the store.
	if err != nil {
		logger.Error("Scan failed", zap.String("job_id", jobID), zap.Error(err))
		dbctx.persistJob(jobID, ScanJobFailed, nil, err.Error())
		dbctx.ScanJobs.FailJob(jobID, err)
		dbctx.observeScan(ScanJobFailed, 0, took)
		return
	}

	logger.Info("Scan completed", zap.String("job_id", jobID), zap.Int("hits", len(results)), zap.Duration("took", took))
	dbctx.persistJob(jobID, ScanJobCompleted, results, "")
	dbctx.ScanJobs.CompleteJob(jobID, results)
	dbctx.observeScan(ScanJobCompleted, len(results), took)
}

func (dbctx *DBContext) observeScan(status ScanJobStatus, hits int, took time.Duration) {
	if dbctx.Metrics != nil {
		dbctx.Metrics.ObserveScan(string(status), hits, took)
	}
}

func (dbctx *DBContext) persistJob(jobID string, status ScanJobStatus, results []*hmmer.Result, errMsg string) {
	if dbctx.Store == nil {
		return
	}
	job, ok := dbctx.ScanJobs.GetJob(jobID)
	if !ok {
		return
	}
	job.Status = status
	job.Results = results
	job.Error = errMsg
	job.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dbctx.Store.SaveScan(ctx, job.Record()); err != nil {
		logger.Error("Failed to persist scan", zap.String("job_id", jobID), zap.Error(err))
	}
}

// lookupJob checks running jobs first, then scans stored by earlier runs.
func (dbctx *DBContext) lookupJob(ctx context.Context, jobID string) (*ScanJob, error) {
	if job, ok := dbctx.ScanJobs.GetJob(jobID); ok {
		return job, nil
	}
	if dbctx.Store == nil {
		return nil, scandb.ErrScanNotFound
	}
	rec, err := dbctx.Store.GetScan(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return jobFromRecord(rec), nil
}

// Main page with the submission form
func (dbctx *DBContext) MainPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderIndexPage(w); err != nil {
		requestLogger(r).Error("Failed to render index page", zap.Error(err))
	}
}

// Form submission from the main page, redirects to the job page.
func (dbctx *DBContext) ScanSubmitPage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSequenceBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	sequence, err := hmmer.CleanSequence(r.FormValue("sequence"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := dbctx.startScan(r, sequence)
	http.Redirect(w, r, "/scan/"+job.ID, http.StatusSeeOther)
}

// HTML page for a job; refreshes itself until the job finishes.
func (dbctx *DBContext) ScanPage(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	job, err := dbctx.lookupJob(r.Context(), jobID)
	if errors.Is(err, scandb.ErrScanNotFound) {
		http.Error(w, "Scan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		requestLogger(r).Error("Failed to load scan", zap.String("job_id", jobID), zap.Error(err))
		http.Error(w, "Failed to load scan", http.StatusInternalServerError)
		return
	}

	data := render.ScanPageData{
		JobID:                  job.ID,
		Sequence:               job.Sequence,
		Status:                 string(job.Status),
		ErrorMessage:           job.Error,
		Results:                job.Results,
		Finished:               job.Status.Finished(),
		ShouldRefresh:          !job.Status.Finished(),
		RefreshIntervalSeconds: refreshIntervalSeconds,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderScanPage(w, data); err != nil {
		requestLogger(r).Error("Failed to render scan page", zap.Error(err))
	}
}

// POST /api/v1/scan. With ?wait=true the call blocks until the scan finishes.
func (dbctx *DBContext) ScanSubmitAPI(w http.ResponseWriter, r *http.Request) {
	var req request.ScanRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxSequenceBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestLogger(r).Warn("Invalid scan request", zap.Error(err))
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sequence, err := hmmer.CleanSequence(req.Sequence)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := dbctx.startScan(r, sequence)

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		finished, _ := dbctx.ScanJobs.Wait(r.Context(), job.ID)
		if finished != nil && finished.Status.Finished() {
			writeJSON(w, http.StatusOK, APIResponse{Success: finished.Status == ScanJobCompleted, Payload: finished, Error: finished.Error})
			return
		}
	}

	writeJSON(w, http.StatusAccepted, APIResponse{Success: true, Payload: job})
}

// GET /api/v1/scan/{job_id}
func (dbctx *DBContext) ScanJobAPI(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	job, err := dbctx.lookupJob(r.Context(), jobID)
	if errors.Is(err, scandb.ErrScanNotFound) {
		writeJSONError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		requestLogger(r).Error("Failed to load scan", zap.String("job_id", jobID), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Payload: job})
}

func parsePositiveIntFallback(v string, fallback int) int {
	num, err := strconv.Atoi(v)
	if err != nil || num <= 0 {
		return fallback
	}
	return num
}

// GET /api/v1/scans?limit=N
func (dbctx *DBContext) ScanListAPI(w http.ResponseWriter, r *http.Request) {
	if dbctx.Store == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Payload: []*scandb.ScanRecord{}})
		return
	}

	limit := min(parsePositiveIntFallback(r.URL.Query().Get("limit"), defaultListLimit), maxListLimit)

	records, err := dbctx.Store.ListScans(r.Context(), limit)
	if err != nil {
		requestLogger(r).Error("Failed to list scans", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Payload: records})
}
