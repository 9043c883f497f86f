package handler

import (
	"net/http"
)

func NewRouter(dbctx *DBContext) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Main routes
	mux.HandleFunc("GET /{$}", dbctx.MainPage)
	mux.HandleFunc("POST /scan", dbctx.ScanSubmitPage)
	mux.HandleFunc("GET /scan/{job_id}", dbctx.ScanPage)

	// API routes
	mux.HandleFunc("GET /api/v1/health", dbctx.HealthCheck)
	mux.HandleFunc("POST /api/v1/scan", dbctx.ScanSubmitAPI)
	mux.HandleFunc("GET /api/v1/scan/{job_id}", dbctx.ScanJobAPI)
	mux.HandleFunc("GET /api/v1/scans", dbctx.ScanListAPI)
	mux.HandleFunc("POST /api/v1/validation/clashes", dbctx.ClashesAPI)

	if dbctx.Metrics != nil {
		mux.Handle("GET /metrics", dbctx.Metrics.Handler())
	}

	return mux
}
