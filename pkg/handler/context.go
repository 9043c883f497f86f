package handler

// DI for all handlers and models alike.

import (
	"net/http"
	"time"

	"github.com/yumyai/pfamscan/logger"
	scandb "github.com/yumyai/pfamscan/pkg/db"
	"github.com/yumyai/pfamscan/pkg/hmmer"
	"github.com/yumyai/pfamscan/pkg/metrics"
	"github.com/yumyai/pfamscan/pkg/middle"
	"go.uber.org/zap"
)

const defaultScanTimeout = 2 * time.Minute

type DBContext struct {
	Store       *scandb.ScanStore
	Scanner     hmmer.Scanner
	ScanJobs    *ScanJobManager
	Metrics     *metrics.Metrics
	ScanTimeout time.Duration
}

func (dbctx *DBContext) scanTimeout() time.Duration {
	if dbctx.ScanTimeout <= 0 {
		return defaultScanTimeout
	}
	return dbctx.ScanTimeout
}

// requestLogger is tagged with the request id when the request came through
// middle.RequestIDMiddleware.
func requestLogger(r *http.Request) *zap.Logger {
	return middle.LoggerFrom(r.Context(), logger.Logger())
}
