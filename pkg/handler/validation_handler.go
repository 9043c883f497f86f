package handler

import (
	"errors"
	"net/http"

	"github.com/yumyai/pfamscan/pkg/validation"
	"go.uber.org/zap"
)

const maxReportBytes = 64 << 20

// POST /api/v1/validation/clashes with a validation report as the body.
func (dbctx *DBContext) ClashesAPI(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)

	clashes, err := validation.ReadClashes(r.Body)
	if err != nil {
		requestLogger(r).Warn("Rejected validation report", zap.Error(err))
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSONError(w, status, err.Error())
		return
	}

	if dbctx.Metrics != nil {
		dbctx.Metrics.ClashesDecoded.Add(float64(len(clashes)))
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Payload: clashes})
}
