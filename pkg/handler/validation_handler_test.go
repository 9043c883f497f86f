package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/yumyai/pfamscan/pkg/middle"
	"github.com/yumyai/pfamscan/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClashesAPI(t *testing.T) {
	dbctx := newTestContext(t, &fakeScanner{})

	report, err := os.Open("../validation/testdata/report.xml")
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer report.Close()

	rr := serve(dbctx, httptest.NewRequest(http.MethodPost, "/api/v1/validation/clashes", report))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool               `json:"success"`
		Payload []validation.Clash `json:"payload"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Payload) != 3 || resp.Payload[0].Atom != "CD1" {
		t.Errorf("unexpected clashes: %+v", resp.Payload)
	}
	if got := testutil.ToFloat64(dbctx.Metrics.ClashesDecoded); got != 3 {
		t.Errorf("clashes metric = %v, want 3", got)
	}
}

func TestClashesAPI_MissingAttribute(t *testing.T) {
	dbctx := newTestContext(t, &fakeScanner{})

	body := strings.NewReader(`<report><clash atom="CA" cid="1" dist="2.1"/></report>`)
	rr := serve(dbctx, httptest.NewRequest(http.MethodPost, "/api/v1/validation/clashes", body))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "clashmag") {
		t.Errorf("error should name the missing attribute: %s", rr.Body.String())
	}
}

func TestClashesAPI_LogsRequestID(t *testing.T) {
	dbctx := newTestContext(t, &fakeScanner{})

	core, logs := observer.New(zapcore.DebugLevel)
	h := middle.RequestIDMiddleware(zap.New(core))(http.HandlerFunc(dbctx.ClashesAPI))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validation/clashes", strings.NewReader(`<clash atom="CA"/>`))
	req.Header.Set("X-Request-ID", "req-clashes")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	entries := logs.FilterMessage("Rejected validation report").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rejection log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-clashes" {
		t.Errorf("request_id = %v, want req-clashes", got)
	}
}
