package request

// Body of POST /api/v1/scan
type ScanRequest struct {
	Sequence string `json:"sequence"`
}
