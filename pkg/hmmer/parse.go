package hmmer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/yumyai/pfamscan/logger"
	"go.uber.org/zap"
)

var ErrNoResults = errors.New("response has no results.hits section")

// The service sends most numbers as JSON numbers, but e-values, scores and a few
// coordinates come back as strings. Both spellings are accepted.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	raw := unquote(data)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*f = flexFloat(v)
	return nil
}

type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	raw := unquote(data)
	if raw == "" || raw == "null" {
		*i = 0
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*i = flexInt(v)
		return nil
	}
	// 1e+02 style integers
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*i = flexInt(int(v))
	return nil
}

func unquote(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		return string(bytes.TrimSpace(data[1 : len(data)-1]))
	}
	return string(data)
}

type rawDomain struct {
	IsReported  flexInt `json:"is_reported"`
	AliL        flexInt `json:"aliL"`
	AliHmmAcc   string  `json:"alihmmacc"`
	AliHmmDesc  string  `json:"alihmmdesc"`
	AliHmmName  string  `json:"alihmmname"`
	AliHmmFrom  flexInt `json:"alihmmfrom"`
	AliHmmTo    flexInt `json:"alihmmto"`
	AliSqFrom   flexInt `json:"alisqfrom"`
	AliSqTo     flexInt `json:"alisqto"`
	AliSimCount flexInt `json:"aliSimCount"`
}

type rawHit struct {
	Acc       string          `json:"acc"`
	Name      string          `json:"name"`
	Desc      string          `json:"desc"`
	Score     flexFloat       `json:"score"`
	Evalue    flexFloat       `json:"evalue"`
	Pvalue    flexFloat       `json:"pvalue"`
	Ndom      flexInt         `json:"ndom"`
	Nreported flexInt         `json:"nreported"`
	Dcl       json.RawMessage `json:"dcl"`
	Domains   []rawDomain     `json:"domains"`
}

// dcl is only trusted when it is a plain JSON integer.
func parseDcl(raw json.RawMessage) int {
	if v, err := strconv.Atoi(string(bytes.TrimSpace(raw))); err == nil {
		return v
	}
	return -1
}

func (h *rawHit) toResult() *Result {
	result := &Result{
		Acc:       h.Acc,
		Name:      h.Name,
		Desc:      h.Desc,
		Score:     float64(h.Score),
		Evalue:    float64(h.Evalue),
		Pvalue:    float64(h.Pvalue),
		Ndom:      int(h.Ndom),
		Nreported: int(h.Nreported),
		Dcl:       parseDcl(h.Dcl),
		Domains:   make([]*Domain, 0, len(h.Domains)),
	}

	for _, d := range h.Domains {
		if d.IsReported != 1 {
			logger.Debug("Excluding unreported domain",
				zap.String("hit", h.Name), zap.Int("sq_from", int(d.AliSqFrom)))
			continue
		}
		result.Domains = append(result.Domains, &Domain{
			HmmAcc:    d.AliHmmAcc,
			HmmName:   d.AliHmmName,
			HmmDesc:   d.AliHmmDesc,
			HmmFrom:   int(d.AliHmmFrom),
			HmmTo:     int(d.AliHmmTo),
			SqFrom:    int(d.AliSqFrom),
			SqTo:      int(d.AliSqTo),
			AliLength: int(d.AliL),
			SimCount:  int(d.AliSimCount),
		})
	}
	SortDomains(result.Domains)

	return result
}

// ParseResults reads an hmmscan JSON response. Hits are converted in order; when
// one fails to decode, the results gathered so far are returned together with the
// error. The returned slice is never nil.
func ParseResults(r io.Reader) ([]*Result, error) {
	results := make([]*Result, 0)

	var envelope struct {
		Results *struct {
			Hits []json.RawMessage `json:"hits"`
		} `json:"results"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return results, fmt.Errorf("failed to decode hmmscan response: %w", err)
	}
	if envelope.Results == nil || envelope.Results.Hits == nil {
		return results, ErrNoResults
	}

	var parseErr error
	for i, raw := range envelope.Results.Hits {
		var hit rawHit
		if err := json.Unmarshal(raw, &hit); err != nil {
			parseErr = fmt.Errorf("failed to decode hit %d: %w", i, err)
			break
		}
		results = append(results, hit.toResult())
	}

	SortResults(results)
	return results, parseErr
}
