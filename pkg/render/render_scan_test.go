package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yumyai/pfamscan/pkg/hmmer"
)

func TestCalculateColorByEvalue(t *testing.T) {
	tests := []struct {
		name   string
		evalue float64
		want   string
	}{
		{name: "Zero", evalue: 0, want: "#00FF00"},
		{name: "VeryStrong", evalue: 1e-40, want: "#00FF00"},
		{name: "Weak", evalue: 1, want: "#FF0000"},
		{name: "AboveOne", evalue: 10, want: "#8B8989"},
		{name: "Middle", evalue: 1e-15, want: "#FFFF00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateColorByEvalue(tt.evalue); got != tt.want {
				t.Errorf("calculateColorByEvalue(%g) = %s, want %s", tt.evalue, got, tt.want)
			}
		})
	}
}

func TestRenderScanPage_Running(t *testing.T) {
	var buf bytes.Buffer
	err := RenderScanPage(&buf, ScanPageData{
		JobID:                  "job-1",
		Status:                 "running",
		ShouldRefresh:          true,
		RefreshIntervalSeconds: 5,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "job-1") || !strings.Contains(out, "still running") {
		t.Errorf("unexpected page: %s", out)
	}
	if !strings.Contains(out, "5000") {
		t.Errorf("expected refresh interval in milliseconds: %s", out)
	}
}

func TestRenderScanPage_Results(t *testing.T) {
	var buf bytes.Buffer
	err := RenderScanPage(&buf, ScanPageData{
		JobID:    "job-2",
		Status:   "completed",
		Finished: true,
		Results: []*hmmer.Result{{
			Name:    "Pkinase",
			Acc:     "PF00069.24",
			Desc:    "Protein <kinase> domain",
			Score:   231.7,
			Evalue:  3.4e-69,
			Domains: []*hmmer.Domain{{SqFrom: 54, SqTo: 311, HmmFrom: 1, HmmTo: 264}},
		}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Pkinase", "PF00069.24", "54-311", "Protein &lt;kinase&gt; domain"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRenderIndexPage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderIndexPage(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `action="/scan"`) {
		t.Errorf("index page has no scan form")
	}
}
