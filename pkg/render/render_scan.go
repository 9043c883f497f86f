package render

import (
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/yumyai/pfamscan/logger"
	"github.com/yumyai/pfamscan/pkg/hmmer"
	"go.uber.org/zap"
)

var (
	scan_page_template  *template.Template
	index_page_template *template.Template
)

// ScanPageData describes the state of a scan job for rendering.
type ScanPageData struct {
	JobID                  string
	Sequence               string
	Status                 string
	ErrorMessage           string
	Results                []*hmmer.Result
	Finished               bool
	ShouldRefresh          bool
	RefreshIntervalSeconds int
}

// calculateColorByEvalue maps -log10(e-value) onto red (weak, e-value near the
// threshold) through green (e-value at or below 1e-30).
func calculateColorByEvalue(evalue float64) string {

	// Exact zero comes back for very strong hits
	if evalue <= 0 {
		return fmt.Sprintf("#%02X%02X00", 0, 255)
	}

	strength := -math.Log10(evalue)
	if strength < 0 {
		return "#8B8989"
	}

	normalized := math.Min(strength/30, 1)

	var r, g int
	if normalized <= 0.5 {
		r = 255
		g = int(math.Round(normalized * 2 * 255))
	} else {
		r = int(math.Round((1 - normalized) * 2 * 255))
		g = 255
	}

	return fmt.Sprintf("#%02X%02X00", r, g)
}

// init initializes the templates used for rendering the HTML page.
func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
	    <title>Pfam scan</title>
	    <style>
        pre {
            white-space: pre-wrap;
            word-wrap: break-word;
        }
        table { border-collapse: collapse; }
        td, th { border: 1px solid #ccc; padding: 2px 6px; }
   		</style>
		{{ if .ShouldRefresh }}
        <script>
	        setTimeout(function () { window.location.reload(); }, {{ mul .RefreshIntervalSeconds 1000 }});
        </script>
		{{ end }}
	</head>
	<body>
		<h1>Pfam scan</h1>
		<p><strong>Job ID:</strong> {{ .JobID }}</p>
		<p><strong>Status:</strong> {{ .Status }}</p>
		<pre>{{ .Sequence }}</pre>
		{{ if .ErrorMessage }}
			<p style="color: red;">{{ .ErrorMessage }}</p>
		{{ else if not .Finished }}
			<p>Your scan is still running. This page refreshes every {{ .RefreshIntervalSeconds }} seconds.</p>
		{{ else if not .Results }}
			<p>No Pfam families matched.</p>
		{{ else }}
		<table>
			<tr><th>Family</th><th>Accession</th><th>Description</th><th>Score</th><th>E-value</th><th>Domains</th></tr>
			{{ range .Results }}
			<tr style="background-color: {{ evalueColor .Evalue }};">
				<td>{{ .Name }}</td>
				<td>{{ .Acc }}</td>
				<td>{{ .Desc }}</td>
				<td>{{ printf "%.1f" .Score }}</td>
				<td>{{ printf "%.2g" .Evalue }}</td>
				<td>{{ range .Domains }}{{ .SqFrom }}-{{ .SqTo }} (hmm {{ .HmmFrom }}-{{ .HmmTo }}) {{ end }}</td>
			</tr>
			{{ end }}
		</table>
		{{ end }}
	</body>
	</html>`

	scan_page_template = template.New("scan_page").Funcs(template.FuncMap{
		"mul":         func(a, b int) int { return a * b },
		"evalueColor": func(e float64) template.CSS { return template.CSS(calculateColorByEvalue(e)) },
	})
	scan_page_template = template.Must(scan_page_template.Parse(mainTmpl))

	indexTmpl := `
	<!DOCTYPE html>
	<html>
	<head><title>Pfam scan</title></head>
	<body>
		<h1>Pfam scan</h1>
		<form method="POST" action="/scan">
			<textarea name="sequence" rows="12" cols="80" placeholder="Protein sequence or FASTA"></textarea><br>
			<button type="submit">Scan</button>
		</form>
	</body>
	</html>`

	index_page_template = template.Must(template.New("index_page").Parse(indexTmpl))
}

// RenderScanPage writes the job page.
func RenderScanPage(w io.Writer, data ScanPageData) error {
	logger.Info("Rendering scan page", zap.String("job_id", data.JobID), zap.String("status", data.Status))
	return scan_page_template.Execute(w, data)
}

func RenderIndexPage(w io.Writer) error {
	return index_page_template.Execute(w, nil)
}
