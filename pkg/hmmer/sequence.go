package hmmer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/TuftsBCB/io/fasta"
)

var (
	ErrEmptySequence  = errors.New("input sequence is empty")
	ErrInvalidResidue = errors.New("sequence contains a non-residue character")
)

// Sequence is one FASTA record.
type Sequence struct {
	ID       string `json:"id" yaml:"id"`
	Residues string `json:"residues" yaml:"residues"`
}

// IUPAC amino acid letters, including ambiguity codes, selenocysteine,
// pyrrolysine and the stop/gap characters hmmscan tolerates.
const residues = "ACDEFGHIKLMNPQRSTVWYBZXJUO*-"

// CleanSequence accepts a raw protein sequence or a single FASTA record and returns
// the bare residues, uppercased, with whitespace and the header removed.
func CleanSequence(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", ErrEmptySequence
	}

	var sb strings.Builder
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ">") || strings.HasPrefix(line, ";") {
			continue
		}
		for _, r := range line {
			if r == ' ' || r == '\t' || r == '\r' {
				continue
			}
			upper := strings.ToUpper(string(r))
			if !strings.Contains(residues, upper) {
				return "", fmt.Errorf("%w: %q", ErrInvalidResidue, r)
			}
			sb.WriteString(upper)
		}
	}

	if sb.Len() == 0 {
		return "", ErrEmptySequence
	}
	return sb.String(), nil
}

// ReadFasta reads every record from r. Text before the first header is treated as
// an unnamed record; blank lines and ';' comment lines are skipped.
func ReadFasta(r io.Reader) ([]Sequence, error) {
	body, err := normalizeFasta(r)
	if err != nil {
		return nil, err
	}

	// The body is already in memory, so anything the reader rejects is a bad residue.
	entries, err := fasta.NewReader(body).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResidue, err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptySequence
	}

	records := make([]Sequence, 0, len(entries))
	for _, entry := range entries {
		var id string
		if fields := strings.Fields(entry.Name); len(fields) > 0 {
			id = fields[0]
		}
		if len(entry.Residues) == 0 {
			return nil, fmt.Errorf("record %q: %w", id, ErrEmptySequence)
		}
		records = append(records, Sequence{ID: id, Residues: string(entry.Residues)})
	}
	return records, nil
}

// normalizeFasta rewrites input into the strict form fasta.Reader expects: comment
// lines dropped, whitespace inside residue lines removed, and an empty header in
// front of leading headerless residues.
func normalizeFasta(r io.Reader) (io.Reader, error) {
	var (
		buf     bytes.Buffer
		started bool
		// an empty ">" header that has no residues yet
		bareOpen bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if bareOpen {
				return nil, fmt.Errorf("record %q: %w", "", ErrEmptySequence)
			}
			bareOpen = strings.TrimSpace(line[1:]) == ""
			started = true
		} else {
			if !started {
				buf.WriteString(">\n")
				started = true
			}
			line = strings.Join(strings.Fields(line), "")
			bareOpen = false
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read FASTA: %w", err)
	}
	if bareOpen {
		return nil, fmt.Errorf("record %q: %w", "", ErrEmptySequence)
	}
	return &buf, nil
}
