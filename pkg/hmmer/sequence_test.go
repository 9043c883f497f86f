package hmmer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSequence(t *testing.T) {

	tests := []struct {
		name        string
		input       string
		expected    string
		expectedErr error
	}{
		{
			name:     "BareSequence",
			input:    "MKVLAAGIVG",
			expected: "MKVLAAGIVG",
		},
		{
			name:     "FastaRecord",
			input:    ">sp|P12345|TEST some protein\nmkvla agivg\nLLEE\n",
			expected: "MKVLAAGIVGLLEE",
		},
		{
			name:     "WindowsLineEndings",
			input:    ">x\r\nMKV\r\nLAA\r\n",
			expected: "MKVLAA",
		},
		{
			name:        "Empty",
			input:       "  \n ",
			expectedErr: ErrEmptySequence,
		},
		{
			name:        "HeaderOnly",
			input:       ">lonely header\n",
			expectedErr: ErrEmptySequence,
		},
		{
			name:        "Digits",
			input:       "MKV1LAA",
			expectedErr: ErrInvalidResidue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanSequence(tt.input)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReadFasta(t *testing.T) {

	tests := []struct {
		name     string
		input    string
		expected []Sequence
	}{
		{
			name:  "TwoRecords",
			input: ">seq1 first\nMKV\nLAA\n\n>seq2\nGGSW\n",
			expected: []Sequence{
				{ID: "seq1", Residues: "MKVLAA"},
				{ID: "seq2", Residues: "GGSW"},
			},
		},
		{
			name:     "LeadingBlankLine",
			input:    "\n>seq1\nMKV\n",
			expected: []Sequence{{ID: "seq1", Residues: "MKV"}},
		},
		{
			name:     "LeadingComment",
			input:    "; comment\n>seq1\nMKV\n",
			expected: []Sequence{{ID: "seq1", Residues: "MKV"}},
		},
		{
			name:     "CommentBetweenResidues",
			input:    ">seq1\nMKV\n;note\nLAA\n",
			expected: []Sequence{{ID: "seq1", Residues: "MKVLAA"}},
		},
		{
			name:     "Unnamed",
			input:    "mkvlaa\n",
			expected: []Sequence{{ID: "", Residues: "MKVLAA"}},
		},
		{
			name:     "SpacesInsideResidues",
			input:    ">one\nMKV LLA\n",
			expected: []Sequence{{ID: "one", Residues: "MKVLLA"}},
		},
		{
			name:     "NoTrailingNewline",
			input:    ">seq1\nMKV",
			expected: []Sequence{{ID: "seq1", Residues: "MKV"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ReadFasta(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, records)
		})
	}
}

func TestReadFasta_Errors(t *testing.T) {

	tests := []struct {
		name        string
		input       string
		expectedErr error
	}{
		{name: "Empty", input: "", expectedErr: ErrEmptySequence},
		{name: "OnlyComments", input: "; nothing here\n\n", expectedErr: ErrEmptySequence},
		{name: "EmptyRecord", input: ">a\nMKV\n>b\n", expectedErr: ErrEmptySequence},
		{name: "EmptyUnnamedRecord", input: ">\n>a\nMKV\n", expectedErr: ErrEmptySequence},
		{name: "InvalidResidue", input: ">a\nMK#V\n", expectedErr: ErrInvalidResidue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ReadFasta(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, records)
		})
	}
}
