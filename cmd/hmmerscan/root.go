package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yumyai/pfamscan/internal/config"
	"github.com/yumyai/pfamscan/logger"
	"github.com/yumyai/pfamscan/pkg/hmmer"
	"github.com/yumyai/pfamscan/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// SequenceResults pairs one input record with its hits.
type SequenceResults struct {
	ID      string          `json:"id" yaml:"id"`
	Length  int             `json:"length" yaml:"length"`
	Results []*hmmer.Result `json:"results" yaml:"results"`
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "hmmerscan",
		Short:         "Pfam annotation through the HMMER web service",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("format", formatJSON, "Output format: json or yaml")

	root.AddCommand(newScanCommand(cfg), newClashesCommand())
	return root
}

func newScanCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file|-]",
		Short: "Scan FASTA sequences against Pfam",
		Long: `Scan submits every record of a FASTA file to hmmscan and prints the
reported families per record, in input order. Records are scanned one after
another unless --jobs is raised.

Examples:
  # Scan a file
  hmmerscan scan proteins.fasta

  # Read stdin and print yaml
  cat proteins.fasta | hmmerscan scan --format yaml

  # Four submissions in flight
  hmmerscan scan -j 4 proteome.fasta
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			service, _ := cmd.Flags().GetString("service")
			database, _ := cmd.Flags().GetString("db")
			cutGA, _ := cmd.Flags().GetBool("cut-ga")
			jobs, _ := cmd.Flags().GetInt("jobs")
			if err := checkFormat(format); err != nil {
				return err
			}

			in, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()

			sequences, err := hmmer.ReadFasta(in)
			if err != nil {
				return fmt.Errorf("failed to read sequences: %w", err)
			}

			scanner := hmmer.NewRemoteScan(
				hmmer.WithServiceURL(service),
				hmmer.WithDatabase(database),
				hmmer.WithCutGA(cutGA),
			)

			// Slots are indexed by record so output keeps input order.
			out := make([]SequenceResults, len(sequences))
			g, gctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))

			for i, seq := range sequences {
				g.Go(func() error {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logger.Info("Scanning", zap.String("id", seq.ID), zap.Int("length", len(seq.Residues)))
					results, err := scanner.Scan(gctx, seq.Residues)
					if err != nil {
						return fmt.Errorf("scan %q: %w", seq.ID, err)
					}
					out[i] = SequenceResults{ID: seq.ID, Length: len(seq.Residues), Results: results}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().String("service", cfg.ServiceURL, "hmmscan service URL")
	cmd.Flags().String("db", cfg.Database, "HMM database to scan against")
	cmd.Flags().Bool("cut-ga", cfg.CutGA, "Use the Pfam gathering thresholds")
	cmd.Flags().IntP("jobs", "j", 1, "Sequences scanned concurrently")
	return cmd
}

func newClashesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clashes [file|-]",
		Short: "Print the clash records of a validation report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := checkFormat(format); err != nil {
				return err
			}

			in, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()

			clashes, err := validation.ReadClashes(in)
			if err != nil {
				return fmt.Errorf("failed to read clashes: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), format, clashes)
		},
	}
}

// openInput opens the file named in args, or the command's stdin for "-" or none.
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
