package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/heistp/cryptopan"
	"github.com/heistp/cryptopan/internal/ingest"
	"github.com/heistp/cryptopan/internal/jsonrewrite"
	"github.com/heistp/cryptopan/internal/pcapanon"
)

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize",
	Short: "Anonymize addresses in a capture or a JSON document",
}

var (
	anonymizeOutPath string
	anonymizeNoTrunc bool
	anonymizeFields  []string
)

func init() {
	anonymizePcapCmd.Flags().StringVarP(&anonymizeOutPath, "out", "o", "", "output path (default: stdout)")
	anonymizePcapCmd.Flags().BoolVar(&anonymizeNoTrunc, "no-truncate", false, "keep packet bytes past what the handler examined, instead of dropping them")
	anonymizeJSONCmd.Flags().StringVarP(&anonymizeOutPath, "out", "o", "", "output path (default: stdout)")
	anonymizeJSONCmd.Flags().StringArrayVar(&anonymizeFields, "field", nil, "dot/bracket path of a field to anonymize (repeatable)")

	anonymizeCmd.AddCommand(anonymizePcapCmd)
	anonymizeCmd.AddCommand(anonymizeJSONCmd)
}

var anonymizePcapCmd = &cobra.Command{
	Use:   "pcap [path]",
	Short: "Anonymize MAC/IP addresses in a pcap capture",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnonymizePcap,
}

func runAnonymizePcap(cmd *cobra.Command, args []string) error {
	secret, err := loadSecret()
	if err != nil {
		return err
	}
	anon, err := cryptopan.New(secret)
	if err != nil {
		return err
	}
	defer anon.Close()

	var in io.ReadCloser
	if len(args) == 1 {
		src, err := ingest.Open(args[0])
		if err != nil {
			return err
		}
		in = src
	} else {
		in = io.NopCloser(os.Stdin)
	}
	defer in.Close()

	out, err := openOutput(anonymizeOutPath)
	if err != nil {
		return err
	}
	defer out.Close()

	stats, err := pcapanon.Run(in, out, &pcapanon.CoreAnonymizer{Anon: anon}, !anonymizeNoTrunc, logger, rec)
	if err != nil {
		return err
	}
	logger.Info().Uint64("packets", stats.Packets).Uint64("errors", stats.Errors).Msg("anonymization complete")
	return nil
}

var anonymizeJSONCmd = &cobra.Command{
	Use:   "json [path]",
	Short: "Anonymize IP/MAC fields in a JSON document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnonymizeJSON,
}

func runAnonymizeJSON(cmd *cobra.Command, args []string) error {
	if len(anonymizeFields) == 0 {
		return fmt.Errorf("cryptopan: at least one --field is required")
	}

	secret, err := loadSecret()
	if err != nil {
		return err
	}
	anon, err := cryptopan.New(secret)
	if err != nil {
		return err
	}
	defer anon.Close()

	rw, err := jsonrewrite.New(anon, anonymizeFields, rec)
	if err != nil {
		return err
	}

	var in io.ReadCloser
	if len(args) == 1 {
		src, err := ingest.Open(args[0])
		if err != nil {
			return err
		}
		in = src
	} else {
		in = io.NopCloser(os.Stdin)
	}
	defer in.Close()

	doc, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("cryptopan: read document: %w", err)
	}

	rewritten, err := rw.RewriteJSON(doc)
	if err != nil {
		return err
	}

	out, err := openOutput(anonymizeOutPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(rewritten); err != nil {
		return fmt.Errorf("cryptopan: write document: %w", err)
	}
	return nil
}

// openOutput opens path for writing, or returns stdout wrapped as a
// no-op closer when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cryptopan: create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
