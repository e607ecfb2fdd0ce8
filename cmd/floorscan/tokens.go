package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/floorscan/internal/config"
	flog "github.com/nao1215/floorscan/internal/log"
	"github.com/nao1215/floorscan/internal/model"
	"github.com/nao1215/floorscan/internal/source"
)

// NewTokensCmd creates the tokens command.
func NewTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump the positioned tokens of a document as JSON",
		Long: `Tokens reads one document and writes its positioned text tokens in the
token JSON format that extract also accepts. Use it to inspect what the
recognizers see, or to save an OCR or PDF pass for later runs.

Examples:
  floorscan tokens plan.pdf
  floorscan tokens -m words -o plan.json plan.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runTokens,
	}

	cmd.Flags().StringP("method", "m", config.DefaultMethod,
		"PDF token grouping method (spans or words)")
	cmd.Flags().Float64("tolerance", config.DefaultTolerance,
		"Gap in points that still joins two PDF glyphs")
	cmd.Flags().String("password", "", "Password for encrypted PDFs")
	cmd.Flags().StringP("output", "o", "", "Write tokens to this file instead of stdout")

	return cmd
}

// runTokens executes the tokens command.
func runTokens(cmd *cobra.Command, args []string) error {
	method, _ := cmd.Flags().GetString("method")
	tolerance, _ := cmd.Flags().GetFloat64("tolerance")
	password, _ := cmd.Flags().GetString("password")
	output, _ := cmd.Flags().GetString("output")

	if !source.ValidMethod(method) {
		return config.ErrInvalidMethod
	}
	if tolerance <= 0 {
		return config.ErrInvalidTolerance
	}

	logger := flog.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), password)

	src, err := source.Open(args[0], source.Options{
		Method:    method,
		Password:  password,
		Tolerance: tolerance,
	})
	if err != nil {
		return err
	}

	pages, err := src.Pages(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	logger.Debug("tokens loaded",
		"source", args[0],
		"method", src.Method(),
		"pages", len(pages),
		"tokens", model.TokenCount(pages),
	)

	if output == "" {
		return source.EncodeTokens(cmd.OutOrStdout(), pages)
	}

	f, err := createReportFile(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := source.EncodeTokens(f, pages); err != nil {
		return err
	}
	logger.Info("tokens saved", slog.String("path", output))
	return nil
}
