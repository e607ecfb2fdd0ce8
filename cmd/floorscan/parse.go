package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/nao1215/floorscan/internal/code"
	"github.com/nao1215/floorscan/internal/config"
	"github.com/nao1215/floorscan/internal/dimension"
)

// parsedDimension is one dimension match in parse output.
type parsedDimension struct {
	Raw    string  `json:"raw"`
	Form   string  `json:"form"`
	Inches float64 `json:"inches"`
	Error  string  `json:"error,omitempty"`
}

// parseResult is everything recognized in one argument.
type parseResult struct {
	Text       string            `json:"text"`
	Dimensions []parsedDimension `json:"dimensions"`
	Codes      []string          `json:"codes"`
}

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <text>...",
		Short: "Recognize dimensions and codes in text",
		Long: `Parse runs the dimension parser and the code recognizer over each
argument, which is handy for checking how a label on a plan is read.

Examples:
  floorscan parse "2' 6\""
  floorscan parse "34 (1/2)\" WC3036" "DB24"
  floorscan parse --json "12'6\""`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().Bool("fold-width", false, "Fold fullwidth digits and marks before recognition")
	cmd.Flags().StringSlice("feet-mark", nil, "Extra character accepted as a feet mark")
	cmd.Flags().StringSlice("inch-mark", nil, "Extra character accepted as an inch mark")

	return cmd
}

// runParse executes the parse command.
func runParse(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	fold, _ := cmd.Flags().GetBool("fold-width")
	feetMarks, _ := cmd.Flags().GetStringSlice("feet-mark")
	inchMarks, _ := cmd.Flags().GetStringSlice("inch-mark")

	cfg := config.Config{FeetMarks: feetMarks, InchMarks: inchMarks}
	for _, m := range append(append([]string{}, feetMarks...), inchMarks...) {
		if utf8.RuneCountInString(m) != 1 {
			return fmt.Errorf("%w: %q", config.ErrInvalidMark, m)
		}
	}
	feet, inch := cfg.ExtraMarks()
	marks := dimension.DefaultMarks().With(feet, inch)
	if err := marks.Validate(); err != nil {
		return err
	}

	parser := dimension.New(dimension.WithMarks(marks), dimension.WithWidthFolding(fold))
	recognizer := code.New()

	results := make([]parseResult, 0, len(args))
	for _, text := range args {
		results = append(results, parseText(parser, recognizer, text))
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	writeParseText(cmd.OutOrStdout(), results)
	return nil
}

// parseText collects every dimension match and code in text.
func parseText(parser *dimension.Parser, recognizer *code.Recognizer, text string) parseResult {
	res := parseResult{
		Text:       text,
		Dimensions: []parsedDimension{},
		Codes:      recognizer.Detect(text).Sorted(),
	}
	for _, m := range parser.Scan(text) {
		d := parsedDimension{
			Raw:  m.Raw,
			Form: m.Form.String(),
		}
		if m.Valid() {
			d.Inches = m.Inches()
		} else {
			d.Error = m.Err.Error()
		}
		res.Dimensions = append(res.Dimensions, d)
	}
	return res
}

// writeParseText prints results in a readable form.
func writeParseText(w io.Writer, results []parseResult) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Text: %s\n", res.Text)

		if len(res.Dimensions) == 0 {
			fmt.Fprintln(w, "  Dimensions: none")
		} else {
			fmt.Fprintln(w, "  Dimensions:")
			for _, d := range res.Dimensions {
				if d.Error != "" {
					fmt.Fprintf(w, "    %-14s %-12s invalid (%s)\n", d.Raw, d.Form, d.Error)
					continue
				}
				fmt.Fprintf(w, "    %-14s %-12s %.2f in\n", d.Raw, d.Form, d.Inches)
			}
		}

		if len(res.Codes) == 0 {
			fmt.Fprintln(w, "  Codes: none")
		} else {
			fmt.Fprintf(w, "  Codes: %s\n", strings.Join(res.Codes, ", "))
		}
	}
}
