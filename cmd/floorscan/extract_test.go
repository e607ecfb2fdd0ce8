package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/floorscan/internal/config"
	"github.com/nao1215/floorscan/internal/model"
	"github.com/nao1215/floorscan/internal/source"
)

const planTokens = `{"pages":[
 {"page":1,"tokens":[
  {"text":"KITCHEN 12' 6\"","bbox":[10,20,80,30]},
  {"text":"DB24 WC3036","bbox":[10,40,60,50]}
 ]},
 {"page":2,"tokens":[
  {"text":"34 (1/2)\" SB42FH","bbox":[5,5,25,15]}
 ]}
]}`

// writeFixture writes content to name inside dir.
func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestNewExtractCmd tests the extract command flags.
func TestNewExtractCmd(t *testing.T) {
	t.Parallel()

	cmd := NewExtractCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "method", shorthand: "m", defValue: config.DefaultMethod},
		{name: "format", shorthand: "f", defValue: config.DefaultFormat},
		{name: "output", shorthand: "o", defValue: ""},
		{name: "concurrency", shorthand: "p", defValue: "4"},
		{name: "batch", shorthand: "b", defValue: "4"},
		{name: "tolerance", defValue: "3"},
		{name: "no-db", defValue: "false"},
		{name: "fold-width", defValue: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// TestExtractText tests the default text report.
func TestExtractText(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, t.TempDir(), "plan.json", planTokens)

	stdout, _, err := runCLI(t, "extract", "--no-db", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"FLOORSCAN REPORT",
		"File:       plan.json",
		"PAGE 1",
		`12' 6"`,
		"150.00 in",
		"Codes: DB24, WC3036",
		"PAGE 2",
		"34.50 in",
		"Codes: SB42FH",
		"2 dimensions, 3 codes found",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestExtractJSON tests the JSON report written to stdout.
func TestExtractJSON(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, t.TempDir(), "plan.json", planTokens)

	stdout, _, err := runCLI(t, "extract", "--no-db", "-f", "json", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got model.Report
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
	}
	if got.Document == nil {
		t.Fatal("expected pages in report")
	}

	want := []model.PageRecord{
		{
			Page: 1,
			Dimensions: []model.Dimension{
				{Raw: `12' 6"`, Inches: 150, BBox: model.NewBBox(10, 20, 80, 30)},
			},
			Codes: model.NewCodeSet("DB24", "WC3036"),
		},
		{
			Page: 2,
			Dimensions: []model.Dimension{
				{Raw: `34 (1/2)"`, Inches: 34.5, BBox: model.NewBBox(5, 5, 25, 15)},
			},
			Codes: model.NewCodeSet("SB42FH"),
		},
	}
	codeSetEqual := cmp.Comparer(func(a, b model.CodeSet) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got.Pages, codeSetEqual); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}

	if got.Metadata.SourceFile != "plan.json" {
		t.Errorf("expected pdf_file 'plan.json', got %q", got.Metadata.SourceFile)
	}
	if got.Metadata.Method != source.MethodTokens {
		t.Errorf("expected method %q, got %q", source.MethodTokens, got.Metadata.Method)
	}
	if got.Metadata.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", got.Metadata.TotalPages)
	}
	if len(got.Metadata.SourceHash) != 64 {
		t.Errorf("expected SHA3-256 hex hash, got %q", got.Metadata.SourceHash)
	}
}

// TestExtractOutputFiles tests --output and --output-dir.
func TestExtractOutputFiles(t *testing.T) {
	t.Parallel()

	t.Run("output writes only the file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFixture(t, dir, "plan.json", planTokens)
		out := filepath.Join(dir, "out", "result.md")

		stdout, _, err := runCLI(t, "extract", "--no-db", "-f", "markdown", "-o", out, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "" {
			t.Errorf("expected nothing on stdout, got %q", stdout)
		}

		content, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# Floorscan Report") {
			t.Errorf("expected markdown report, got:\n%s", content)
		}
	})

	t.Run("output-dir saves timestamped files for each target", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		first := writeFixture(t, dir, "level1.json", planTokens)
		second := writeFixture(t, dir, "level2.json", planTokens)
		reports := filepath.Join(dir, "reports")

		stdout, _, err := runCLI(t, "extract", "--no-db", "-f", "json", "-b", "2",
			"--output-dir", reports, "--suffix", "rev2", first, second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout == "" {
			t.Error("expected reports on stdout as well")
		}

		for _, name := range []string{"level1", "level2"} {
			matches, err := filepath.Glob(filepath.Join(reports, name+"_rev2_*.json"))
			if err != nil {
				t.Fatal(err)
			}
			if len(matches) != 1 {
				t.Errorf("expected one report for %s, got %v", name, matches)
			}
		}
	})
}

// TestExtractErrors tests argument and configuration errors.
func TestExtractErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plan := writeFixture(t, dir, "plan.json", planTokens)
	text := writeFixture(t, dir, "plan.txt", "12' 6\"")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no targets",
			args:    []string{"extract", "--no-db"},
			wantErr: config.ErrNoTarget,
		},
		{
			name:    "unsupported extension",
			args:    []string{"extract", "--no-db", text},
			wantErr: source.ErrUnsupportedFormat,
		},
		{
			name:    "missing file",
			args:    []string{"extract", "--no-db", filepath.Join(dir, "missing.json")},
			wantMsg: "cannot read",
		},
		{
			name:    "invalid method",
			args:    []string{"extract", "--no-db", "-m", "lines", plan},
			wantErr: config.ErrInvalidMethod,
		},
		{
			name:    "invalid format",
			args:    []string{"extract", "--no-db", "-f", "xml", plan},
			wantErr: config.ErrInvalidFormat,
		},
		{
			name:    "conflicting outputs",
			args:    []string{"extract", "--no-db", "-o", filepath.Join(dir, "a.txt"), "--output-dir", dir, plan},
			wantErr: config.ErrConflictingOutputs,
		},
		{
			name:    "missing config file",
			args:    []string{"extract", "--no-db", "-c", filepath.Join(dir, "nope.yaml"), plan},
			wantErr: config.ErrConfigNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := runCLI(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

// TestExtractFailedDocument tests that a broken document is reported and
// fails the command.
func TestExtractFailedDocument(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, t.TempDir(), "broken.json", `{"pages": [`)

	stdout, stderr, err := runCLI(t, "extract", "--no-db", path)
	if err == nil {
		t.Fatal("expected error for a broken document")
	}
	if !strings.Contains(err.Error(), "1 of 1 documents failed") {
		t.Errorf("expected failure count, got %v", err)
	}
	if !strings.Contains(stdout, "Status:     ERROR") {
		t.Errorf("expected error status in report, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "Extraction error for") {
		t.Errorf("expected error message on stderr, got:\n%s", stderr)
	}
}

// TestExtractConfigFile tests that file values apply unless a flag overrides them.
func TestExtractConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plan := writeFixture(t, dir, "plan.json", planTokens)
	cfgPath := writeFixture(t, dir, "floorscan.yaml", "format: json\n")

	t.Run("file value applies", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := runCLI(t, "extract", "--no-db", "-c", cfgPath, plan)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(strings.TrimSpace(stdout), "{") {
			t.Errorf("expected JSON output, got:\n%s", stdout)
		}
	})

	t.Run("flag wins over file", func(t *testing.T) {
		t.Parallel()
		stdout, _, err := runCLI(t, "extract", "--no-db", "-c", cfgPath, "-f", "text", plan)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "FLOORSCAN REPORT") {
			t.Errorf("expected text output, got:\n%s", stdout)
		}
	})
}

// TestExtractRedactsPassword tests that the PDF password never reaches the log.
func TestExtractRedactsPassword(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, t.TempDir(), "plan.json", planTokens)

	_, stderr, err := runCLI(t, "extract", "-v", "--no-db", "--password", "hunter2secret", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(stderr, "hunter2secret") {
		t.Errorf("expected password to be redacted, got:\n%s", stderr)
	}
}
