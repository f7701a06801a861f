package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/jokebox/internal/compiler"
)

// Error codes reported by validate that do not come from the compiler.
const (
	ErrCodeCompile  = "E001" // CUE syntax, schema or duplicate id
	ErrCodeNotFound = "E002" // seed path missing
)

// SeedIssue is one problem found in a seed catalog.
type SeedIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Jokes  int         `json:"jokes"`
	Errors []SeedIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <seed.cue>",
		Short: "Check a seed catalog",
		Long: `Check a CUE seed catalog without starting a store.

The catalog is unified with the built-in joke schema. Ids must be present,
unique and free of whitespace so that intents can name them.

Examples:
  jokebox validate jokes.cue
  jokebox validate ./catalog --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts)

	if _, err := os.Stat(path); err != nil {
		_ = out.Error(ErrCodeNotFound, fmt.Sprintf("seed not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "seed not found", err)
	}

	records, err := compiler.LoadSeedFile(path)
	if err != nil {
		return reportIssues(out, []SeedIssue{compileIssue(err)})
	}
	out.VerboseLog("loaded %d joke(s) from %s", len(records), path)

	var issues []SeedIssue
	for _, ve := range compiler.ValidateSeed(records) {
		issues = append(issues, SeedIssue{Code: ve.Code, Field: ve.Field, Message: ve.Message})
	}
	if len(issues) > 0 {
		return reportIssues(out, issues)
	}

	if out.Format == "json" {
		return out.Success(ValidationResult{Valid: true, Jokes: len(records)})
	}
	fmt.Fprintf(out.Writer, "✓ Seed valid: %d joke(s)\n", len(records))
	return nil
}

func compileIssue(err error) SeedIssue {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return SeedIssue{Code: ErrCodeCompile, Field: "seed", Message: err.Error()}
	}
	issue := SeedIssue{Code: ErrCodeCompile, Field: ce.Field, Message: ce.Message}
	if ce.Pos.IsValid() {
		issue.File = ce.Pos.Filename()
		issue.Line = ce.Pos.Line()
		issue.Column = ce.Pos.Column()
	}
	return issue
}

func reportIssues(out *OutputFormatter, issues []SeedIssue) error {
	if out.Format == "json" {
		if err := out.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error:  &CLIError{Code: issues[0].Code, Message: fmt.Sprintf("%d issue(s) found", len(issues))},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out.Writer, "✗ %d issue(s) found\n", len(issues))
		for _, is := range issues {
			if is.Line > 0 {
				fmt.Fprintf(out.Writer, "  [%s] %s:%d:%d %s: %s\n", is.Code, is.File, is.Line, is.Column, is.Field, is.Message)
			} else {
				fmt.Fprintf(out.Writer, "  [%s] %s: %s\n", is.Code, is.Field, is.Message)
			}
		}
	}
	return NewExitError(ExitFailure, "seed validation failed")
}
