package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/optsql/internal/canonical"
	"github.com/roach88/optsql/internal/queryopt"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Complete    bool             `json:"complete"`
	Fingerprint string           `json:"fingerprint"`
	Issues      []queryopt.Issue `json:"issues"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a query option for completeness",
		Long: `Check the query option in a document for completeness without
compiling it.

Reports every unfinished or inconsistent part: no main table, no fields,
conditions without an operator, joins without a usable ON term, HAVING
entries without a matching aggregate, sorts on unselected fields.

Exit codes:
  0 - Query is complete
  1 - Query has issues
  2 - Command error (unreadable document, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	doc, code, err := loadDocument(path, cmd.InOrStdin())
	if err != nil {
		return documentFailure(formatter, code, err)
	}
	formatter.VerboseLog("Validating %s against %d source(s)", path, len(doc.Sources))

	fingerprint, err := canonical.QueryFingerprint(doc.Query)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("fingerprinting query: %v", err), nil)
	}

	report := queryopt.Validate(doc.Query, doc.Sources)
	result := ValidationResult{
		Complete:    report.Complete,
		Fingerprint: fingerprint,
		Issues:      report.Issues,
	}

	if !report.Complete {
		return outputValidationIssues(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Query is complete")
	formatter.VerboseLog("fingerprint %s", result.Fingerprint)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationIssues lists the issues of an incomplete query.
func outputValidationIssues(formatter *OutputFormatter, result ValidationResult) error {
	message := fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues))

	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, "✗ Query is incomplete")
		fmt.Fprintln(formatter.Writer)
		for _, issue := range result.Issues {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
			fmt.Fprintf(formatter.Writer, "    at %s\n", issue.Field)
		}
	}

	// Incomplete queries are validation failures (exit code 1)
	return formatter.Fail(ExitFailure, result.Issues[0].Code, message, result)
}
