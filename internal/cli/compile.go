package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/optsql/internal/canonical"
	"github.com/roach88/optsql/internal/document"
	"github.com/roach88/optsql/internal/queryopt"
	"github.com/roach88/optsql/internal/querysql"
	"github.com/roach88/optsql/internal/sqlcheck"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Check  bool   // parse the generated SQL
	Strict bool   // fail on completeness issues
	Save   bool   // store sources and query in the catalog
	Name   string // saved query name
	Output string // output file path
}

// CompileResult is the payload of a successful compile.
type CompileResult struct {
	SQL                string            `json:"sql"`
	Clauses            []querysql.Clause `json:"clauses"`
	Fingerprint        string            `json:"fingerprint"`
	SourcesFingerprint string            `json:"sources_fingerprint"` // source list the SQL was compiled against
	Report             queryopt.Report   `json:"report"`
	Check              *sqlcheck.Result  `json:"check,omitempty"`
	SavedID            string            `json:"saved_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <document>",
		Short: "Compile a query document to SQL",
		Long: `Compile the query option in a JSON, YAML or CUE document to a SQL
SELECT statement. Use "-" to read a JSON or YAML document from stdin.

Incomplete queries still compile: unfinished parts are left out and
reported as issues. Use --strict to fail on issues instead, and --check
to parse the generated statement.

Exit codes:
  0 - Compiled
  1 - Rejected by --strict or --check
  2 - Command error (unreadable document, unknown main table, etc.)

Examples:
  optsql compile query.yaml
  optsql compile query.cue --check --strict
  cat query.json | optsql compile -
  optsql compile query.json --save --name "revenue by customer" --db ./catalog.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "parse the generated SQL and fail if it is rejected")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail if the query option is incomplete")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store sources and query in the catalog")
	cmd.Flags().StringVar(&opts.Name, "name", "", "saved query name (default: document file name)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL to a file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.logger()

	doc, code, err := loadDocument(path, cmd.InOrStdin())
	if err != nil {
		return documentFailure(formatter, code, err)
	}
	formatter.VerboseLog("Loaded %d source(s) from %s", len(doc.Sources), path)

	clauses, err := querysql.NewCompiler(doc.Sources).Clauses(doc.Query)
	if errors.Is(err, querysql.ErrMainTableNotFound) {
		return outputCompileError(formatter, ErrCodeMainTable, err.Error(), nil)
	}
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	for _, cl := range clauses {
		formatter.VerboseLog("%-8s %s", cl.Kind, cl.SQL)
	}

	fingerprint, err := canonical.QueryFingerprint(doc.Query)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("fingerprinting query: %v", err), nil)
	}
	sourcesFingerprint, err := canonical.SourcesFingerprint(doc.Sources)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("fingerprinting sources: %v", err), nil)
	}

	result := &CompileResult{
		SQL:                querysql.Assemble(clauses),
		Clauses:            clauses,
		Fingerprint:        fingerprint,
		SourcesFingerprint: sourcesFingerprint,
		Report:             queryopt.Validate(doc.Query, doc.Sources),
	}
	log.Debug("query compiled",
		zap.String("fingerprint", fingerprint),
		zap.Int("clauses", len(clauses)),
		zap.Int("issues", len(result.Report.Issues)))

	if opts.Strict && !result.Report.Complete {
		return outputIncomplete(formatter, result)
	}

	if opts.Check {
		check := sqlcheck.Inspect(result.SQL)
		result.Check = &check
		if !check.Valid {
			if formatter.Format != "json" {
				fmt.Fprintln(formatter.Writer, "✗ Generated SQL was rejected by the parser")
				fmt.Fprintf(formatter.Writer, "  %s\n  %s\n", result.SQL, check.Error)
			}
			return formatter.Fail(ExitFailure, ErrCodeSQLSyntax, check.Error, result)
		}
	}

	if opts.Output != "" {
		if err := writeSQLToFile(result.SQL, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if opts.Save {
		id, err := saveCompiled(cmd.Context(), opts, path, doc, result.SQL)
		if err != nil {
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				_ = formatter.Error(ErrCodeStore, exitErr.Error(), nil)
				return exitErr
			}
			return outputCompileError(formatter, ErrCodeStore, err.Error(), nil)
		}
		result.SavedID = id
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// saveCompiled stores the document's sources and the compiled query.
func saveCompiled(ctx context.Context, opts *CompileOptions, path string, doc *document.Document, sql string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return "", err
	}
	defer st.Close()

	if err := st.PutSources(ctx, doc.Sources); err != nil {
		return "", fmt.Errorf("storing sources: %w", err)
	}

	name := opts.Name
	if name == "" && path == StdinPath {
		name = "stdin"
	} else if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	saved, _, err := st.SaveQuery(ctx, name, doc.Query, sql)
	if err != nil {
		return "", fmt.Errorf("saving query: %w", err)
	}
	return saved.ID, nil
}

// outputCompileSuccess prints the SQL, then any issues and the saved id.
func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.SQL)

	// Diagnostics go to stderr so stdout stays a runnable statement.
	errW := formatter.GetErrWriter()
	if !result.Report.Complete {
		fmt.Fprintf(errW, "⚠ Query is incomplete (%d issue(s)):\n", len(result.Report.Issues))
		for _, issue := range result.Report.Issues {
			fmt.Fprintf(errW, "  %s\n", issue)
		}
	}
	if outputFile != "" {
		fmt.Fprintf(errW, "Wrote SQL to %s\n", outputFile)
	}
	if result.SavedID != "" {
		fmt.Fprintf(errW, "Saved query %s\n", result.SavedID)
	}
	return nil
}

// outputIncomplete reports completeness issues under --strict.
func outputIncomplete(formatter *OutputFormatter, result *CompileResult) error {
	message := fmt.Sprintf("query option has %d issue(s)", len(result.Report.Issues))
	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, "✗ Query is incomplete")
		fmt.Fprintln(formatter.Writer)
		for _, issue := range result.Report.Issues {
			fmt.Fprintf(formatter.Writer, "  %s\n", issue)
		}
	}
	return formatter.Fail(ExitFailure, ErrCodeIncomplete, message, result)
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// writeSQLToFile writes the statement followed by a newline.
func writeSQLToFile(sql, filename string) error {
	if err := os.WriteFile(filename, []byte(sql+"\n"), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
