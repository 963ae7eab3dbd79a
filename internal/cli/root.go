package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/optsql/internal/store"
)

// EnvDatabase names the environment variable used when --db is not set.
const EnvDatabase = "OPTSQL_DB"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string // catalog store path

	// Logger is built from Verbose before any subcommand runs.
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the optsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "optsql",
		Short: "optsql - compile query options to SQL",
		Long: `Compile structured query descriptions (tables, fields, joins, filters,
grouping, sorting, paging) into SQL SELECT statements.

Documents hold a source catalog and one query option and may be written
as JSON, YAML or CUE. Sources and compiled queries can be kept in a
SQLite catalog selected with --db or ` + EnvDatabase + `.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Database == "" {
				opts.Database = os.Getenv(EnvDatabase)
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite catalog (default $"+EnvDatabase+")")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSourcesCommand(opts))
	cmd.AddCommand(NewQueriesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger returns a console logger on w in verbose mode and a no-op
// logger otherwise.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	conf := zap.NewDevelopmentEncoderConfig()
	conf.TimeKey = ""
	conf.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(conf), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

// logger returns the configured logger, or a no-op logger when the root
// pre-run did not execute.
func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// openStore opens the catalog named by --db or OPTSQL_DB.
func openStore(opts *RootOptions) (*store.Store, error) {
	path := opts.Database
	if path == "" {
		path = os.Getenv(EnvDatabase)
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("%s: no catalog database: set --db or %s", ErrCodeNoDatabase, EnvDatabase))
	}

	st, err := store.Open(path, store.WithLogger(opts.logger()))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to open database", ErrCodeStore), err)
	}
	return st, nil
}
