package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/optsql/internal/queryopt"
	"github.com/roach88/optsql/internal/store"
)

// NewSourcesCommand creates the sources command group.
func NewSourcesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage the source catalog",
		Long: `Manage the sources stored in the catalog database.

Sources map the ids used by query options to physical table names.

Examples:
  optsql sources import ./shop.db --db ./catalog.db
  optsql sources add query.yaml --db ./catalog.db
  optsql sources list --db ./catalog.db`,
	}

	cmd.AddCommand(newSourcesListCommand(rootOpts))
	cmd.AddCommand(newSourcesImportCommand(rootOpts))
	cmd.AddCommand(newSourcesAddCommand(rootOpts))
	cmd.AddCommand(newSourcesRemoveCommand(rootOpts))

	return cmd
}

func newSourcesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored sources",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
				sources, err := st.ListSources(ctx)
				if err != nil {
					return storeFailure(formatter, err)
				}
				return outputSources(formatter, sources)
			})
		},
	}
}

func newSourcesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <sqlite-file>",
		Short: "Import the tables of a SQLite database as sources",
		Long: `Read the table and view names of another SQLite database and store
one source per table. The table name is the source id; the display name
is the title-cased table name. Existing sources are updated in place.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
				imported, err := st.ImportSources(ctx, args[0])
				if err != nil {
					return storeFailure(formatter, err)
				}
				if formatter.Format == "json" {
					return formatter.Success(imported)
				}
				fmt.Fprintf(formatter.Writer, "✓ Imported %d source(s) from %s\n", len(imported), args[0])
				for _, src := range imported {
					formatter.VerboseLog("  %s", src.ID)
				}
				return nil
			})
		},
	}
}

func newSourcesAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add <document>",
		Short:         "Store the sources listed in a document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			doc, code, err := loadDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return documentFailure(formatter, code, err)
			}

			return withStore(rootOpts, cmd, func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
				if err := st.PutSources(ctx, doc.Sources); err != nil {
					return storeFailure(formatter, err)
				}
				if formatter.Format == "json" {
					return formatter.Success(doc.Sources)
				}
				fmt.Fprintf(formatter.Writer, "✓ Stored %d source(s)\n", len(doc.Sources))
				return nil
			})
		},
	}
}

func newSourcesRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <id>",
		Short:         "Remove a stored source",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
				if err := st.DeleteSource(ctx, args[0]); err != nil {
					return storeFailure(formatter, err)
				}
				if formatter.Format == "json" {
					return formatter.Success(map[string]string{"removed": args[0]})
				}
				fmt.Fprintf(formatter.Writer, "✓ Removed source %s\n", args[0])
				return nil
			})
		},
	}
}

// outputSources prints one line per source.
func outputSources(formatter *OutputFormatter, sources []queryopt.Source) error {
	if formatter.Format == "json" {
		return formatter.Success(sources)
	}

	if len(sources) == 0 {
		fmt.Fprintln(formatter.Writer, "No sources stored.")
		return nil
	}
	for _, src := range sources {
		table := src.Table()
		if table == "" {
			table = "(no table)"
		}
		fmt.Fprintf(formatter.Writer, "%-20s %-24s %s\n", src.ID, src.Name, table)
	}
	return nil
}

// withStore opens the catalog, runs fn and closes the catalog again.
func withStore(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			code := ErrCodeStore
			if exitErr.Err == nil {
				code = ErrCodeNoDatabase
			}
			_ = formatter.Error(code, exitErr.Error(), nil)
		}
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, st, formatter)
}

// storeFailure reports a catalog error. Missing records are command errors
// with the not-found code.
func storeFailure(formatter *OutputFormatter, err error) error {
	code := ErrCodeStore
	if errors.Is(err, store.ErrNotFound) {
		code = ErrCodeNotFound
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}
