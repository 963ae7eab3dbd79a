package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/optsql/internal/store"
)

// QueriesListOptions holds flags for the queries list command.
type QueriesListOptions struct {
	*RootOptions
	Source string // only queries referencing this source id
}

// NewQueriesCommand creates the queries command group.
func NewQueriesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Inspect saved queries",
		Long: `Inspect queries saved with "optsql compile --save".

Saved queries are keyed by the fingerprint of their query option;
compiling the same option twice keeps the first record.

Examples:
  optsql queries list --db ./catalog.db
  optsql queries list --source s2 --db ./catalog.db
  optsql queries show 01927b1e-5c4a-7d2e-9f0a-3b6c8d1e2f40 --db ./catalog.db`,
	}

	cmd.AddCommand(newQueriesListCommand(rootOpts))
	cmd.AddCommand(newQueriesShowCommand(rootOpts))
	cmd.AddCommand(newQueriesDeleteCommand(rootOpts))

	return cmd
}

func newQueriesListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueriesListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved queries in save order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
				queries, err := st.ListQueries(ctx, opts.Source)
				if err != nil {
					return storeFailure(formatter, err)
				}
				if formatter.Format == "json" {
					return formatter.Success(queries)
				}
				if len(queries) == 0 {
					fmt.Fprintln(formatter.Writer, "No saved queries.")
					return nil
				}
				for _, q := range queries {
					fmt.Fprintf(formatter.Writer, "%s  %-24s %s\n", q.ID, q.Name, strings.Join(q.SourceIDs, ","))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "only list queries that reference this source id")

	return cmd
}

func newQueriesShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id-or-fingerprint>",
		Short:         "Show a saved query and its SQL",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
				saved, err := st.GetQuery(ctx, args[0])
				if errors.Is(err, store.ErrNotFound) {
					saved, err = st.GetQueryByFingerprint(ctx, args[0])
				}
				if err != nil {
					return storeFailure(formatter, err)
				}

				if formatter.Format == "json" {
					return formatter.Success(saved)
				}
				w := formatter.Writer
				fmt.Fprintf(w, "ID:          %s\n", saved.ID)
				fmt.Fprintf(w, "Name:        %s\n", saved.Name)
				fmt.Fprintf(w, "Fingerprint: %s\n", saved.Fingerprint)
				fmt.Fprintf(w, "Sources:     %s\n", strings.Join(saved.SourceIDs, ", "))
				fmt.Fprintln(w)
				fmt.Fprintln(w, saved.SQL)
				return nil
			})
		},
	}
}

func newQueriesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a saved query",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, func(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
				if err := st.DeleteQuery(ctx, args[0]); err != nil {
					return storeFailure(formatter, err)
				}
				if formatter.Format == "json" {
					return formatter.Success(map[string]string{"deleted": args[0]})
				}
				fmt.Fprintf(formatter.Writer, "✓ Deleted query %s\n", args[0])
				return nil
			})
		},
	}
}
