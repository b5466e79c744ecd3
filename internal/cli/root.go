// Package cli implements the relql command line.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zoobzio/relql"
	"github.com/zoobzio/relql/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Models    string
	LogLevel  string
	LogPretty bool
}

// NewRootCommand creates the root command for the relql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relql",
		Short: "Compile nested relational queries to SQL",
		Long: `relql compiles a nested query (selection, filter, relation includes,
ordering, pagination, row locking) against a models file into SQL.

Many-to-one relations are joined; one-to-many and many-to-many relations
are fetched with one lateral batch per relation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Models, "models", "m", "models.yaml", "models file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&opts.LogPretty, "log-pretty", true, "human-readable logs on stderr")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

func (o *RootOptions) logger(cmd *cobra.Command, component string) zerolog.Logger {
	return logging.NewWithComponent(logging.Config{
		Level:  o.LogLevel,
		Pretty: o.LogPretty,
		Output: cmd.ErrOrStderr(),
	}, component)
}

func (o *RootOptions) schema() (*relql.Schema, error) {
	schema, err := relql.LoadSchema(o.Models)
	if err != nil {
		return nil, fmt.Errorf("models %s: %w", o.Models, err)
	}
	return schema, nil
}
