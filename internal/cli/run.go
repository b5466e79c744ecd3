package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoobzio/relql"
	"github.com/zoobzio/relql/executor"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	Query       string
	Model       string
	Driver      string
	DSN         string
	Concurrency int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a query and print the nested records as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query file (yaml or json)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "root model name")
	cmd.Flags().StringVar(&opts.Driver, "driver", "pgx", "database driver (pgx|sqlite|mysql|sqlserver)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "statements in flight when batching per parent")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runQuery(cmd *cobra.Command, rootOpts *RootOptions, opts *RunOptions) error {
	ctx := cmd.Context()
	log := rootOpts.logger(cmd, "run")

	schema, err := rootOpts.schema()
	if err != nil {
		return err
	}
	q := &relql.Query{}
	if opts.Query != "" {
		if q, err = relql.LoadQuery(opts.Query); err != nil {
			return err
		}
	}

	dialect, ok := driverDialects[opts.Driver]
	if !ok {
		return fmt.Errorf("unknown driver %q: must be one of %v", opts.Driver, keys(driverDialects))
	}
	renderer, err := newRenderer(dialect)
	if err != nil {
		return err
	}

	querier, closeFn, err := connect(ctx, opts.Driver, opts.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close connection")
		}
	}()

	records, err := executor.Fetch(ctx, querier, renderer, schema, opts.Model, q,
		executor.WithLogger(log),
		executor.WithConcurrency(opts.Concurrency),
	)
	if err != nil {
		return err
	}
	log.Info().Str("model", opts.Model).Int("records", len(records)).Msg("query done")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
