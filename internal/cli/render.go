package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zoobzio/relql"
	"github.com/zoobzio/relql/executor"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Query   string
	Model   string
	Dialect string
	Pretty  bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the SQL for a query",
		Long: `Print the root statement of a query followed by one statement per
batched relation. Batch statements are shown for a single parent whose key
values are rendered as <model.field> parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query file (yaml or json)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "root model name")
	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "postgres", "SQL dialect (postgres|sqlite|mariadb|mssql)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent statements and list parameters")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions) error {
	log := rootOpts.logger(cmd, "render")

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
	renderer, err := newRenderer(opts.Dialect)
	if err != nil {
		return err
	}

	r := &treeRenderer{
		out:      cmd.OutOrStdout(),
		schema:   schema,
		renderer: renderer,
		pretty:   opts.Pretty,
		log:      log,
	}
	return r.root(opts.Model, q)
}

type treeRenderer struct {
	out      io.Writer
	schema   *relql.Schema
	renderer executor.Renderer
	log      zerolog.Logger
	pretty   bool
}

func (r *treeRenderer) root(model string, q *relql.Query) error {
	m, err := r.schema.Model(model)
	if err != nil {
		return err
	}
	plan, err := relql.BuildPlan(r.schema, nil, model, q, nil, nil, 0, relql.WithLogger(r.log))
	if err != nil {
		return err
	}
	if err := r.print(model, plan); err != nil {
		return err
	}
	return r.includes(m, q, []string{model})
}

// includes prints the batches of q, following many-to-one includes whose
// targets have batched relations of their own.
func (r *treeRenderer) includes(m *relql.Model, q *relql.Query, path []string) error {
	if q == nil {
		return nil
	}
	for _, inc := range q.Include {
		rel, err := m.Relation(inc.Relation)
		if err != nil {
			return err
		}
		target, err := r.schema.Model(rel.Target)
		if err != nil {
			return err
		}
		childPath := append(append([]string{}, path...), rel.Name)

		if _, ok := rel.Kind.(relql.ManyToOne); !ok {
			sample := relql.Record{}
			for _, f := range rel.Fields {
				sample[f] = fmt.Sprintf("<%s.%s>", m.Name, f)
			}
			plan, err := relql.BuildBatch(r.schema, nil, m, rel.Name, inc.Query, []relql.Record{sample}, relql.WithLogger(r.log))
			if err != nil {
				return err
			}
			if err := r.print(strings.Join(childPath, ".")+" (batch)", plan); err != nil {
				return err
			}
		}
		if err := r.includes(target, inc.Query, childPath); err != nil {
			return err
		}
	}
	return nil
}

func (r *treeRenderer) print(title string, plan *relql.Plan) error {
	result, err := r.renderer.Render(plan)
	if err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}
	if r.pretty {
		_, err = fmt.Fprintf(r.out, "-- %s\n%s\n\n", title, result.Pretty())
		return err
	}
	_, err = fmt.Fprintf(r.out, "-- %s\n%s;\n-- params: %v\n\n", title, result.SQL, result.Params)
	return err
}
