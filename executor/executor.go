// Package executor runs relql plans through an injected Querier.
//
// Fetch executes the root plan, then fetches every included one-to-many and
// many-to-many relation with one lateral batch per relation and level,
// stitching the children onto their parents. Relations at the same level are
// fetched concurrently. Dialects without LATERAL support fall back to one
// statement per distinct parent key.
//
// The executor owns no connections and opens no transactions; row locks
// requested with Query.For only hold inside a transaction supplied by the
// caller's Querier.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/relql"
)

// Renderer renders plans for one dialect. The postgres, mssql, mariadb and
// sqlite renderers implement it.
type Renderer interface {
	Name() string
	Render(plan *relql.Plan) (*relql.QueryResult, error)
}

// Executor fetches nested records.
type Executor struct {
	querier     Querier
	renderer    Renderer
	registry    relql.Registry
	preds       relql.PredicateCompiler
	log         zerolog.Logger
	concurrency int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger logs statements at debug level and plans at trace level.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Executor) {
		e.log = logger
	}
}

// WithPredicates replaces the default predicate compiler.
func WithPredicates(preds relql.PredicateCompiler) Option {
	return func(e *Executor) {
		e.preds = preds
	}
}

// WithConcurrency bounds the statements issued at once by the per-parent
// fallback. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates an Executor.
func New(querier Querier, renderer Renderer, registry relql.Registry, opts ...Option) *Executor {
	e := &Executor{
		querier:     querier,
		renderer:    renderer,
		registry:    registry,
		preds:       relql.Predicates{},
		log:         zerolog.Nop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fetch is a shorthand for New(...).Fetch(ctx, model, q).
func Fetch(ctx context.Context, querier Querier, renderer Renderer, registry relql.Registry, model string, q *relql.Query, opts ...Option) ([]relql.Record, error) {
	return New(querier, renderer, registry, opts...).Fetch(ctx, model, q)
}

// Fetch runs q against model and returns the nested records.
func (e *Executor) Fetch(ctx context.Context, model string, q *relql.Query) ([]relql.Record, error) {
	m, err := e.registry.Model(model)
	if err != nil {
		return nil, err
	}
	plan, err := relql.BuildPlan(e.registry, e.preds, model, q, nil, nil, 0, relql.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	rows, err := e.run(ctx, plan)
	if err != nil {
		return nil, err
	}
	records := relql.Decode(plan, rows)
	if err := e.load(ctx, m, q, records); err != nil {
		return nil, err
	}
	return records, nil
}

// load fetches the batched relations of q for records and recurses into
// many-to-one objects, whose own batched relations are keyed by them.
func (e *Executor) load(ctx context.Context, m *relql.Model, q *relql.Query, records []relql.Record) error {
	if q == nil || len(records) == 0 || len(q.Include) == 0 {
		return nil
	}

	type fetched struct {
		children []relql.Record
		relation relql.Relation
	}
	results := make([]*fetched, len(q.Include))

	g, gctx := errgroup.WithContext(ctx)
	for i, inc := range q.Include {
		rel, err := m.Relation(inc.Relation)
		if err != nil {
			return err
		}
		switch rel.Kind.(type) {
		case relql.ManyToOne:
			target, err := e.registry.Model(rel.Target)
			if err != nil {
				return err
			}
			objects := nested(records, rel.Name)
			g.Go(func() error {
				return e.load(gctx, target, inc.Query, objects)
			})
		case relql.OneToMany, relql.ManyToMany:
			g.Go(func() error {
				children, err := e.batch(gctx, m, rel, inc.Query, records)
				if err != nil {
					return fmt.Errorf("relation %q: %w", rel.Name, err)
				}
				results[i] = &fetched{relation: rel, children: children}
				return nil
			})
		default:
			return &relql.MisuseError{Model: m.Name, Relation: rel.Name, Reason: "unknown relation kind"}
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Parents are only written once every sibling has read its keys.
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := relql.Stitch(m, r.relation, records, r.children); err != nil {
			return err
		}
	}
	return nil
}

// batch fetches one batched relation for parents and loads the children's
// own includes.
func (e *Executor) batch(ctx context.Context, m *relql.Model, rel relql.Relation, q *relql.Query, parents []relql.Record) ([]relql.Record, error) {
	keys, err := relql.ParentKeys(e.registry, m, rel, parents)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 || keys[0].Rows() == 0 {
		return nil, nil
	}

	children, err := e.fetchBatch(ctx, m, rel, q, keys)
	if err != nil {
		return nil, err
	}

	target, err := e.registry.Model(rel.Target)
	if err != nil {
		return nil, err
	}
	items := children
	if k, ok := rel.Kind.(relql.ManyToMany); ok {
		items = nested(children, k.ThroughRelation)
	}
	if err := e.load(ctx, target, q, items); err != nil {
		return nil, err
	}
	return children, nil
}

// fetchBatch runs the lateral batch, or one statement per parent key when the
// dialect cannot render it.
func (e *Executor) fetchBatch(ctx context.Context, m *relql.Model, rel relql.Relation, q *relql.Query, keys []relql.BatchKey) ([]relql.Record, error) {
	plan, err := relql.BatchPlan(e.registry, e.preds, m, rel.Name, q, keys, relql.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	rows, err := e.run(ctx, plan)
	if err == nil {
		return relql.Decode(plan, rows), nil
	}
	if !errors.Is(err, relql.ErrUnsupported) || keys[0].Rows() == 1 {
		return nil, err
	}

	e.log.Debug().
		Str("dialect", e.renderer.Name()).
		Str("relation", rel.Name).
		Int("parents", keys[0].Rows()).
		Msg("lateral batch unsupported, fetching per parent")

	split := relql.SplitKeys(keys)
	parts := make([][]relql.Record, len(split))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, one := range split {
		g.Go(func() error {
			plan, err := relql.BatchPlan(e.registry, e.preds, m, rel.Name, q, one)
			if err != nil {
				return err
			}
			rows, err := e.run(gctx, plan)
			if err != nil {
				return err
			}
			parts[i] = relql.Decode(plan, rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []relql.Record
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func (e *Executor) run(ctx context.Context, plan *relql.Plan) ([]relql.Row, error) {
	result, err := e.renderer.Render(plan)
	if err != nil {
		return nil, err
	}
	e.log.Debug().
		Str("dialect", e.renderer.Name()).
		Str("model", plan.Table.Model).
		Str("sql", result.SQL).
		Int("params", len(result.Params)).
		Msg("executing statement")

	rows, err := e.querier.Query(ctx, result.SQL, result.Params...)
	if err != nil {
		return nil, fmt.Errorf("query on %q failed: %w", plan.Table.Model, err)
	}
	e.log.Trace().Str("model", plan.Table.Model).Int("rows", len(rows)).Msg("statement done")
	return rows, nil
}

// nested collects the non-nil objects stored under name.
func nested(records []relql.Record, name string) []relql.Record {
	out := make([]relql.Record, 0, len(records))
	for _, r := range records {
		if obj, ok := r[name].(relql.Record); ok && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}
