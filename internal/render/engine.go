package render

import (
	"fmt"

	"github.com/zoobzio/relql/internal/types"
)

// Dialect supplies the dialect-specific parts of a rendered plan. The engine
// owns statement structure; dialects own quoting, placeholders, pagination,
// locking and the shape of lateral batches.
type Dialect interface {
	types.Formatter

	Name() string
	Capabilities() Capabilities

	// Pagination renders LIMIT/OFFSET (or the dialect's equivalent). ordered
	// reports whether an ORDER BY clause precedes it.
	Pagination(limit, offset *int, ordered bool) types.Statement

	// Lock renders the row-locking clause for a supported mode.
	Lock(mode types.LockMode) types.Statement

	// BatchSource renders the synthetic keys table, aliased as alias.
	BatchSource(keys []types.BatchKey, alias string) types.Statement

	// Lateral renders the correlated join of inner, aliased as alias.
	Lateral(inner types.Statement, alias string) types.Statement
}

// Render converts a plan to a statement for the dialect.
func Render(d Dialect, plan *types.Plan) (types.Statement, error) {
	if plan == nil {
		return types.Statement{}, fmt.Errorf("cannot render nil plan")
	}
	if plan.Batch != nil {
		return renderBatch(d, plan)
	}
	return renderSelect(d, plan, types.Statement{})
}

// renderBatch renders a plan carrying a lateral batch. Dialects without
// lateral support can still render a single-key batch as a plain select
// correlated by value.
func renderBatch(d Dialect, p *types.Plan) (types.Statement, error) {
	b := p.Batch
	if len(b.Keys) == 0 {
		return types.Statement{}, fmt.Errorf("lateral batch on %q has no key columns", p.Table.Model)
	}
	rows := b.Rows()
	for _, k := range b.Keys {
		if k.Rows() != rows {
			return types.Statement{}, fmt.Errorf("lateral batch key %q has %d values, want %d", k.Column, k.Rows(), rows)
		}
	}

	if d.Capabilities().Lateral == LateralNone {
		if rows != 1 {
			return types.Statement{}, NewUnsupportedFeatureError(d.Name(), "LATERAL batch",
				"render one parent key per statement")
		}
		conds := make([]types.Statement, 0, len(b.Keys))
		for _, k := range b.Keys {
			conds = append(conds, types.Concat(
				types.Ident(p.Table.Alias, k.Column),
				types.Raw(" = "),
				types.Value(k.Values[0]),
			))
		}
		return renderSelect(d, p, types.JoinStatements(" AND ", conds))
	}

	conds := make([]types.Statement, 0, len(b.Keys))
	for _, k := range b.Keys {
		conds = append(conds, types.Concat(
			types.Ident(b.InnerAlias, k.Column),
			types.Raw(" = "),
			types.Ident(p.Table.Alias, k.Column),
		))
	}
	inner, err := renderSelect(d, p, types.JoinStatements(" AND ", conds))
	if err != nil {
		return types.Statement{}, err
	}

	return types.Concat(
		types.Raw("SELECT "),
		types.Ident(b.OuterAlias),
		types.Raw(".*"),
		types.Clause("FROM"),
		d.BatchSource(b.Keys, b.InnerAlias),
		d.Lateral(types.Nest(inner), b.OuterAlias),
	), nil
}

// renderSelect renders a plain plan. A non-empty correlation is conjoined
// with the plan's predicate.
func renderSelect(d Dialect, p *types.Plan, correlation types.Statement) (types.Statement, error) {
	if len(p.Columns) == 0 {
		return types.Statement{}, fmt.Errorf("plan for %q selects no columns", p.Table.Model)
	}
	if !d.Capabilities().SupportsLock(p.Lock) {
		return types.Statement{}, NewUnsupportedFeatureError(d.Name(), fmt.Sprintf("FOR %s", p.Lock))
	}

	cols := make([]types.Statement, 0, len(p.Columns))
	for _, c := range p.Columns {
		cols = append(cols, types.Concat(
			types.Ident(c.TableAlias, c.Name),
			types.Raw(" AS "),
			types.Ident(c.OutputAlias),
		))
	}

	sql := types.Concat(
		types.Raw("SELECT "),
		types.JoinStatements(", ", cols),
		types.Clause("FROM"),
		renderTable(p.Table),
	)

	for i := range p.Joins {
		join, err := renderJoin(d, &p.Joins[i])
		if err != nil {
			return types.Statement{}, err
		}
		sql = sql.Append(join)
	}

	switch {
	case !correlation.IsEmpty():
		where := p.Where
		if where.IsEmpty() {
			where = types.Raw("1=1")
		}
		sql = sql.Append(
			types.Clause("WHERE"),
			types.Raw("("), where, types.Raw(") AND ("), correlation, types.Raw(")"),
		)
	case !p.Where.IsEmpty():
		sql = sql.Append(types.Clause("WHERE"), p.Where)
	}

	if len(p.OrderBy) > 0 {
		terms := make([]types.Statement, 0, len(p.OrderBy))
		for _, o := range p.OrderBy {
			dir := o.Direction
			if dir == "" {
				dir = types.ASC
			}
			terms = append(terms, types.Concat(
				types.Ident(o.TableAlias, o.Column),
				types.Raw(" "+string(dir)),
			))
		}
		sql = sql.Append(types.Clause("ORDER BY"), types.JoinStatements(", ", terms))
	}

	sql = sql.Append(d.Pagination(p.Limit, p.Offset, len(p.OrderBy) > 0))

	if p.Lock != types.LockNone {
		sql = sql.Append(d.Lock(p.Lock))
	}

	return sql, nil
}

func renderTable(t types.TableRef) types.Statement {
	return types.Concat(
		types.Ident(t.Schema, t.Table),
		types.Raw(" AS "),
		types.Ident(t.Alias),
	)
}

func renderJoin(d Dialect, j *types.Join) (types.Statement, error) {
	if len(j.On) == 0 {
		return types.Statement{}, fmt.Errorf("join for relation %q has no column pairs", j.Relation)
	}

	var target types.Statement
	if j.Subquery != nil {
		sub, err := renderSelect(d, j.Subquery, types.Statement{})
		if err != nil {
			return types.Statement{}, fmt.Errorf("relation %q: %w", j.Relation, err)
		}
		target = types.Concat(
			types.Raw("("), types.Nest(sub), types.Raw(") AS "),
			types.Ident(j.Target.Alias),
		)
	} else {
		target = renderTable(j.Target)
	}

	conds := make([]types.Statement, 0, len(j.On)+1)
	for _, pair := range j.On {
		conds = append(conds, types.Concat(
			types.Ident(pair.Own.TableAlias, pair.Own.Column),
			types.Raw(" = "),
			types.Ident(pair.Target.TableAlias, pair.Target.Column),
		))
	}
	conds = append(conds, j.Extra)

	return types.Concat(
		types.Clause(string(j.Type)),
		target,
		types.Raw(" ON "),
		types.JoinStatements(" AND ", conds),
	), nil
}
