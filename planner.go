package relql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zoobzio/relql/internal/types"
)

// Option configures BuildPlan, BuildBatch and BatchPlan.
type Option func(*planOptions)

type planOptions struct {
	logger zerolog.Logger
}

// WithLogger logs plan construction at debug and trace level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *planOptions) {
		o.logger = logger
	}
}

func newPlanOptions(opts []Option) planOptions {
	o := planOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildPlan expands q against model into a plan tree.
//
// Many-to-one includes, and relations named by relation.field order paths,
// are joined into the plan. One-to-many and many-to-many includes are left
// for BuildBatch; their own fields are selected so the batch can be keyed.
// When keys is non-empty the plan carries a lateral batch correlating it
// with those parent key values.
//
// Table aliases are allocated from startAlias upward; the first unused index
// is returned in Plan.NextAlias. path prefixes the Path of every column.
func BuildPlan(reg Registry, preds PredicateCompiler, model string, q *Query, keys []BatchKey, path []string, startAlias int, opts ...Option) (*Plan, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if preds == nil {
		preds = Predicates{}
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("query for %q: %w", model, err)
	}

	o := newPlanOptions(opts)
	b := &planner{reg: reg, preds: preds, log: o.logger}

	plan, err := b.build(model, q, keys, slices.Clone(path), startAlias)
	if err != nil {
		return nil, err
	}
	if q != nil {
		plan.Lock = q.For
	}

	o.logger.Debug().
		Str("model", model).
		Str("alias", plan.Table.Alias).
		Int("columns", len(plan.Columns)).
		Int("joins", len(plan.Joins)).
		Bool("batch", plan.Batch != nil).
		Int("next_alias", plan.NextAlias).
		Msg("plan built")
	return plan, nil
}

type planner struct {
	reg   Registry
	preds PredicateCompiler
	log   zerolog.Logger
}

// branch is a many-to-one relation joined into the plan being built.
type branch struct {
	query     *Query
	relation  Relation
	orderOnly bool
}

// joined records where a branch's columns can be read from the parent.
type joined struct {
	derived *Plan // set when the branch is a derived table
	alias   string
}

func (b *planner) build(modelName string, q *Query, keys []BatchKey, path []string, next int) (*Plan, error) {
	m, err := b.reg.Model(modelName)
	if err != nil {
		return nil, err
	}
	if q == nil {
		q = &Query{}
	}

	table := TableRef{
		Schema: m.Schema,
		Table:  m.Table,
		Alias:  types.Alias(next),
		Model:  m.Name,
	}
	next++

	fields, err := selectedFields(m, q, keys)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Table:   table,
		Columns: make([]Column, 0, len(fields)),
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	for i, f := range fields {
		plan.Columns = append(plan.Columns, Column{
			TableAlias:  table.Alias,
			Name:        f.Column,
			Field:       f.Name,
			OutputAlias: types.OutputAlias(table.Alias, i),
			Path:        path,
		})
	}

	plan.Where, err = b.preds.Compile(m, table, q.Where)
	if err != nil {
		return nil, fmt.Errorf("where on %q: %w", m.Name, err)
	}

	branches, err := collectBranches(m, q)
	if err != nil {
		return nil, err
	}

	var branchOrder []OrderTerm
	targets := make(map[string]joined, len(branches))
	for _, br := range branches {
		childPath := append(slices.Clone(path), br.relation.Name)
		sub, order, j, err := b.join(m, table, br, childPath, next)
		if err != nil {
			return nil, err
		}
		next = sub.NextAlias
		branchOrder = append(branchOrder, order...)

		if j.Subquery != nil {
			for _, c := range j.Subquery.Columns {
				if c.Hidden {
					continue
				}
				plan.Columns = append(plan.Columns, Column{
					TableAlias:  j.Target.Alias,
					Name:        c.OutputAlias,
					Field:       c.Field,
					OutputAlias: c.OutputAlias,
					Path:        c.Path,
				})
			}
			plan.Joins = append(plan.Joins, j)
			targets[br.relation.Name] = joined{alias: j.Target.Alias, derived: j.Subquery}
		} else {
			if !br.orderOnly {
				plan.Columns = append(plan.Columns, sub.Columns...)
			}
			plan.Joins = append(plan.Joins, j)
			plan.Joins = append(plan.Joins, sub.Joins...)
			targets[br.relation.Name] = joined{alias: sub.Table.Alias}
		}
		mergeLimits(plan, sub.Limit, sub.Offset)
	}

	own, err := b.resolveOrder(m, table, q, targets)
	if err != nil {
		return nil, err
	}
	plan.OrderBy = append(own, branchOrder...)

	if len(keys) > 0 {
		plan.Batch = &LateralBatch{
			InnerAlias: types.Alias(next),
			OuterAlias: types.Alias(next + 1),
			Keys:       keys,
		}
		next += 2
	}
	plan.NextAlias = next
	return plan, nil
}

// join builds a many-to-one branch and the join that attaches it. It returns
// the branch plan (with its alias counter), the order terms it contributes
// and the join. A LEFT join whose branch has joins of its own is wrapped in a
// derived table so the nested joins cannot turn it into an inner join.
func (b *planner) join(m *Model, table TableRef, br branch, path []string, next int) (*Plan, []OrderTerm, Join, error) {
	rel := br.relation
	target, err := b.reg.Model(rel.Target)
	if err != nil {
		return nil, nil, Join{}, fmt.Errorf("relation %q on model %q: %w", rel.Name, m.Name, err)
	}

	q := br.query
	if q == nil {
		q = &Query{}
	}
	sub, err := b.build(target.Name, withSelected(q, rel.References), nil, path, next)
	if err != nil {
		return nil, nil, Join{}, err
	}

	joinType := LeftJoin
	if !rel.Optional || q.Where != nil {
		joinType = InnerJoin
	}

	relWhere, err := b.preds.Compile(target, sub.Table, rel.Where)
	if err != nil {
		return nil, nil, Join{}, fmt.Errorf("relation %q on model %q: %w", rel.Name, m.Name, err)
	}

	j := Join{
		Type:     joinType,
		Relation: rel.Name,
		Path:     path,
		Target:   sub.Table,
	}

	if joinType == LeftJoin && len(sub.Joins) > 0 {
		b.log.Trace().Str("model", m.Name).Str("relation", rel.Name).Msg("wrapping optional relation in derived table")
		return b.wrap(m, target, table, rel, sub, relWhere, j)
	}

	for i, own := range rel.Fields {
		of, err := m.Field(own)
		if err != nil {
			return nil, nil, Join{}, err
		}
		tf, err := target.Field(rel.References[i])
		if err != nil {
			return nil, nil, Join{}, err
		}
		j.On = append(j.On, ColumnPair{
			Own:    ColumnRef{TableAlias: table.Alias, Column: of.Column},
			Target: ColumnRef{TableAlias: sub.Table.Alias, Column: tf.Column},
		})
	}
	j.Extra = types.JoinStatements(" AND ", []Statement{relWhere, sub.Where})
	return sub, sub.OrderBy, j, nil
}

// wrap turns a branch plan into a derived table. The join condition and every
// order term read the derived table's output aliases.
func (b *planner) wrap(m, target *Model, table TableRef, rel Relation, sub *Plan, relWhere Statement, j Join) (*Plan, []OrderTerm, Join, error) {
	inner := *sub
	inner.Columns = slices.Clone(sub.Columns)
	inner.Where = types.JoinStatements(" AND ", []Statement{sub.Where, relWhere})
	inner.Limit, inner.Offset = nil, nil
	inner.OrderBy = nil
	inner.Lock = LockNone

	derived := sub.Table.Alias + "_subq"
	j.Target.Alias = derived

	for i, own := range rel.Fields {
		of, err := m.Field(own)
		if err != nil {
			return nil, nil, Join{}, err
		}
		tf, err := target.Field(rel.References[i])
		if err != nil {
			return nil, nil, Join{}, err
		}
		col, ok := inner.FindColumn(inner.Table.Alias, tf.Column)
		if !ok {
			return nil, nil, Join{}, &StructuralError{
				Model:  m.Name,
				Reason: fmt.Sprintf("join key column not found in select for relation %q", rel.Name),
			}
		}
		j.On = append(j.On, ColumnPair{
			Own:    ColumnRef{TableAlias: table.Alias, Column: of.Column},
			Target: ColumnRef{TableAlias: derived, Column: col.OutputAlias},
		})
	}

	order := make([]OrderTerm, 0, len(sub.OrderBy))
	for _, t := range sub.OrderBy {
		order = append(order, OrderTerm{
			TableAlias: derived,
			Column:     expose(&inner, t.TableAlias, t.Column),
			Direction:  t.Direction,
		})
	}

	j.Subquery = &inner
	// The parent merges the branch pagination; the derived table keeps none.
	out := inner
	out.Limit, out.Offset = sub.Limit, sub.Offset
	return &out, order, j, nil
}

// resolveOrder resolves the query's own ORDER BY entries. relation.field
// entries read from the joined branch, or from the owner's own column when
// field is the target side of the relation's join pair and no join exists.
func (b *planner) resolveOrder(m *Model, table TableRef, q *Query, targets map[string]joined) ([]OrderTerm, error) {
	out := make([]OrderTerm, 0, len(q.OrderBy))
	for _, o := range q.OrderBy {
		dir := o.Direction
		if dir == "" {
			dir = ASC
		}
		relName, fieldName, err := splitOrderPath(m, o.Path)
		if err != nil {
			return nil, err
		}

		if relName == "" {
			f, err := m.Field(fieldName)
			if err != nil {
				return nil, err
			}
			out = append(out, OrderTerm{TableAlias: table.Alias, Column: f.Column, Direction: dir})
			continue
		}

		rel, err := m.Relation(relName)
		if err != nil {
			return nil, err
		}
		jt, ok := targets[relName]
		if !ok {
			f, err := ownReference(m, rel, fieldName)
			if err != nil {
				return nil, err
			}
			out = append(out, OrderTerm{TableAlias: table.Alias, Column: f.Column, Direction: dir})
			continue
		}

		target, err := b.reg.Model(rel.Target)
		if err != nil {
			return nil, err
		}
		f, err := target.Field(fieldName)
		if err != nil {
			return nil, err
		}
		if jt.derived != nil {
			out = append(out, OrderTerm{
				TableAlias: jt.alias,
				Column:     expose(jt.derived, jt.derived.Table.Alias, f.Column),
				Direction:  dir,
			})
			continue
		}
		out = append(out, OrderTerm{TableAlias: jt.alias, Column: f.Column, Direction: dir})
	}
	return out, nil
}

// collectBranches lists the many-to-one relations to join: explicit includes
// first, in include order, then relations only named by order paths.
func collectBranches(m *Model, q *Query) ([]branch, error) {
	var out []branch
	has := func(name string) bool {
		return slices.ContainsFunc(out, func(br branch) bool { return br.relation.Name == name })
	}

	for _, inc := range q.Include {
		rel, err := m.Relation(inc.Relation)
		if err != nil {
			return nil, err
		}
		switch rel.Kind.(type) {
		case types.ManyToOne:
			out = append(out, branch{relation: rel, query: inc.Query})
		case types.OneToMany, types.ManyToMany:
			// fetched by BuildBatch
		default:
			return nil, misuse(m, rel, "unknown relation kind")
		}
	}

	for _, o := range q.OrderBy {
		relName, fieldName, err := splitOrderPath(m, o.Path)
		if err != nil {
			return nil, err
		}
		if relName == "" || has(relName) {
			continue
		}
		rel, err := m.Relation(relName)
		if err != nil {
			return nil, err
		}
		switch rel.Kind.(type) {
		case types.ManyToOne:
		case types.OneToMany, types.ManyToMany:
			return nil, &StructuralError{
				Model:  m.Name,
				Reason: fmt.Sprintf("order path %q goes through %s relation %q", o.Path, rel.Kind, relName),
			}
		default:
			return nil, misuse(m, rel, "unknown relation kind")
		}
		if _, err := ownReference(m, rel, fieldName); err == nil {
			continue
		}
		out = append(out, branch{
			relation:  rel,
			query:     &Query{Select: []string{fieldName}},
			orderOnly: true,
		})
	}
	return out, nil
}

// selectedFields is the ordered union of the requested fields (all fields
// when none are requested), the primary key, the owner side of batched
// relations and the columns correlated by keys.
func selectedFields(m *Model, q *Query, keys []BatchKey) ([]Field, error) {
	var names []string
	add := func(name string) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	if len(q.Select) == 0 {
		for _, f := range m.Fields {
			add(f.Name)
		}
	}
	for _, name := range q.Select {
		add(name)
	}
	for _, pk := range m.PrimaryKey {
		add(pk)
	}
	for _, inc := range q.Include {
		rel, err := m.Relation(inc.Relation)
		if err != nil {
			return nil, err
		}
		switch rel.Kind.(type) {
		case types.ManyToOne:
		case types.OneToMany, types.ManyToMany:
			for _, f := range rel.Fields {
				add(f)
			}
		default:
			return nil, misuse(m, rel, "unknown relation kind")
		}
	}
	for _, k := range keys {
		f, err := fieldByColumn(m, k.Column)
		if err != nil {
			return nil, err
		}
		add(f.Name)
	}

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f, err := m.Field(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// mergeLimits folds an N:1 branch's pagination into its parent: the smallest
// limit and the largest offset win. Only batched many-to-many fetches put
// pagination on an N:1 branch (through the join model's relation to the
// target); it is not a general pagination rule.
func mergeLimits(p *Plan, limit, offset *int) {
	if limit != nil && (p.Limit == nil || *limit < *p.Limit) {
		v := *limit
		p.Limit = &v
	}
	if offset != nil && (p.Offset == nil || *offset > *p.Offset) {
		v := *offset
		p.Offset = &v
	}
}

// expose returns the output alias of alias.column in p, adding a hidden
// column when it is not selected.
func expose(p *Plan, alias, column string) string {
	if c, ok := p.FindColumn(alias, column); ok {
		return c.OutputAlias
	}
	n := 0
	for _, c := range p.Columns {
		if c.TableAlias == alias {
			n++
		}
	}
	out := types.OutputAlias(alias, n)
	p.Columns = append(p.Columns, Column{
		TableAlias:  alias,
		Name:        column,
		OutputAlias: out,
		Hidden:      true,
	})
	return out
}

// withSelected returns q with fields added to an explicit selection.
func withSelected(q *Query, fields []string) *Query {
	if len(q.Select) == 0 {
		return q
	}
	out := *q
	out.Select = slices.Clone(q.Select)
	for _, f := range fields {
		if !slices.Contains(out.Select, f) {
			out.Select = append(out.Select, f)
		}
	}
	return &out
}

// splitOrderPath splits "field" or "relation.field".
func splitOrderPath(m *Model, path string) (relation, field string, err error) {
	parts := strings.Split(path, ".")
	switch len(parts) {
	case 1:
		return "", parts[0], nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", &StructuralError{
			Model:  m.Name,
			Reason: fmt.Sprintf("order path %q is deeper than one relation", path),
		}
	}
}

// ownReference maps a target-side join field of a many-to-one relation to
// the owner field holding the same value.
func ownReference(m *Model, rel Relation, targetField string) (Field, error) {
	if _, ok := rel.Kind.(types.ManyToOne); ok {
		for i, ref := range rel.References {
			if ref == targetField {
				return m.Field(rel.Fields[i])
			}
		}
	}
	return Field{}, &StructuralError{
		Model:  m.Name,
		Reason: fmt.Sprintf("order path %s.%s needs a join to relation %q", rel.Name, targetField, rel.Name),
	}
}

func fieldByColumn(m *Model, column string) (Field, error) {
	for _, f := range m.Fields {
		if f.Column == column {
			return f, nil
		}
	}
	return Field{}, &UnknownFieldError{Model: m.Name, Field: column}
}

func misuse(m *Model, rel Relation, reason string) error {
	return &MisuseError{Model: m.Name, Relation: rel.Name, Kind: kindName(rel.Kind), Reason: reason}
}
