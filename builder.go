package relql

import (
	"fmt"
	"slices"
)

// Builder provides a fluent API for constructing queries. The first error is
// kept and reported by Build.
type Builder struct {
	query *Query
	err   error
}

// NewQuery starts a new query builder.
func NewQuery() *Builder {
	return &Builder{query: &Query{}}
}

// GetError returns the first error recorded by the builder.
func (b *Builder) GetError() error {
	return b.err
}

// Select adds fields to select. Duplicates are ignored.
func (b *Builder) Select(fields ...string) *Builder {
	if b.err != nil {
		return b
	}
	for _, f := range fields {
		if f == "" {
			b.err = fmt.Errorf("Select() requires non-empty field names")
			return b
		}
		if !slices.Contains(b.query.Select, f) {
			b.query.Select = append(b.query.Select, f)
		}
	}
	return b
}

// Where sets or adds conditions.
func (b *Builder) Where(condition ConditionItem) *Builder {
	if b.err != nil {
		return b
	}
	if condition == nil {
		b.err = fmt.Errorf("Where() requires a condition")
		return b
	}

	if b.query.Where == nil {
		b.query.Where = condition
	} else {
		// If there's already a where clause, combine with AND
		b.query.Where = and(b.query.Where, condition)
	}
	return b
}

// WhereField is a convenience method for simple field conditions.
func (b *Builder) WhereField(field string, op Operator, value any) *Builder {
	return b.Where(C(field, op, value))
}

// Include adds a relation. sub may be nil to load the relation's fields with
// no filter.
func (b *Builder) Include(relation string, sub *Builder) *Builder {
	if b.err != nil {
		return b
	}
	if _, ok := b.query.included(relation); ok {
		b.err = fmt.Errorf("relation %q is already included", relation)
		return b
	}
	var q *Query
	if sub != nil {
		if sub.err != nil {
			b.err = fmt.Errorf("include %q: %w", relation, sub.err)
			return b
		}
		q = sub.query
	}
	b.query.Include = append(b.query.Include, Include{Relation: relation, Query: q})
	return b
}

// OrderBy adds ordering. path is a field or relation.field.
func (b *Builder) OrderBy(path string, direction Direction) *Builder {
	if b.err != nil {
		return b
	}
	b.query.OrderBy = append(b.query.OrderBy, Order{Path: path, Direction: direction})
	return b
}

// Limit sets the limit.
func (b *Builder) Limit(limit int) *Builder {
	if b.err != nil {
		return b
	}
	b.query.Limit = &limit
	return b
}

// Offset sets the offset.
func (b *Builder) Offset(offset int) *Builder {
	if b.err != nil {
		return b
	}
	b.query.Offset = &offset
	return b
}

// For sets the row-locking mode.
func (b *Builder) For(mode LockMode) *Builder {
	if b.err != nil {
		return b
	}
	b.query.For = mode
	return b
}

// Build returns the constructed query or an error.
func (b *Builder) Build() (*Query, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.query.Validate(); err != nil {
		return nil, err
	}
	return b.query, nil
}

// MustBuild returns the query or panics on error.
func (b *Builder) MustBuild() *Query {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}
