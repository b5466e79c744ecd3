// Package sqlite provides the SQLite dialect renderer for relql.
//
// SQLite has no LATERAL joins and no row locking. Lateral batches render only
// when they carry a single key row, as a select correlated by value.
package sqlite

import (
	"strings"

	"github.com/zoobzio/relql/internal/render"
	"github.com/zoobzio/relql/internal/types"
)

// Renderer implements the SQLite dialect renderer.
type Renderer struct{}

// New creates a new SQLite renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render converts a plan to SQLite SQL with ? placeholders.
func (r *Renderer) Render(plan *types.Plan) (*types.QueryResult, error) {
	stmt, err := render.Render(r, plan)
	if err != nil {
		return nil, err
	}
	return types.NewQueryResult(stmt, r), nil
}

// Name returns the dialect name.
func (r *Renderer) Name() string {
	return "SQLite"
}

// Capabilities returns the SQLite feature set.
func (r *Renderer) Capabilities() render.Capabilities {
	return render.Capabilities{
		Lateral:    render.LateralNone,
		RowLocking: render.RowLockingNone,
	}
}

// QuoteIdentifier quotes an identifier with double quotes.
func (r *Renderer) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns ?.
func (r *Renderer) Placeholder(int) string {
	return "?"
}

// Pagination renders LIMIT/OFFSET. SQLite rejects OFFSET without LIMIT, so a
// lone offset gets LIMIT -1.
func (r *Renderer) Pagination(limit, offset *int, _ bool) types.Statement {
	var s types.Statement
	switch {
	case limit != nil:
		s = s.Append(types.Clause("LIMIT"), types.Value(*limit))
	case offset != nil:
		s = s.Append(types.Clause("LIMIT"), types.Raw("-1"))
	}
	if offset != nil {
		s = s.Append(types.Clause("OFFSET"), types.Value(*offset))
	}
	return s
}

// Lock is never reached: Capabilities reports no row locking.
func (r *Renderer) Lock(types.LockMode) types.Statement {
	return types.Statement{}
}

// BatchSource is never reached: Capabilities reports no lateral support.
func (r *Renderer) BatchSource([]types.BatchKey, string) types.Statement {
	return types.Statement{}
}

// Lateral is never reached: Capabilities reports no lateral support.
func (r *Renderer) Lateral(types.Statement, string) types.Statement {
	return types.Statement{}
}
