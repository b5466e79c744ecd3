// Package postgres provides the PostgreSQL dialect renderer for relql.
package postgres

import (
	"strconv"
	"strings"

	"github.com/zoobzio/relql/internal/render"
	"github.com/zoobzio/relql/internal/types"
)

// Renderer implements the PostgreSQL dialect renderer.
type Renderer struct{}

// New creates a new PostgreSQL renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render converts a plan to PostgreSQL SQL with $n placeholders.
func (r *Renderer) Render(plan *types.Plan) (*types.QueryResult, error) {
	stmt, err := render.Render(r, plan)
	if err != nil {
		return nil, err
	}
	return types.NewQueryResult(stmt, r), nil
}

// Name returns the dialect name.
func (r *Renderer) Name() string {
	return "PostgreSQL"
}

// Capabilities returns the PostgreSQL feature set.
func (r *Renderer) Capabilities() render.Capabilities {
	return render.Capabilities{
		Lateral:    render.LateralJoin,
		RowLocking: render.RowLockingFull,
	}
}

// QuoteIdentifier quotes a PostgreSQL identifier to handle reserved words and special characters.
func (r *Renderer) QuoteIdentifier(name string) string {
	// Escape any existing double quotes by doubling them
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// Placeholder returns the positional placeholder $index.
func (r *Renderer) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// Pagination renders LIMIT and OFFSET as bound parameters.
func (r *Renderer) Pagination(limit, offset *int, _ bool) types.Statement {
	var s types.Statement
	if limit != nil {
		s = s.Append(types.Clause("LIMIT"), types.Value(*limit))
	}
	if offset != nil {
		s = s.Append(types.Clause("OFFSET"), types.Value(*offset))
	}
	return s
}

// Lock renders FOR UPDATE, FOR NO KEY UPDATE, FOR SHARE or FOR KEY SHARE.
func (r *Renderer) Lock(mode types.LockMode) types.Statement {
	return types.Raw(" FOR " + strings.ToUpper(string(mode)))
}

// BatchSource renders the keys table as one UNNEST per key column:
//
//	(SELECT UNNEST(ARRAY[$1,$2]::int[]) AS "id") AS "c"
func (r *Renderer) BatchSource(keys []types.BatchKey, alias string) types.Statement {
	cols := make([]types.Statement, 0, len(keys))
	for _, k := range keys {
		values := make([]types.Statement, 0, len(k.Values))
		for _, v := range k.Values {
			values = append(values, types.Value(v))
		}
		cols = append(cols, types.Concat(
			types.Raw("UNNEST(ARRAY["),
			types.JoinStatements(",", values),
			types.Raw("]::"+k.Type+"[]) AS "),
			types.Ident(k.Column),
		))
	}
	return types.Concat(
		types.Raw("(SELECT "),
		types.JoinStatements(", ", cols),
		types.Raw(") AS "),
		types.Ident(alias),
	)
}

// Lateral renders JOIN LATERAL (inner) "alias" ON TRUE.
func (r *Renderer) Lateral(inner types.Statement, alias string) types.Statement {
	return types.Concat(
		types.Clause("JOIN LATERAL"),
		types.Raw("("),
		inner,
		types.Raw(") "),
		types.Ident(alias),
		types.Raw(" ON TRUE"),
	)
}
