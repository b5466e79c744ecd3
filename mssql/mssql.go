// Package mssql provides the SQL Server dialect renderer for relql.
package mssql

import (
	"strconv"
	"strings"

	"github.com/zoobzio/relql/internal/render"
	"github.com/zoobzio/relql/internal/types"
)

// Renderer implements the SQL Server dialect renderer.
type Renderer struct{}

// New creates a new SQL Server renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render converts a plan to SQL Server SQL with @pN placeholders.
func (r *Renderer) Render(plan *types.Plan) (*types.QueryResult, error) {
	stmt, err := render.Render(r, plan)
	if err != nil {
		return nil, err
	}
	return types.NewQueryResult(stmt, r), nil
}

// Name returns the dialect name.
func (r *Renderer) Name() string {
	return "mssql"
}

// Capabilities returns the SQL Server feature set. Row locks are table hints
// in SQL Server and have no FOR clause.
func (r *Renderer) Capabilities() render.Capabilities {
	return render.Capabilities{
		Lateral:    render.LateralApply,
		RowLocking: render.RowLockingNone,
	}
}

// QuoteIdentifier quotes a SQL Server identifier with square brackets.
func (r *Renderer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Placeholder returns @pN as expected by go-mssqldb.
func (r *Renderer) Placeholder(index int) string {
	return "@p" + strconv.Itoa(index)
}

// Pagination renders OFFSET/FETCH. Both require ORDER BY, and ORDER BY inside
// a derived table requires OFFSET, so an ordered select always gets one.
func (r *Renderer) Pagination(limit, offset *int, ordered bool) types.Statement {
	var s types.Statement
	if limit == nil && offset == nil {
		if ordered {
			s = s.Append(types.Clause("OFFSET"), types.Raw("0 ROWS"))
		}
		return s
	}
	if !ordered {
		s = s.Append(types.Clause("ORDER BY"), types.Raw("(SELECT NULL)"))
	}
	s = s.Append(types.Clause("OFFSET"))
	if offset != nil {
		s = s.Append(types.Value(*offset))
	} else {
		s = s.Append(types.Raw("0"))
	}
	s = s.Append(types.Raw(" ROWS"))
	if limit != nil {
		s = s.Append(types.Clause("FETCH NEXT"), types.Value(*limit), types.Raw(" ROWS ONLY"))
	}
	return s
}

// Lock is never reached: Capabilities reports no row locking.
func (r *Renderer) Lock(types.LockMode) types.Statement {
	return types.Statement{}
}

// BatchSource renders the keys table as a VALUES list:
//
//	(VALUES (@p1), (@p2)) AS [c]([id])
func (r *Renderer) BatchSource(keys []types.BatchKey, alias string) types.Statement {
	rows := 0
	if len(keys) > 0 {
		rows = keys[0].Rows()
	}
	tuples := make([]types.Statement, 0, rows)
	for i := 0; i < rows; i++ {
		values := make([]types.Statement, 0, len(keys))
		for _, k := range keys {
			values = append(values, types.Value(k.Values[i]))
		}
		tuples = append(tuples, types.Concat(types.Raw("("), types.JoinStatements(", ", values), types.Raw(")")))
	}
	cols := make([]types.Statement, 0, len(keys))
	for _, k := range keys {
		cols = append(cols, types.Ident(k.Column))
	}
	return types.Concat(
		types.Raw("(VALUES "),
		types.JoinStatements(", ", tuples),
		types.Raw(") AS "),
		types.Ident(alias),
		types.Raw("("),
		types.JoinStatements(", ", cols),
		types.Raw(")"),
	)
}

// Lateral renders CROSS APPLY (inner) AS [alias].
func (r *Renderer) Lateral(inner types.Statement, alias string) types.Statement {
	return types.Concat(
		types.Clause("CROSS APPLY"),
		types.Raw("("),
		inner,
		types.Raw(") AS "),
		types.Ident(alias),
	)
}
