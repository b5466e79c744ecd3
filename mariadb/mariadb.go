// Package mariadb provides the MariaDB/MySQL dialect renderer for relql.
package mariadb

import (
	"strings"

	"github.com/zoobzio/relql/internal/render"
	"github.com/zoobzio/relql/internal/types"
)

// maxRows is the documented MariaDB idiom for OFFSET without LIMIT.
const maxRows = "18446744073709551615"

// Renderer implements the MariaDB dialect renderer.
type Renderer struct{}

// New creates a new MariaDB renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render converts a plan to MariaDB SQL with ? placeholders.
func (r *Renderer) Render(plan *types.Plan) (*types.QueryResult, error) {
	stmt, err := render.Render(r, plan)
	if err != nil {
		return nil, err
	}
	return types.NewQueryResult(stmt, r), nil
}

// Name returns the dialect name.
func (r *Renderer) Name() string {
	return "MariaDB"
}

// Capabilities returns the MariaDB feature set.
func (r *Renderer) Capabilities() render.Capabilities {
	return render.Capabilities{
		Lateral:    render.LateralNone,
		RowLocking: render.RowLockingBasic,
	}
}

// QuoteIdentifier quotes an identifier with backticks.
func (r *Renderer) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Placeholder returns ?.
func (r *Renderer) Placeholder(int) string {
	return "?"
}

// Pagination renders LIMIT/OFFSET.
func (r *Renderer) Pagination(limit, offset *int, _ bool) types.Statement {
	var s types.Statement
	switch {
	case limit != nil:
		s = s.Append(types.Clause("LIMIT"), types.Value(*limit))
	case offset != nil:
		s = s.Append(types.Clause("LIMIT"), types.Raw(maxRows))
	}
	if offset != nil {
		s = s.Append(types.Clause("OFFSET"), types.Value(*offset))
	}
	return s
}

// Lock renders FOR UPDATE or LOCK IN SHARE MODE.
func (r *Renderer) Lock(mode types.LockMode) types.Statement {
	if mode == types.LockShare {
		return types.Raw(" LOCK IN SHARE MODE")
	}
	return types.Raw(" FOR UPDATE")
}

// BatchSource is never reached: Capabilities reports no lateral support.
func (r *Renderer) BatchSource([]types.BatchKey, string) types.Statement {
	return types.Statement{}
}

// Lateral is never reached: Capabilities reports no lateral support.
func (r *Renderer) Lateral(types.Statement, string) types.Statement {
	return types.Statement{}
}
