package types

// QueryResult contains the rendered SQL, its positional parameters and the
// statement it was built from.
type QueryResult struct {
	Statement Statement
	SQL       string
	Params    []any
	formatter Formatter
}

// NewQueryResult builds a result from a statement.
func NewQueryResult(s Statement, f Formatter) *QueryResult {
	sql, params := s.Build(f)
	return &QueryResult{
		Statement: s,
		SQL:       sql,
		Params:    params,
		formatter: f,
	}
}

// Pretty returns an indented rendering for diagnostics.
func (r *QueryResult) Pretty() string {
	return r.Statement.Pretty(r.formatter)
}
