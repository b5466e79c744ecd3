package types

import (
	"fmt"
	"strings"
)

// Direction represents sort direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// JoinType represents the type of SQL join.
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT JOIN"
)

// LockMode is a row-locking mode, rendered as FOR <mode>.
type LockMode string

const (
	LockNone        LockMode = ""
	LockUpdate      LockMode = "update"
	LockNoKeyUpdate LockMode = "no key update"
	LockShare       LockMode = "share"
	LockKeyShare    LockMode = "key share"
)

// ParseLockMode validates a lock mode string.
func ParseLockMode(s string) (LockMode, error) {
	switch m := LockMode(strings.ToLower(strings.TrimSpace(s))); m {
	case LockNone, LockUpdate, LockNoKeyUpdate, LockShare, LockKeyShare:
		return m, nil
	default:
		return LockNone, fmt.Errorf("invalid lock mode %q: want update, no key update, share or key share", s)
	}
}

// TableRef is one table occurrence in a plan.
type TableRef struct {
	Schema string
	Table  string
	Alias  string
	Model  string
}

// Column is a selected column. Path is the relation path from the plan root
// and decides where the value lands in the decoded record.
type Column struct {
	TableAlias  string
	Name        string
	Field       string
	OutputAlias string
	Path        []string
	// Hidden columns are projected for ordering only and never decoded.
	Hidden bool
}

// ColumnRef is a column qualified by a table alias.
type ColumnRef struct {
	TableAlias string
	Column     string
}

// ColumnPair is one equality of a (possibly composite) join condition.
type ColumnPair struct {
	Own    ColumnRef
	Target ColumnRef
}

// Join is a many-to-one join. When Subquery is set the target is a derived
// table and Target.Alias is the derived alias.
type Join struct {
	Subquery *Plan
	Extra    Statement
	Type     JoinType
	Relation string
	Target   TableRef
	Path     []string
	On       []ColumnPair
}

// OrderTerm is one resolved ORDER BY entry.
type OrderTerm struct {
	TableAlias string
	Column     string
	Direction  Direction
}

// BatchKey is one column of the synthetic keys table of a lateral batch.
type BatchKey struct {
	Column string
	Type   string
	Values []any
}

// Rows returns the number of key tuples in the batch.
func (k BatchKey) Rows() int {
	return len(k.Values)
}

// LateralBatch describes a keys table correlated to the plan through LATERAL.
type LateralBatch struct {
	OuterAlias string
	InnerAlias string
	Keys       []BatchKey
}

// Rows returns the number of key tuples in the batch.
func (b *LateralBatch) Rows() int {
	if len(b.Keys) == 0 {
		return 0
	}
	return b.Keys[0].Rows()
}

// Plan describes one SELECT before rendering.
//
//nolint:govet // fieldalignment: Logical grouping is preferred over memory optimization
type Plan struct {
	Table     TableRef
	Columns   []Column
	Joins     []Join
	Where     Statement
	OrderBy   []OrderTerm
	Limit     *int
	Offset    *int
	Lock      LockMode
	Batch     *LateralBatch
	NextAlias int
}

// VisibleColumns returns the columns that are decoded into records.
func (p *Plan) VisibleColumns() []Column {
	out := make([]Column, 0, len(p.Columns))
	for _, c := range p.Columns {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// FindColumn returns the selected column for alias.column, if any.
func (p *Plan) FindColumn(alias, column string) (Column, bool) {
	for _, c := range p.Columns {
		if c.TableAlias == alias && c.Name == column {
			return c, true
		}
	}
	return Column{}, false
}

// Alias converts an alias index to its short name: 0 -> a, 25 -> z, 26 -> aa.
func Alias(i int) string {
	if i < 0 {
		panic(fmt.Sprintf("negative alias index %d", i))
	}
	var buf []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('a' + (n-1)%26)}, buf...)
	}
	return string(buf)
}

// OutputAlias names the i-th column selected from a table alias.
func OutputAlias(tableAlias string, i int) string {
	return fmt.Sprintf("%s_%d", tableAlias, i)
}
