// Package relql compiles nested relational queries into SQL plans and folds
// the flat result rows back into nested records.
//
// A Query names the fields to select, a filter, the relations to include,
// ordering, pagination and an optional row lock. BuildPlan expands it against
// a Registry into a Plan: many-to-one relations are joined inline, while
// one-to-many and many-to-many relations are fetched afterwards by lateral
// batches keyed by the parent rows.
//
// # Basic Usage
//
//	schema, err := relql.LoadSchema("models.yaml")
//	if err != nil {
//		return err
//	}
//
//	q := relql.NewQuery().
//		Select("id", "title").
//		Include("author", relql.NewQuery().Select("name")).
//		OrderBy("author.name", relql.ASC).
//		Limit(10).
//		MustBuild()
//
//	plan, err := relql.BuildPlan(schema, relql.Predicates{}, "post", q, nil, nil, 0)
//	result, err := postgres.New().Render(plan)
//	// result.SQL: SELECT "a"."id" AS "a_0", ... LEFT JOIN "public"."users" AS "b" ON ...
//	// result.Params: []any{10}
//
// # Relations
//
// Included one-to-many and many-to-many relations are not part of the root
// plan. For each of them BuildBatch produces a plan whose keys table holds the
// parent key values, rendered as a LATERAL join so every parent gets its own
// ordered and paginated slice of children. Decode and Stitch fold the rows
// back into records; the executor package drives the whole sequence.
//
// # Multi-Provider Support
//
// Plans render through dialect packages: postgres, mssql, mariadb and sqlite.
// Dialects without LATERAL support render batches one parent key at a time.
package relql

import "github.com/zoobzio/relql/internal/types"

// Plan describes one SELECT before rendering.
type Plan = types.Plan

// TableRef is one table occurrence in a plan.
type TableRef = types.TableRef

// Column is a selected column of a plan.
type Column = types.Column

// Join is a many-to-one join of a plan.
type Join = types.Join

// ColumnRef is a column qualified by a table alias.
type ColumnRef = types.ColumnRef

// ColumnPair is one equality of a join condition.
type ColumnPair = types.ColumnPair

// OrderTerm is one resolved ORDER BY entry.
type OrderTerm = types.OrderTerm

// BatchKey is one key column of a lateral batch.
type BatchKey = types.BatchKey

// LateralBatch describes the keys table of a batched relation fetch.
type LateralBatch = types.LateralBatch

// Statement is an injection-safe SQL fragment.
type Statement = types.Statement

// Formatter supplies dialect quoting and placeholders to a Statement.
type Formatter = types.Formatter

// QueryResult contains the rendered SQL and positional parameters.
type QueryResult = types.QueryResult

// Model is the metadata of one entity.
type Model = types.Model

// Field maps a model field to a column.
type Field = types.Field

// Relation is a normalized relation between two models.
type Relation = types.Relation

// RelationKind is the closed set of relation cardinalities.
type RelationKind = types.RelationKind

// Relation kinds.
type (
	ManyToOne  = types.ManyToOne
	OneToMany  = types.OneToMany
	ManyToMany = types.ManyToMany
)

// JoinType represents the type of SQL join.
type JoinType = types.JoinType

// Re-export join type constants for public API.
const (
	InnerJoin = types.InnerJoin
	LeftJoin  = types.LeftJoin
)

// Direction represents sort direction.
type Direction = types.Direction

// Re-export direction constants for public API.
const (
	ASC  = types.ASC
	DESC = types.DESC
)

// LockMode is a row-locking mode.
type LockMode = types.LockMode

// Re-export lock mode constants for public API.
const (
	LockNone        = types.LockNone
	LockUpdate      = types.LockUpdate
	LockNoKeyUpdate = types.LockNoKeyUpdate
	LockShare       = types.LockShare
	LockKeyShare    = types.LockKeyShare
)

// Operator represents SQL comparison operators.
type Operator = types.Operator

// Re-export operator constants for public API.
const (
	EQ        = types.EQ
	NE        = types.NE
	GT        = types.GT
	GE        = types.GE
	LT        = types.LT
	LE        = types.LE
	IN        = types.IN
	NotIn     = types.NotIn
	LIKE      = types.LIKE
	NotLike   = types.NotLike
	ILIKE     = types.ILIKE
	IsNull    = types.IsNull
	IsNotNull = types.IsNotNull
)

// ConditionItem represents either a single condition or a group of conditions.
type ConditionItem = types.ConditionItem

// Condition compares a field with a bound value.
type Condition = types.Condition

// ConditionGroup combines conditions with AND/OR.
type ConditionGroup = types.ConditionGroup

// NotCondition negates a condition item.
type NotCondition = types.NotCondition

// Statement constructors.
var (
	Raw    = types.Raw
	Ident  = types.Ident
	Value  = types.Value
	Concat = types.Concat
)

// Alias converts an alias index to its short table alias name.
func Alias(i int) string {
	return types.Alias(i)
}
