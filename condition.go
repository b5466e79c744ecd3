package relql

import (
	"fmt"

	"github.com/zoobzio/relql/internal/types"
)

// and creates an AND condition group (internal helper for builder).
func and(conditions ...ConditionItem) ConditionGroup {
	return ConditionGroup{
		Logic:      types.AND,
		Conditions: conditions,
	}
}

// TryC creates a simple condition, returning an error if invalid.
func TryC(field string, op Operator, v any) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("condition requires a field name")
	}
	switch op {
	case EQ, NE, GT, GE, LT, LE, IN, NotIn, LIKE, NotLike, ILIKE, IsNull, IsNotNull:
	default:
		return Condition{}, fmt.Errorf("unsupported operator %q", op)
	}
	return Condition{
		Field:    field,
		Operator: op,
		Value:    v,
	}, nil
}

// C creates a simple condition.
func C(field string, op Operator, v any) Condition {
	c, err := TryC(field, op, v)
	if err != nil {
		panic(err)
	}
	return c
}

// Eq creates a field = value condition.
func Eq(field string, v any) Condition {
	return C(field, EQ, v)
}

// In creates a field IN (values) condition.
func In(field string, values ...any) Condition {
	return C(field, IN, values)
}

// Null creates an IS NULL condition.
func Null(field string) Condition {
	return C(field, IsNull, nil)
}

// NotNull creates an IS NOT NULL condition.
func NotNull(field string) Condition {
	return C(field, IsNotNull, nil)
}

// TryAnd creates a ConditionGroup with AND logic, returning an error if invalid.
func TryAnd(conditions ...ConditionItem) (ConditionGroup, error) {
	if len(conditions) == 0 {
		return ConditionGroup{}, fmt.Errorf("AND requires at least one condition")
	}
	return and(conditions...), nil
}

// And creates a ConditionGroup with AND logic.
func And(conditions ...ConditionItem) ConditionGroup {
	g, err := TryAnd(conditions...)
	if err != nil {
		panic(err)
	}
	return g
}

// TryOr creates a ConditionGroup with OR logic, returning an error if invalid.
func TryOr(conditions ...ConditionItem) (ConditionGroup, error) {
	if len(conditions) == 0 {
		return ConditionGroup{}, fmt.Errorf("OR requires at least one condition")
	}
	return ConditionGroup{
		Logic:      types.OR,
		Conditions: conditions,
	}, nil
}

// Or creates a ConditionGroup with OR logic.
func Or(conditions ...ConditionItem) ConditionGroup {
	g, err := TryOr(conditions...)
	if err != nil {
		panic(err)
	}
	return g
}

// Not negates a condition item.
func Not(item ConditionItem) NotCondition {
	return NotCondition{Item: item}
}
