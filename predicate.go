package relql

import (
	"fmt"
	"reflect"

	"github.com/zoobzio/relql/internal/types"
)

// PredicateCompiler compiles a filter scoped to one table occurrence into a
// boolean SQL fragment. An empty statement means no filter.
type PredicateCompiler interface {
	Compile(model *Model, table TableRef, where ConditionItem) (Statement, error)
}

// Predicates is the default PredicateCompiler. Its output uses only portable
// SQL, so it renders on every dialect.
type Predicates struct{}

// Compile implements PredicateCompiler.
func (Predicates) Compile(model *Model, table TableRef, where ConditionItem) (Statement, error) {
	if where == nil {
		return Statement{}, nil
	}
	return compileItem(model, table, where, false)
}

func compileItem(m *Model, t TableRef, item ConditionItem, nested bool) (Statement, error) {
	switch c := item.(type) {
	case Condition:
		return compileCondition(m, t, c)
	case *Condition:
		return compileCondition(m, t, *c)
	case ConditionGroup:
		return compileGroup(m, t, c, nested)
	case *ConditionGroup:
		return compileGroup(m, t, *c, nested)
	case NotCondition:
		return compileNot(m, t, c)
	case *NotCondition:
		return compileNot(m, t, *c)
	default:
		return Statement{}, fmt.Errorf("unsupported condition type %T", item)
	}
}

func compileGroup(m *Model, t TableRef, g ConditionGroup, nested bool) (Statement, error) {
	sep := " AND "
	switch g.Logic {
	case types.AND, "":
	case types.OR:
		sep = " OR "
	default:
		return Statement{}, fmt.Errorf("unsupported logic operator %q", g.Logic)
	}

	parts := make([]Statement, 0, len(g.Conditions))
	for _, item := range g.Conditions {
		s, err := compileItem(m, t, item, true)
		if err != nil {
			return Statement{}, err
		}
		parts = append(parts, s)
	}
	out := types.JoinStatements(sep, parts)
	// A top-level AND group is safe to conjoin without parentheses.
	if out.IsEmpty() || len(parts) == 1 || (!nested && g.Logic != types.OR) {
		return out, nil
	}
	return Concat(Raw("("), out, Raw(")")), nil
}

func compileNot(m *Model, t TableRef, n NotCondition) (Statement, error) {
	inner, err := compileItem(m, t, n.Item, false)
	if err != nil {
		return Statement{}, err
	}
	if inner.IsEmpty() {
		return Statement{}, nil
	}
	return Concat(Raw("NOT ("), inner, Raw(")")), nil
}

func compileCondition(m *Model, t TableRef, c Condition) (Statement, error) {
	f, err := m.Field(c.Field)
	if err != nil {
		return Statement{}, err
	}
	col := Ident(t.Alias, f.Column)

	switch c.Operator {
	case IsNull, IsNotNull:
		return Concat(col, Raw(" "+string(c.Operator))), nil
	case IN, NotIn:
		values, err := listValues(c)
		if err != nil {
			return Statement{}, err
		}
		// x IN () is invalid SQL; an empty list matches nothing.
		if len(values) == 0 {
			if c.Operator == IN {
				return Raw("1=0"), nil
			}
			return Raw("1=1"), nil
		}
		params := make([]Statement, 0, len(values))
		for _, v := range values {
			params = append(params, Value(v))
		}
		return Concat(col, Raw(" "+string(c.Operator)+" ("), types.JoinStatements(", ", params), Raw(")")), nil
	case ILIKE:
		return Concat(Raw("LOWER("), col, Raw(") LIKE LOWER("), Value(c.Value), Raw(")")), nil
	case EQ, NE, GT, GE, LT, LE, LIKE, NotLike:
		if c.Value == nil {
			switch c.Operator {
			case EQ:
				return Concat(col, Raw(" IS NULL")), nil
			case NE:
				return Concat(col, Raw(" IS NOT NULL")), nil
			}
		}
		return Concat(col, Raw(" "+string(c.Operator)+" "), Value(c.Value)), nil
	default:
		return Statement{}, fmt.Errorf("unsupported operator %q on field %q", c.Operator, c.Field)
	}
}

func listValues(c Condition) ([]any, error) {
	if vs, ok := c.Value.([]any); ok {
		return vs, nil
	}
	rv := reflect.ValueOf(c.Value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, fmt.Errorf("operator %s on field %q needs a list value, got %T", c.Operator, c.Field, c.Value)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
