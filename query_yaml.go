package relql

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/relql/internal/types"
)

// LoadQuery reads a query document from path.
func LoadQuery(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return ParseQuery(data)
}

// ParseQuery decodes a YAML (or JSON) query document:
//
//	select: [id, title]
//	where: {published: true, views: {gt: 10}}
//	include:
//	  author: {select: [name]}
//	  comments: {orderBy: ["-created_at"], limit: 3}
//	orderBy: ["author.name", "id desc"]
//	limit: 10
//	for: update
//
// Includes and where entries keep their document order.
func ParseQuery(data []byte) (*Query, error) {
	var q Query
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (q *Query) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: query must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var err error
		switch key.Value {
		case "select":
			err = value.Decode(&q.Select)
		case "where":
			q.Where, err = decodeWhere(value)
		case "include":
			q.Include, err = decodeIncludes(value)
		case "orderBy", "order_by":
			q.OrderBy, err = decodeOrders(value)
		case "limit":
			q.Limit, err = decodeInt(value)
		case "offset":
			q.Offset, err = decodeInt(value)
		case "for":
			var s string
			if err = value.Decode(&s); err == nil {
				q.For, err = ParseLockMode(s)
			}
		default:
			err = fmt.Errorf("unknown query key %q", key.Value)
		}
		if err != nil {
			return fmt.Errorf("line %d: %s: %w", key.Line, key.Value, err)
		}
	}
	return nil
}

func decodeInt(node *yaml.Node) (*int, error) {
	var v int
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeIncludes(node *yaml.Node) ([]Include, error) {
	switch node.Kind {
	case yaml.MappingNode:
		out := make([]Include, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			inc := Include{Relation: node.Content[i].Value}
			value := node.Content[i+1]
			// "author: true" and "author:" include with the default query.
			if value.Kind != yaml.ScalarNode {
				inc.Query = &Query{}
				if err := value.Decode(inc.Query); err != nil {
					return nil, err
				}
			}
			out = append(out, inc)
		}
		return out, nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, err
		}
		out := make([]Include, 0, len(names))
		for _, n := range names {
			out = append(out, Include{Relation: n})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("include must be a mapping or a list of relation names")
	}
}

func decodeOrders(node *yaml.Node) ([]Order, error) {
	var entries []string
	if node.Kind == yaml.ScalarNode {
		entries = []string{node.Value}
	} else if err := node.Decode(&entries); err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(entries))
	for _, e := range entries {
		o, err := ParseOrder(e)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// decodeWhere decodes the map form of a filter. Sibling entries are ANDed.
//
//	{status: open}                       status = 'open'
//	{status: [open, closed]}             status IN (...)
//	{deleted_at: null}                   deleted_at IS NULL
//	{views: {gte: 10, lt: 100}}          views >= 10 AND views < 100
//	{or: [{a: 1}, {b: 2}]}               (a = 1 OR b = 2)
//	{not: {archived: true}}              NOT (archived = true)
func decodeWhere(node *yaml.Node) (ConditionItem, error) {
	switch node.Kind {
	case yaml.MappingNode:
	case yaml.SequenceNode:
		return decodeGroup(node, types.AND)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		fallthrough
	default:
		return nil, fmt.Errorf("where must be a mapping")
	}

	items := make([]ConditionItem, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "and":
			g, err := decodeGroup(value, types.AND)
			if err != nil {
				return nil, err
			}
			items = append(items, g)
		case "or":
			g, err := decodeGroup(value, types.OR)
			if err != nil {
				return nil, err
			}
			items = append(items, g)
		case "not":
			inner, err := decodeWhere(value)
			if err != nil {
				return nil, err
			}
			if inner == nil {
				return nil, fmt.Errorf("not requires a condition")
			}
			items = append(items, Not(inner))
		default:
			conds, err := decodeField(key, value)
			if err != nil {
				return nil, err
			}
			items = append(items, conds...)
		}
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0], nil
	}
	return TryAnd(items...)
}

func decodeGroup(node *yaml.Node, logic types.LogicOperator) (ConditionItem, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s requires a list", logic)
	}
	items := make([]ConditionItem, 0, len(node.Content))
	for _, n := range node.Content {
		item, err := decodeWhere(n)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, item)
		}
	}
	if logic == types.OR {
		return TryOr(items...)
	}
	return TryAnd(items...)
}

func decodeField(field string, node *yaml.Node) ([]ConditionItem, error) {
	switch node.Kind {
	case yaml.MappingNode:
		out := make([]ConditionItem, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i].Value, node.Content[i+1]
			op, ok := types.ParseOperator(key)
			if !ok {
				return nil, fmt.Errorf("unknown operator %q on field %q", key, field)
			}
			var v any
			if err := value.Decode(&v); err != nil {
				return nil, err
			}
			// {null: false} is the same as {notnull: true}.
			if b, isBool := v.(bool); isBool && !b {
				switch op {
				case IsNull:
					op = IsNotNull
				case IsNotNull:
					op = IsNull
				}
			}
			c, err := TryC(field, op, v)
			if err != nil {
				return nil, err
			}
			if op == IsNull || op == IsNotNull {
				c.Value = nil
			}
			out = append(out, c)
		}
		return out, nil
	case yaml.SequenceNode:
		var vs []any
		if err := node.Decode(&vs); err != nil {
			return nil, err
		}
		c, err := TryC(field, IN, vs)
		if err != nil {
			return nil, err
		}
		return []ConditionItem{c}, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		op := EQ
		if v == nil {
			op = IsNull
		}
		c, err := TryC(field, op, v)
		if err != nil {
			return nil, err
		}
		return []ConditionItem{c}, nil
	}
}
