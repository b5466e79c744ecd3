package relql

import (
	"fmt"
	"strings"

	"github.com/zoobzio/relql/internal/types"
)

// Include names a relation to load and the query applied to it.
type Include struct {
	Query    *Query
	Relation string
}

// Order is one ORDER BY entry. Path is a field name or relation.field.
type Order struct {
	Path      string
	Direction Direction
}

// Query is the declarative description of what to fetch from one model.
// Includes nest recursively; their order decides alias allocation and the
// order of relation ORDER BY entries.
//
//nolint:govet // fieldalignment: Logical grouping is preferred over memory optimization
type Query struct {
	Select  []string
	Where   ConditionItem
	Include []Include
	OrderBy []Order
	Limit   *int
	Offset  *int
	For     LockMode
}

// Validate checks the parts of a query that do not need model metadata.
func (q *Query) Validate() error {
	if q == nil {
		return nil
	}
	if q.Limit != nil && *q.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", *q.Limit)
	}
	if q.Offset != nil && *q.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", *q.Offset)
	}
	if _, err := ParseLockMode(string(q.For)); err != nil {
		return err
	}
	for _, o := range q.OrderBy {
		if strings.TrimSpace(o.Path) == "" {
			return fmt.Errorf("order by entry has an empty path")
		}
		switch o.Direction {
		case "", ASC, DESC:
		default:
			return fmt.Errorf("invalid direction %q for %q", o.Direction, o.Path)
		}
	}
	seen := make(map[string]bool, len(q.Include))
	for _, inc := range q.Include {
		if inc.Relation == "" {
			return fmt.Errorf("include entry has an empty relation name")
		}
		if seen[inc.Relation] {
			return fmt.Errorf("relation %q is included twice", inc.Relation)
		}
		seen[inc.Relation] = true
		if err := inc.Query.Validate(); err != nil {
			return fmt.Errorf("include %q: %w", inc.Relation, err)
		}
	}
	return nil
}

// included returns the query for an included relation.
func (q *Query) included(relation string) (*Query, bool) {
	for _, inc := range q.Include {
		if inc.Relation == relation {
			return inc.Query, true
		}
	}
	return nil, false
}

// ParseLockMode validates a row-locking mode.
func ParseLockMode(s string) (LockMode, error) {
	return types.ParseLockMode(s)
}

// ParseDirection parses asc/desc, case-insensitively. Empty means ASC.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return ASC, nil
	case "DESC":
		return DESC, nil
	default:
		return "", fmt.Errorf("invalid direction %q: want asc or desc", s)
	}
}

// ParseOrder parses "field", "-field", "relation.field desc" and similar.
func ParseOrder(s string) (Order, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return Order{Path: strings.TrimSpace(s[1:]), Direction: DESC}, nil
	}
	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		return Order{Path: parts[0], Direction: ASC}, nil
	case 2:
		dir, err := ParseDirection(parts[1])
		if err != nil {
			return Order{}, err
		}
		return Order{Path: parts[0], Direction: dir}, nil
	default:
		return Order{}, fmt.Errorf("invalid order entry %q", s)
	}
}
