package types

// Operator represents query comparison operators.
type Operator string

const (
	// Basic comparison operators.
	EQ Operator = "="
	NE Operator = "!="
	GT Operator = ">"
	GE Operator = ">="
	LT Operator = "<"
	LE Operator = "<="

	// Extended operators.
	IN        Operator = "IN"
	NotIn     Operator = "NOT IN"
	LIKE      Operator = "LIKE"
	NotLike   Operator = "NOT LIKE"
	ILIKE     Operator = "ILIKE"
	IsNull    Operator = "IS NULL"
	IsNotNull Operator = "IS NOT NULL"
)

// ParseOperator maps the lowercase operator keys used in query documents
// (eq, gt, in, ...) to an Operator.
func ParseOperator(key string) (Operator, bool) {
	op, ok := operatorKeys[key]
	return op, ok
}

var operatorKeys = map[string]Operator{
	"eq":       EQ,
	"ne":       NE,
	"gt":       GT,
	"gte":      GE,
	"lt":       LT,
	"lte":      LE,
	"in":       IN,
	"notin":    NotIn,
	"like":     LIKE,
	"notlike":  NotLike,
	"ilike":    ILIKE,
	"null":     IsNull,
	"notnull":  IsNotNull,
	"is_null":  IsNull,
	"not_null": IsNotNull,
}
