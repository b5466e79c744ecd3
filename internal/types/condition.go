package types

// Condition represents a simple comparison between a model field and a value.
// Values are always bound as parameters, never inlined.
type Condition struct {
	Value    any
	Field    string
	Operator Operator
}

// ConditionItem represents either a single condition or a group of conditions.
type ConditionItem interface {
	IsConditionItem()
}

// LogicOperator represents how conditions are combined.
type LogicOperator string

const (
	AND LogicOperator = "AND"
	OR  LogicOperator = "OR"
)

// ConditionGroup represents grouped conditions with AND/OR logic.
type ConditionGroup struct {
	Logic      LogicOperator
	Conditions []ConditionItem
}

// NotCondition negates a condition item.
type NotCondition struct {
	Item ConditionItem
}

// Implement ConditionItem interface.
func (Condition) IsConditionItem()      {}
func (ConditionGroup) IsConditionItem() {}
func (NotCondition) IsConditionItem()   {}
