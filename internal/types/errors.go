package types

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrUnknownModel    = errors.New("unknown model")
	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrStructural      = errors.New("malformed query structure")
	ErrMisuse          = errors.New("relation misuse")
)

// UnknownModelError is returned when a model name is not registered.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q", e.Model)
}

func (e *UnknownModelError) Is(target error) bool { return target == ErrUnknownModel }

// UnknownFieldError is returned when a field is not defined on its model.
type UnknownFieldError struct {
	Model string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q on model %q", e.Field, e.Model)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

// UnknownRelationError is returned when a relation is not defined on its model.
type UnknownRelationError struct {
	Model    string
	Relation string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("unknown relation %q on model %q", e.Relation, e.Model)
}

func (e *UnknownRelationError) Is(target error) bool { return target == ErrUnknownRelation }

// StructuralError reports a query whose shape cannot be planned, such as an
// order path through a relation that cannot be joined.
type StructuralError struct {
	Model  string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Model == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s (model %q)", e.Reason, e.Model)
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// MisuseError reports a relation used where its kind is not valid.
type MisuseError struct {
	Model    string
	Relation string
	Kind     string
	Reason   string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("relation %q (%s) on model %q: %s", e.Relation, e.Kind, e.Model, e.Reason)
}

func (e *MisuseError) Is(target error) bool { return target == ErrMisuse }
