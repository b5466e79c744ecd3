package types

import "slices"

// Field maps a model field to its column.
type Field struct {
	Name   string
	Column string
	Type   string // SQL type name, used when casting batch key arrays
}

// RelationKind is the closed set of relation cardinalities. Dispatch on it with
// a type switch over ManyToOne, OneToMany and ManyToMany.
type RelationKind interface {
	relationKind()
	String() string
}

// ManyToOne is an N:1 relation. Own fields reference target fields (usually the
// target's primary key); it is inlined as a join.
type ManyToOne struct{}

// OneToMany is a 1:N relation. Target fields reference own fields; it is
// fetched by a lateral batch.
type OneToMany struct{}

// ManyToMany is an N:N relation through a join model. The relation's
// References name the join model fields pointing back at the owner, and
// ThroughRelation names the join model's N:1 relation to the target.
type ManyToMany struct {
	Through         string
	ThroughRelation string
}

func (ManyToOne) relationKind()  {}
func (OneToMany) relationKind()  {}
func (ManyToMany) relationKind() {}

func (ManyToOne) String() string  { return "N:1" }
func (OneToMany) String() string  { return "1:N" }
func (ManyToMany) String() string { return "N:N" }

// Relation is a normalized relation between two models.
type Relation struct {
	Kind   RelationKind
	Where  ConditionItem // default filter applied in the join condition
	Name   string
	Target string
	// Fields are the owner's fields, References the paired fields on the
	// other side (the target for N:1 and 1:N, the join model for N:N).
	Fields     []string
	References []string
	Optional   bool
}

// Model is the immutable metadata of one entity.
type Model struct {
	Name       string
	Schema     string
	Table      string
	Fields     []Field
	PrimaryKey []string
	Relations  []Relation
}

// Field looks up a field by name.
func (m *Model) Field(name string) (Field, error) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return Field{}, &UnknownFieldError{Model: m.Name, Field: name}
}

// Relation looks up a relation by name.
func (m *Model) Relation(name string) (Relation, error) {
	for _, r := range m.Relations {
		if r.Name == name {
			return r, nil
		}
	}
	return Relation{}, &UnknownRelationError{Model: m.Name, Relation: name}
}

// IsPrimaryKey reports whether name is one of the primary key fields.
func (m *Model) IsPrimaryKey(name string) bool {
	return slices.Contains(m.PrimaryKey, name)
}
