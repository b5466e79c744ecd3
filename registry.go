package relql

import (
	"fmt"

	"github.com/zoobzio/relql/internal/types"
)

// Registry supplies model metadata to the planner.
type Registry interface {
	// Model returns the model registered under name or an *UnknownModelError.
	Model(name string) (*Model, error)
}

// Schema is an immutable, validated set of models.
type Schema struct {
	models map[string]*Model
	order  []string
}

// NewSchema validates models and indexes them by name. Every relation must
// point at a registered model and pair existing fields.
func NewSchema(models ...*Model) (*Schema, error) {
	s := &Schema{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if m == nil {
			return nil, fmt.Errorf("model cannot be nil")
		}
		if m.Name == "" || m.Table == "" {
			return nil, fmt.Errorf("model %q requires a name and a table", m.Name)
		}
		if _, dup := s.models[m.Name]; dup {
			return nil, fmt.Errorf("model %q registered twice", m.Name)
		}
		s.models[m.Name] = m
		s.order = append(s.order, m.Name)
	}
	for _, name := range s.order {
		if err := s.validate(s.models[name]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Model returns the model registered under name.
func (s *Schema) Model(name string) (*Model, error) {
	if m, ok := s.models[name]; ok {
		return m, nil
	}
	return nil, &UnknownModelError{Model: name}
}

// Models returns the models in registration order.
func (s *Schema) Models() []*Model {
	out := make([]*Model, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.models[name])
	}
	return out
}

func (s *Schema) validate(m *Model) error {
	if len(m.Fields) == 0 {
		return fmt.Errorf("model %q has no fields", m.Name)
	}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if f.Name == "" || f.Column == "" {
			return fmt.Errorf("model %q has a field without name or column", m.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("model %q declares field %q twice", m.Name, f.Name)
		}
		seen[f.Name] = true
	}
	if len(m.PrimaryKey) == 0 {
		return fmt.Errorf("model %q has no primary key", m.Name)
	}
	for _, pk := range m.PrimaryKey {
		if _, err := m.Field(pk); err != nil {
			return fmt.Errorf("primary key: %w", err)
		}
	}

	for _, r := range m.Relations {
		if err := s.validateRelation(m, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) validateRelation(m *Model, r Relation) error {
	if r.Name == "" {
		return fmt.Errorf("model %q has a relation without a name", m.Name)
	}
	if _, err := m.Field(r.Name); err == nil {
		return fmt.Errorf("relation %q on model %q collides with a field", r.Name, m.Name)
	}
	if len(r.Fields) == 0 || len(r.Fields) != len(r.References) {
		return fmt.Errorf("relation %q on model %q needs matching fields and references", r.Name, m.Name)
	}
	for _, f := range r.Fields {
		if _, err := m.Field(f); err != nil {
			return fmt.Errorf("relation %q: %w", r.Name, err)
		}
	}
	target, err := s.Model(r.Target)
	if err != nil {
		return fmt.Errorf("relation %q on model %q: %w", r.Name, m.Name, err)
	}

	// References live on the target, except for N:N where they live on the
	// join model.
	refModel := target
	switch k := r.Kind.(type) {
	case types.ManyToOne, types.OneToMany:
	case types.ManyToMany:
		through, err := s.Model(k.Through)
		if err != nil {
			return fmt.Errorf("relation %q on model %q: %w", r.Name, m.Name, err)
		}
		tr, err := through.Relation(k.ThroughRelation)
		if err != nil {
			return fmt.Errorf("relation %q on model %q: %w", r.Name, m.Name, err)
		}
		if _, ok := tr.Kind.(types.ManyToOne); !ok || tr.Target != r.Target {
			return &MisuseError{
				Model: through.Name, Relation: tr.Name, Kind: kindName(tr.Kind),
				Reason: fmt.Sprintf("through relation must be N:1 to %q", r.Target),
			}
		}
		refModel = through
	default:
		return &MisuseError{Model: m.Name, Relation: r.Name, Kind: kindName(r.Kind), Reason: "unknown relation kind"}
	}
	for _, f := range r.References {
		if _, err := refModel.Field(f); err != nil {
			return fmt.Errorf("relation %q: %w", r.Name, err)
		}
	}
	return nil
}

func kindName(k RelationKind) string {
	if k == nil {
		return "<nil>"
	}
	return k.String()
}
