package relql

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/relql/internal/types"
)

// DefaultSchema is used for models that name no database schema.
const DefaultSchema = "public"

// SchemaFile is the models document read by LoadSchema.
//
//	schema: public
//	models:
//	  - name: post
//	    table: posts
//	    primaryKey: [id]
//	    fields:
//	      - {name: id, type: int}
//	      - {name: authorId, column: author_id, type: int}
//	    relations:
//	      - name: author
//	        kind: N:1
//	        target: user
//	        fields: [authorId]
//	        references: [id]
//	        optional: true
//	        where: {deleted_at: null}
type SchemaFile struct {
	Schema string      `yaml:"schema"`
	Models []ModelFile `yaml:"models"`
}

// ModelFile declares one model.
type ModelFile struct {
	Name       string         `yaml:"name"`
	Schema     string         `yaml:"schema"`
	Table      string         `yaml:"table"`
	PrimaryKey []string       `yaml:"primaryKey"`
	Fields     []FieldFile    `yaml:"fields"`
	Relations  []RelationFile `yaml:"relations"`
}

// FieldFile declares one field. Column defaults to Name, Type to text.
type FieldFile struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"`
	Type   string `yaml:"type"`
}

// RelationFile declares one relation. Kind is N:1, 1:N or N:N (also
// many_to_one, one_to_many, many_to_many). Through and ThroughRelation are
// required for N:N.
type RelationFile struct {
	Where           yaml.Node `yaml:"where"`
	Name            string    `yaml:"name"`
	Kind            string    `yaml:"kind"`
	Target          string    `yaml:"target"`
	Through         string    `yaml:"through"`
	ThroughRelation string    `yaml:"throughRelation"`
	Fields          []string  `yaml:"fields"`
	References      []string  `yaml:"references"`
	Optional        bool      `yaml:"optional"`
}

// LoadSchema reads and validates a models file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates a models document.
func ParseSchema(data []byte) (*Schema, error) {
	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}
	return file.Build()
}

// Build converts the document to a validated Schema.
func (f *SchemaFile) Build() (*Schema, error) {
	defaultSchema := f.Schema
	if defaultSchema == "" {
		defaultSchema = DefaultSchema
	}

	models := make([]*Model, 0, len(f.Models))
	for _, mf := range f.Models {
		m := &Model{
			Name:       mf.Name,
			Schema:     mf.Schema,
			Table:      mf.Table,
			PrimaryKey: mf.PrimaryKey,
		}
		if m.Schema == "" {
			m.Schema = defaultSchema
		}
		if m.Table == "" {
			m.Table = mf.Name
		}
		for _, ff := range mf.Fields {
			m.Fields = append(m.Fields, ff.field())
		}
		for _, rf := range mf.Relations {
			r, err := rf.relation()
			if err != nil {
				return nil, fmt.Errorf("model %q: %w", mf.Name, err)
			}
			m.Relations = append(m.Relations, r)
		}
		models = append(models, m)
	}
	return NewSchema(models...)
}

func (ff FieldFile) field() Field {
	f := Field{Name: ff.Name, Column: ff.Column, Type: ff.Type}
	if f.Column == "" {
		f.Column = f.Name
	}
	if f.Type == "" {
		f.Type = "text"
	}
	return f
}

func (rf RelationFile) relation() (Relation, error) {
	kind, err := ParseRelationKind(rf.Kind, rf.Through, rf.ThroughRelation)
	if err != nil {
		return Relation{}, fmt.Errorf("relation %q: %w", rf.Name, err)
	}
	r := Relation{
		Kind:       kind,
		Name:       rf.Name,
		Target:     rf.Target,
		Fields:     rf.Fields,
		References: rf.References,
		Optional:   rf.Optional,
	}
	if !rf.Where.IsZero() {
		r.Where, err = decodeWhere(&rf.Where)
		if err != nil {
			return Relation{}, fmt.Errorf("relation %q: where: %w", rf.Name, err)
		}
	}
	return r, nil
}

// ParseRelationKind parses a relation kind name.
func ParseRelationKind(kind, through, throughRelation string) (RelationKind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "n:1", "many_to_one", "belongs_to":
		return types.ManyToOne{}, nil
	case "1:n", "one_to_many", "has_many":
		return types.OneToMany{}, nil
	case "n:n", "many_to_many":
		if through == "" || throughRelation == "" {
			return nil, fmt.Errorf("N:N relation requires through and throughRelation")
		}
		return types.ManyToMany{Through: through, ThroughRelation: throughRelation}, nil
	default:
		return nil, fmt.Errorf("unknown relation kind %q", kind)
	}
}
