package relql

import (
	"fmt"

	"github.com/zoobzio/dbml"
)

// ModelDef names the parts of a model a DBML table cannot express.
type ModelDef struct {
	Name       string
	Schema     string
	Table      string // defaults to Name
	PrimaryKey []string
	Relations  []Relation
	// Columns maps field names to column names where they differ; fields
	// without an entry keep the column name.
	Columns map[string]string
}

// FromDBML builds a Schema whose fields come from the columns of the
// project's tables. Every definition must name an existing table.
func FromDBML(project *dbml.Project, defs ...ModelDef) (*Schema, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}

	tables := make(map[string]*dbml.Table, len(project.Tables))
	for _, table := range project.Tables {
		tables[table.Name] = table
	}

	models := make([]*Model, 0, len(defs))
	for _, def := range defs {
		tableName := def.Table
		if tableName == "" {
			tableName = def.Name
		}
		table, ok := tables[tableName]
		if !ok {
			return nil, fmt.Errorf("table '%s' not found in schema", tableName)
		}

		schema := def.Schema
		if schema == "" {
			schema = DefaultSchema
		}
		m := &Model{
			Name:       def.Name,
			Schema:     schema,
			Table:      tableName,
			PrimaryKey: def.PrimaryKey,
			Relations:  def.Relations,
		}

		fieldOf := make(map[string]string, len(def.Columns))
		for field, column := range def.Columns {
			fieldOf[column] = field
		}
		for _, col := range table.Columns {
			name := col.Name
			if field, ok := fieldOf[col.Name]; ok {
				name = field
			}
			m.Fields = append(m.Fields, Field{Name: name, Column: col.Name, Type: col.Type})
		}
		if len(m.PrimaryKey) == 0 {
			if _, err := m.Field("id"); err == nil {
				m.PrimaryKey = []string{"id"}
			}
		}
		models = append(models, m)
	}
	return NewSchema(models...)
}
