package relql_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/relql"
	relqltesting "github.com/zoobzio/relql/testing"
)

func newModel(name string, fields ...string) *relql.Model {
	m := &relql.Model{Name: name, Schema: "public", Table: name + "s", PrimaryKey: []string{"id"}}
	for _, f := range fields {
		m.Fields = append(m.Fields, relql.Field{Name: f, Column: f, Type: "int"})
	}
	return m
}

func TestNewSchema(t *testing.T) {
	user := newModel("user", "id", "name")
	post := newModel("post", "id", "author_id")
	post.Relations = []relql.Relation{
		{Name: "author", Kind: relql.ManyToOne{}, Target: "user", Fields: []string{"author_id"}, References: []string{"id"}},
	}

	schema, err := relql.NewSchema(user, post)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	got, err := schema.Model("post")
	if err != nil || got != post {
		t.Errorf("Model(post) = %v, %v", got, err)
	}

	_, err = schema.Model("comment")
	var unknown *relql.UnknownModelError
	if !errors.As(err, &unknown) || unknown.Model != "comment" {
		t.Errorf("Expected UnknownModelError for comment, got %v", err)
	}
}

func TestNewSchema_Validation(t *testing.T) {
	tests := []struct {
		name    string
		models  func() []*relql.Model
		wantErr string
	}{
		{
			name:    "nil model",
			models:  func() []*relql.Model { return []*relql.Model{nil} },
			wantErr: "cannot be nil",
		},
		{
			name: "missing table",
			models: func() []*relql.Model {
				m := newModel("user", "id")
				m.Table = ""
				return []*relql.Model{m}
			},
			wantErr: "requires a name and a table",
		},
		{
			name: "duplicate model",
			models: func() []*relql.Model {
				return []*relql.Model{newModel("user", "id"), newModel("user", "id")}
			},
			wantErr: "registered twice",
		},
		{
			name:    "duplicate field",
			models:  func() []*relql.Model { return []*relql.Model{newModel("user", "id", "id")} },
			wantErr: "declares field",
		},
		{
			name: "missing primary key field",
			models: func() []*relql.Model {
				m := newModel("user", "name")
				return []*relql.Model{m}
			},
			wantErr: "primary key",
		},
		{
			name: "relation collides with field",
			models: func() []*relql.Model {
				m := newModel("user", "id", "boss")
				m.Relations = []relql.Relation{{Name: "boss", Kind: relql.ManyToOne{}, Target: "user", Fields: []string{"id"}, References: []string{"id"}}}
				return []*relql.Model{m}
			},
			wantErr: "collides",
		},
		{
			name: "mismatched key lengths",
			models: func() []*relql.Model {
				m := newModel("user", "id", "boss_id")
				m.Relations = []relql.Relation{{Name: "boss", Kind: relql.ManyToOne{}, Target: "user", Fields: []string{"boss_id"}}}
				return []*relql.Model{m}
			},
			wantErr: "matching fields and references",
		},
		{
			name: "unknown reference",
			models: func() []*relql.Model {
				m := newModel("user", "id", "boss_id")
				m.Relations = []relql.Relation{{Name: "boss", Kind: relql.ManyToOne{}, Target: "user", Fields: []string{"boss_id"}, References: []string{"uuid"}}}
				return []*relql.Model{m}
			},
			wantErr: "unknown field",
		},
		{
			name: "through relation must point at target",
			models: func() []*relql.Model {
				post := newModel("post", "id")
				tag := newModel("tag", "id")
				join := newModel("post_tag", "id", "post_id", "tag_id")
				join.Relations = []relql.Relation{{Name: "post", Kind: relql.ManyToOne{}, Target: "post", Fields: []string{"post_id"}, References: []string{"id"}}}
				post.Relations = []relql.Relation{{
					Name: "tags", Kind: relql.ManyToMany{Through: "post_tag", ThroughRelation: "post"}, Target: "tag",
					Fields: []string{"id"}, References: []string{"post_id"},
				}}
				return []*relql.Model{post, tag, join}
			},
			wantErr: "through relation must be N:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := relql.NewSchema(tt.models()...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewSchema error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromDBML(t *testing.T) {
	schema := relqltesting.TestSchema(t)

	comment, err := schema.Model("comment")
	if err != nil {
		t.Fatalf("Model(comment) failed: %v", err)
	}
	if comment.Schema != relql.DefaultSchema {
		t.Errorf("Schema = %q, want %q", comment.Schema, relql.DefaultSchema)
	}
	if len(comment.Fields) != 5 {
		t.Errorf("Fields = %d, want 5", len(comment.Fields))
	}
}

func TestFromDBML_ColumnRename(t *testing.T) {
	project := dbml.NewProject("rename")
	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("full_name", "varchar"))
	project.AddTable(users)

	schema, err := relql.FromDBML(project, relql.ModelDef{
		Name:    "user",
		Table:   "users",
		Columns: map[string]string{"name": "full_name"},
	})
	if err != nil {
		t.Fatalf("FromDBML failed: %v", err)
	}
	user, _ := schema.Model("user")
	f, err := user.Field("name")
	if err != nil {
		t.Fatalf("Field(name) failed: %v", err)
	}
	if f.Column != "full_name" || f.Type != "varchar" {
		t.Errorf("Field = %+v, want column full_name of type varchar", f)
	}
}

func TestFromDBML_Errors(t *testing.T) {
	if _, err := relql.FromDBML(nil); err == nil {
		t.Error("Expected error for nil project")
	}

	project := dbml.NewProject("empty")
	if _, err := relql.FromDBML(project, relql.ModelDef{Name: "ghost"}); err == nil ||
		!strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected missing table error, got %v", err)
	}
}
