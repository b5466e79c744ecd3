// Package testing provides test fixtures for relql: a blog schema built from
// DBML, plan helpers, SQL assertions and a seeded in-memory SQLite database.
package testing

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/zoobzio/dbml"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/zoobzio/relql"
)

// TestProject returns the DBML project behind TestSchema.
func TestProject() *dbml.Project {
	project := dbml.NewProject("test")

	orgs := dbml.NewTable("orgs")
	orgs.AddColumn(dbml.NewColumn("id", "int"))
	orgs.AddColumn(dbml.NewColumn("type", "text"))
	orgs.AddColumn(dbml.NewColumn("name", "text"))
	project.AddTable(orgs)

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "int"))
	users.AddColumn(dbml.NewColumn("name", "text"))
	users.AddColumn(dbml.NewColumn("email", "text"))
	users.AddColumn(dbml.NewColumn("org_id", "int"))
	users.AddColumn(dbml.NewColumn("org_type", "text"))
	users.AddColumn(dbml.NewColumn("deleted_at", "timestamp"))
	project.AddTable(users)

	posts := dbml.NewTable("posts")
	posts.AddColumn(dbml.NewColumn("id", "int"))
	posts.AddColumn(dbml.NewColumn("author_id", "int"))
	posts.AddColumn(dbml.NewColumn("title", "text"))
	posts.AddColumn(dbml.NewColumn("views", "int"))
	project.AddTable(posts)

	comments := dbml.NewTable("comments")
	comments.AddColumn(dbml.NewColumn("id", "int"))
	comments.AddColumn(dbml.NewColumn("post_id", "int"))
	comments.AddColumn(dbml.NewColumn("author_id", "int"))
	comments.AddColumn(dbml.NewColumn("body", "text"))
	comments.AddColumn(dbml.NewColumn("created_at", "int"))
	project.AddTable(comments)

	tags := dbml.NewTable("tags")
	tags.AddColumn(dbml.NewColumn("id", "int"))
	tags.AddColumn(dbml.NewColumn("name", "text"))
	project.AddTable(tags)

	postTags := dbml.NewTable("post_tags")
	postTags.AddColumn(dbml.NewColumn("post_id", "int"))
	postTags.AddColumn(dbml.NewColumn("tag_id", "int"))
	project.AddTable(postTags)

	tasks := dbml.NewTable("tasks")
	tasks.AddColumn(dbml.NewColumn("id", "int"))
	tasks.AddColumn(dbml.NewColumn("title", "text"))
	tasks.AddColumn(dbml.NewColumn("assignee_id", "int"))
	project.AddTable(tasks)

	return project
}

// TestModels returns the model definitions behind TestSchema.
//
//	user    N:1 org (composite key), 1:N posts
//	post    N:1 author (optional, deleted_at IS NULL), 1:N comments, N:N tags
//	comment N:1 post, N:1 author
//	task    N:1 assignee (optional)
func TestModels() []relql.ModelDef {
	return []relql.ModelDef{
		{
			Name: "org", Table: "orgs",
			PrimaryKey: []string{"id", "type"},
		},
		{
			Name: "user", Table: "users",
			Relations: []relql.Relation{
				{Name: "org", Kind: relql.ManyToOne{}, Target: "org", Fields: []string{"org_id", "org_type"}, References: []string{"id", "type"}},
				{Name: "posts", Kind: relql.OneToMany{}, Target: "post", Fields: []string{"id"}, References: []string{"author_id"}},
			},
		},
		{
			Name: "post", Table: "posts",
			Relations: []relql.Relation{
				{
					Name: "author", Kind: relql.ManyToOne{}, Target: "user",
					Fields: []string{"author_id"}, References: []string{"id"},
					Optional: true,
					Where:    relql.Null("deleted_at"),
				},
				{Name: "comments", Kind: relql.OneToMany{}, Target: "comment", Fields: []string{"id"}, References: []string{"post_id"}},
				{
					Name: "tags", Kind: relql.ManyToMany{Through: "post_tag", ThroughRelation: "tag"}, Target: "tag",
					Fields: []string{"id"}, References: []string{"post_id"},
				},
			},
		},
		{
			Name: "comment", Table: "comments",
			Relations: []relql.Relation{
				{Name: "post", Kind: relql.ManyToOne{}, Target: "post", Fields: []string{"post_id"}, References: []string{"id"}},
				{Name: "author", Kind: relql.ManyToOne{}, Target: "user", Fields: []string{"author_id"}, References: []string{"id"}},
			},
		},
		{
			Name: "tag", Table: "tags",
		},
		{
			Name: "post_tag", Table: "post_tags",
			PrimaryKey: []string{"post_id", "tag_id"},
			Relations: []relql.Relation{
				{Name: "tag", Kind: relql.ManyToOne{}, Target: "tag", Fields: []string{"tag_id"}, References: []string{"id"}},
			},
		},
		{
			Name: "task", Table: "tasks",
			Relations: []relql.Relation{
				{Name: "assignee", Kind: relql.ManyToOne{}, Target: "user", Fields: []string{"assignee_id"}, References: []string{"id"}, Optional: true},
			},
		},
	}
}

// TestSchema creates the blog schema used across relql tests.
func TestSchema(t *testing.T) *relql.Schema {
	t.Helper()

	schema, err := relql.FromDBML(TestProject(), TestModels()...)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	return schema
}

// SQLiteSchema is TestSchema with every model in SQLite's main schema, for
// running plans against SQLiteDB.
func SQLiteSchema(t *testing.T) *relql.Schema {
	t.Helper()

	defs := TestModels()
	for i := range defs {
		defs[i].Schema = "main"
	}
	schema, err := relql.FromDBML(TestProject(), defs...)
	if err != nil {
		t.Fatalf("Failed to create sqlite schema: %v", err)
	}
	return schema
}

// MustPlan builds a plan or fails the test.
func MustPlan(t *testing.T, reg relql.Registry, model string, q *relql.Query) *relql.Plan {
	t.Helper()

	plan, err := relql.BuildPlan(reg, relql.Predicates{}, model, q, nil, nil, 0)
	if err != nil {
		t.Fatalf("BuildPlan(%s) failed: %v", model, err)
	}
	return plan
}

// AssertSQL compares expected and actual SQL, reporting detailed differences.
func AssertSQL(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// AssertParams compares parameter lists.
func AssertParams(t *testing.T, expected, actual []any) {
	t.Helper()
	if len(expected) == 0 && len(actual) == 0 {
		return
	}
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("Params mismatch:\nExpected: %#v\nActual:   %#v", expected, actual)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

// seed creates and fills the blog tables. Post 1 has four comments, post 2
// one, post 3 none. User 3 is soft-deleted.
var seed = []string{
	`CREATE TABLE orgs (id INTEGER, type TEXT, name TEXT, PRIMARY KEY (id, type))`,
	`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT, org_id INTEGER, org_type TEXT, deleted_at TEXT)`,
	`CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER, title TEXT, views INTEGER)`,
	`CREATE TABLE comments (id INTEGER PRIMARY KEY, post_id INTEGER, author_id INTEGER, body TEXT, created_at INTEGER)`,
	`CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE post_tags (post_id INTEGER, tag_id INTEGER, PRIMARY KEY (post_id, tag_id))`,
	`CREATE TABLE tasks (id INTEGER PRIMARY KEY, title TEXT, assignee_id INTEGER)`,

	`INSERT INTO orgs VALUES (1, 'team', 'Core'), (1, 'company', 'Acme')`,
	`INSERT INTO users VALUES
		(1, 'alice', 'alice@example.com', 1, 'team', NULL),
		(2, 'bob', 'bob@example.com', 1, 'company', NULL),
		(3, 'carol', 'carol@example.com', 1, 'team', '2024-01-01')`,
	`INSERT INTO posts VALUES
		(1, 1, 'First', 100),
		(2, 2, 'Second', 50),
		(3, 3, 'Third', 10),
		(4, NULL, 'Orphan', 0)`,
	`INSERT INTO comments VALUES
		(1, 1, 2, 'c1', 1),
		(2, 1, 1, 'c2', 2),
		(3, 1, 2, 'c3', 3),
		(4, 1, 1, 'c4', 4),
		(5, 2, 1, 'c5', 1)`,
	`INSERT INTO tags VALUES (1, 'go'), (2, 'sql'), (3, 'orm')`,
	`INSERT INTO post_tags VALUES (1, 1), (1, 2), (1, 3), (2, 2)`,
	`INSERT INTO tasks VALUES (1, 'review', 1), (2, 'triage', NULL)`,
}

// SQLiteDB opens a seeded in-memory SQLite database. The pool is limited to
// one connection because every connection to :memory: is its own database.
func SQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to seed sqlite: %v\nSQL: %s", err, stmt)
		}
	}
	return db
}
