package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoobzio/relql"
	relqltesting "github.com/zoobzio/relql/testing"
)

// columnTypes are the dialect's spellings for the blog tables' columns.
type columnTypes struct {
	text string
	time string
}

var (
	pgTypes      = columnTypes{text: "TEXT", time: "TIMESTAMP"}
	mariadbTypes = columnTypes{text: "VARCHAR(255)", time: "DATETIME"}
	mssqlTypes   = columnTypes{text: "NVARCHAR(255)", time: "DATETIME2"}
)

// blogStatements drops, creates and seeds the blog tables behind
// relqltesting.TestSchema. The rows match relqltesting.SQLiteDB.
func blogStatements(ct columnTypes) []string {
	stmts := make([]string, 0, 16)
	for _, table := range []string{"post_tags", "tags", "comments", "tasks", "posts", "users", "orgs"} {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+table)
	}
	return append(stmts,
		fmt.Sprintf(`CREATE TABLE orgs (id INT NOT NULL, type %[1]s NOT NULL, name %[1]s, PRIMARY KEY (id, type))`, ct.text),
		fmt.Sprintf(`CREATE TABLE users (id INT PRIMARY KEY, name %[1]s, email %[1]s, org_id INT, org_type %[1]s, deleted_at %[2]s NULL)`, ct.text, ct.time),
		fmt.Sprintf(`CREATE TABLE posts (id INT PRIMARY KEY, author_id INT NULL, title %s, views INT)`, ct.text),
		fmt.Sprintf(`CREATE TABLE comments (id INT PRIMARY KEY, post_id INT, author_id INT, body %s, created_at INT)`, ct.text),
		fmt.Sprintf(`CREATE TABLE tags (id INT PRIMARY KEY, name %s)`, ct.text),
		`CREATE TABLE post_tags (post_id INT NOT NULL, tag_id INT NOT NULL, PRIMARY KEY (post_id, tag_id))`,
		fmt.Sprintf(`CREATE TABLE tasks (id INT PRIMARY KEY, title %s, assignee_id INT NULL)`, ct.text),

		`INSERT INTO orgs (id, type, name) VALUES (1, 'team', 'Core'), (1, 'company', 'Acme')`,
		`INSERT INTO users (id, name, email, org_id, org_type, deleted_at) VALUES
			(1, 'alice', 'alice@example.com', 1, 'team', NULL),
			(2, 'bob', 'bob@example.com', 1, 'company', NULL),
			(3, 'carol', 'carol@example.com', 1, 'team', '2024-01-01')`,
		`INSERT INTO posts (id, author_id, title, views) VALUES
			(1, 1, 'First', 100),
			(2, 2, 'Second', 50),
			(3, 3, 'Third', 10),
			(4, NULL, 'Orphan', 0)`,
		`INSERT INTO comments (id, post_id, author_id, body, created_at) VALUES
			(1, 1, 2, 'c1', 1),
			(2, 1, 1, 'c2', 2),
			(3, 1, 2, 'c3', 3),
			(4, 1, 1, 'c4', 4),
			(5, 2, 1, 'c5', 1)`,
		`INSERT INTO tags (id, name) VALUES (1, 'go'), (2, 'sql'), (3, 'orm')`,
		`INSERT INTO post_tags (post_id, tag_id) VALUES (1, 1), (1, 2), (1, 3), (2, 2)`,
		`INSERT INTO tasks (id, title, assignee_id) VALUES (1, 'review', 1), (2, 'triage', NULL)`,
	)
}

// seed runs the blog statements through exec.
func seed(ctx context.Context, t *testing.T, ct columnTypes, exec func(ctx context.Context, sql string) error) {
	t.Helper()
	for _, stmt := range blogStatements(ct) {
		require.NoError(t, exec(ctx, stmt), stmt)
	}
}

// blogSchema is relqltesting.TestSchema with every model in schema.
func blogSchema(t *testing.T, schema string) *relql.Schema {
	t.Helper()

	defs := relqltesting.TestModels()
	for i := range defs {
		defs[i].Schema = schema
	}
	s, err := relql.FromDBML(relqltesting.TestProject(), defs...)
	require.NoError(t, err)
	return s
}

func records(t *testing.T, v any) []relql.Record {
	t.Helper()
	rs, ok := v.([]relql.Record)
	require.True(t, ok, "expected []relql.Record, got %T", v)
	return rs
}

func field(rs []relql.Record, name string) []any {
	out := make([]any, 0, len(rs))
	for _, r := range rs {
		out = append(out, r[name])
	}
	return out
}
