package relql_test

import (
	"fmt"

	"github.com/zoobzio/relql"
	"github.com/zoobzio/relql/postgres"
)

const exampleModels = `
models:
  - name: user
    table: users
    primaryKey: [id]
    fields:
      - {name: id, type: int}
      - {name: name}
      - {name: deleted_at, type: timestamp}
    relations:
      - {name: posts, kind: one_to_many, target: post, fields: [id], references: [author_id]}
  - name: post
    table: posts
    primaryKey: [id]
    fields:
      - {name: id, type: int}
      - {name: author_id, type: int}
      - {name: title}
    relations:
      - name: author
        kind: many_to_one
        target: user
        fields: [author_id]
        references: [id]
        optional: true
        where: {deleted_at: null}
`

func ExampleBuildPlan() {
	schema, err := relql.ParseSchema([]byte(exampleModels))
	if err != nil {
		panic(err)
	}

	q := relql.NewQuery().
		Select("title").
		Include("author", relql.NewQuery().Select("name")).
		MustBuild()

	plan, err := relql.BuildPlan(schema, relql.Predicates{}, "post", q, nil, nil, 0)
	if err != nil {
		panic(err)
	}
	result, err := postgres.New().Render(plan)
	if err != nil {
		panic(err)
	}
	fmt.Println(result.SQL)

	// Output:
	// SELECT "a"."title" AS "a_0", "a"."id" AS "a_1", "b"."name" AS "b_0", "b"."id" AS "b_1" FROM "public"."posts" AS "a" LEFT JOIN "public"."users" AS "b" ON "a"."author_id" = "b"."id" AND "b"."deleted_at" IS NULL
}

func ExampleBuildBatch() {
	schema, err := relql.ParseSchema([]byte(exampleModels))
	if err != nil {
		panic(err)
	}
	user, err := schema.Model("user")
	if err != nil {
		panic(err)
	}

	parents := []relql.Record{{"id": 1}, {"id": 2}, {"id": 1}}
	plan, err := relql.BuildBatch(schema, relql.Predicates{}, user, "posts",
		relql.NewQuery().Select("title").MustBuild(), parents)
	if err != nil {
		panic(err)
	}
	result, err := postgres.New().Render(plan)
	if err != nil {
		panic(err)
	}
	fmt.Println(result.SQL)
	fmt.Println(result.Params)

	// Output:
	// SELECT "c".* FROM (SELECT UNNEST(ARRAY[$1,$2]::int[]) AS "author_id") AS "b" JOIN LATERAL (SELECT "a"."title" AS "a_0", "a"."id" AS "a_1", "a"."author_id" AS "a_2" FROM "public"."posts" AS "a" WHERE (1=1) AND ("b"."author_id" = "a"."author_id")) "c" ON TRUE
	// [1 2]
}

func ExampleStitch() {
	schema, err := relql.ParseSchema([]byte(exampleModels))
	if err != nil {
		panic(err)
	}
	user, err := schema.Model("user")
	if err != nil {
		panic(err)
	}
	posts, err := user.Relation("posts")
	if err != nil {
		panic(err)
	}

	users := []relql.Record{{"id": 1, "name": "alice"}, {"id": 2, "name": "bob"}}
	children := []relql.Record{
		{"id": 10, "author_id": 1, "title": "First"},
		{"id": 11, "author_id": 1, "title": "Second"},
	}
	if err := relql.Stitch(user, posts, users, children); err != nil {
		panic(err)
	}
	for _, u := range users {
		fmt.Println(u["name"], len(u["posts"].([]relql.Record)))
	}

	// Output:
	// alice 2
	// bob 0
}

func ExampleParseQuery() {
	q, err := relql.ParseQuery([]byte(`
select: [title]
include:
  author: {select: [name]}
orderBy: ["-id"]
limit: 5
`))
	if err != nil {
		panic(err)
	}
	fmt.Println(q.Select, q.Include[0].Relation, q.OrderBy[0].Path, q.OrderBy[0].Direction, *q.Limit)

	// Output:
	// [title] author id DESC 5
}
