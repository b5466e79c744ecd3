package postgres

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zoobzio/relql/internal/render"
	"github.com/zoobzio/relql/internal/types"
)

func intPtr(v int) *int { return &v }

func userPlan() *types.Plan {
	return &types.Plan{
		Table: types.TableRef{Schema: "public", Table: "users", Alias: "a", Model: "user"},
		Columns: []types.Column{
			{TableAlias: "a", Name: "id", Field: "id", OutputAlias: "a_0"},
			{TableAlias: "a", Name: "name", Field: "name", OutputAlias: "a_1"},
		},
		NextAlias: 1,
	}
}

func TestNew(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New() returned nil")
	}
	if r.Name() != "PostgreSQL" {
		t.Errorf("Name() = %q, want %q", r.Name(), "PostgreSQL")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	r := New()
	tests := map[string]string{
		"users":     `"users"`,
		"user":      `"user"`,
		`we"ird`:    `"we""ird"`,
		"MixedCase": `"MixedCase"`,
	}
	for in, want := range tests {
		if got := r.QuoteIdentifier(in); got != want {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRender_SimpleSelect(t *testing.T) {
	result, err := New().Render(userPlan())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	expected := `SELECT "a"."id" AS "a_0", "a"."name" AS "a_1" FROM "public"."users" AS "a"`
	if result.SQL != expected {
		t.Errorf("SQL = %q, want %q", result.SQL, expected)
	}
	if len(result.Params) != 0 {
		t.Errorf("Params = %v, want none", result.Params)
	}
}

func TestRender_Pagination(t *testing.T) {
	tests := []struct {
		name     string
		limit    *int
		offset   *int
		expected string
		params   []any
	}{
		{"limit", intPtr(10), nil, ` LIMIT $1`, []any{10}},
		{"offset", nil, intPtr(5), ` OFFSET $1`, []any{5}},
		{"both", intPtr(10), intPtr(5), ` LIMIT $1 OFFSET $2`, []any{10, 5}},
		{"zero limit", intPtr(0), nil, ` LIMIT $1`, []any{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := userPlan()
			plan.Limit, plan.Offset = tt.limit, tt.offset
			result, err := New().Render(plan)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			want := `SELECT "a"."id" AS "a_0", "a"."name" AS "a_1" FROM "public"."users" AS "a"` + tt.expected
			if result.SQL != want {
				t.Errorf("SQL = %q, want %q", result.SQL, want)
			}
			if !reflect.DeepEqual(result.Params, tt.params) {
				t.Errorf("Params = %v, want %v", result.Params, tt.params)
			}
		})
	}
}

func TestRender_Locks(t *testing.T) {
	tests := map[types.LockMode]string{
		types.LockUpdate:      " FOR UPDATE",
		types.LockNoKeyUpdate: " FOR NO KEY UPDATE",
		types.LockShare:       " FOR SHARE",
		types.LockKeyShare:    " FOR KEY SHARE",
	}
	for mode, suffix := range tests {
		t.Run(string(mode), func(t *testing.T) {
			plan := userPlan()
			plan.OrderBy = []types.OrderTerm{{TableAlias: "a", Column: "id", Direction: types.ASC}}
			plan.Limit = intPtr(1)
			plan.Lock = mode
			result, err := New().Render(plan)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			want := `SELECT "a"."id" AS "a_0", "a"."name" AS "a_1" FROM "public"."users" AS "a" ORDER BY "a"."id" ASC LIMIT $1` + suffix
			if result.SQL != want {
				t.Errorf("SQL = %q, want %q", result.SQL, want)
			}
		})
	}
}

func TestRender_CompositeBatchKeys(t *testing.T) {
	plan := &types.Plan{
		Table: types.TableRef{Schema: "public", Table: "users", Alias: "a", Model: "user"},
		Columns: []types.Column{
			{TableAlias: "a", Name: "id", Field: "id", OutputAlias: "a_0"},
			{TableAlias: "a", Name: "org_id", Field: "org_id", OutputAlias: "a_1"},
			{TableAlias: "a", Name: "org_type", Field: "org_type", OutputAlias: "a_2"},
		},
		Batch: &types.LateralBatch{
			InnerAlias: "b",
			OuterAlias: "c",
			Keys: []types.BatchKey{
				{Column: "org_id", Type: "int", Values: []any{1, 1}},
				{Column: "org_type", Type: "text", Values: []any{"team", "company"}},
			},
		},
		NextAlias: 3,
	}

	result, err := New().Render(plan)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	expected := `SELECT "c".* FROM (SELECT UNNEST(ARRAY[$1,$2]::int[]) AS "org_id", UNNEST(ARRAY[$3,$4]::text[]) AS "org_type") AS "b" JOIN LATERAL (SELECT "a"."id" AS "a_0", "a"."org_id" AS "a_1", "a"."org_type" AS "a_2" FROM "public"."users" AS "a" WHERE (1=1) AND ("b"."org_id" = "a"."org_id" AND "b"."org_type" = "a"."org_type")) "c" ON TRUE`
	if result.SQL != expected {
		t.Errorf("SQL = %q, want %q", result.SQL, expected)
	}
	if !reflect.DeepEqual(result.Params, []any{1, 1, "team", "company"}) {
		t.Errorf("Params = %v", result.Params)
	}
}

func TestRender_BatchWithWhere(t *testing.T) {
	plan := userPlan()
	plan.Where = types.Concat(types.Ident("a", "name"), types.Raw(" = "), types.Value("alice"))
	plan.Batch = &types.LateralBatch{
		InnerAlias: "b",
		OuterAlias: "c",
		Keys:       []types.BatchKey{{Column: "id", Type: "bigint", Values: []any{7}}},
	}

	result, err := New().Render(plan)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	expected := `SELECT "c".* FROM (SELECT UNNEST(ARRAY[$1]::bigint[]) AS "id") AS "b" JOIN LATERAL (SELECT "a"."id" AS "a_0", "a"."name" AS "a_1" FROM "public"."users" AS "a" WHERE ("a"."name" = $2) AND ("b"."id" = "a"."id")) "c" ON TRUE`
	if result.SQL != expected {
		t.Errorf("SQL = %q, want %q", result.SQL, expected)
	}
	if !reflect.DeepEqual(result.Params, []any{7, "alice"}) {
		t.Errorf("Params = %v", result.Params)
	}
}

func TestRender_Pretty(t *testing.T) {
	plan := userPlan()
	plan.Where = types.Concat(types.Ident("a", "id"), types.Raw(" = "), types.Value(1))
	result, err := New().Render(plan)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	expected := "SELECT \"a\".\"id\" AS \"a_0\", \"a\".\"name\" AS \"a_1\"\nFROM \"public\".\"users\" AS \"a\"\nWHERE \"a\".\"id\" = $1\n-- $1 = 1"
	if got := result.Pretty(); got != expected {
		t.Errorf("Pretty() = %q, want %q", got, expected)
	}
}

func TestCapabilities(t *testing.T) {
	caps := New().Capabilities()
	if caps.Lateral != render.LateralJoin {
		t.Errorf("Lateral = %v, want LateralJoin", caps.Lateral)
	}
	if !caps.SupportsLock(types.LockKeyShare) {
		t.Error("PostgreSQL should support FOR KEY SHARE")
	}
}

func TestRender_NilPlan(t *testing.T) {
	_, err := New().Render(nil)
	if err == nil {
		t.Fatal("Expected error for nil plan")
	}
	if errors.Is(err, render.ErrUnsupported) {
		t.Error("nil plan is not an unsupported feature")
	}
}
