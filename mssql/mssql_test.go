package mssql

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
		Table: types.TableRef{Schema: "dbo", Table: "users", Alias: "a", Model: "user"},
		Columns: []types.Column{
			{TableAlias: "a", Name: "id", Field: "id", OutputAlias: "a_0"},
			{TableAlias: "a", Name: "name", Field: "name", OutputAlias: "a_1"},
		},
		NextAlias: 1,
	}
}

const userSelect = "SELECT [a].[id] AS [a_0], [a].[name] AS [a_1] FROM [dbo].[users] AS [a]"

func TestNew(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New() returned nil")
	}
	if r.Name() != "mssql" {
		t.Errorf("Name() = %q, want %q", r.Name(), "mssql")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	r := New()
	if got := r.QuoteIdentifier("order"); got != "[order]" {
		t.Errorf("QuoteIdentifier(order) = %q", got)
	}
	if got := r.QuoteIdentifier("a]b"); got != "[a]]b]" {
		t.Errorf("QuoteIdentifier(a]b) = %q", got)
	}
}

func TestPlaceholder(t *testing.T) {
	if got := New().Placeholder(3); got != "@p3" {
		t.Errorf("Placeholder(3) = %q, want @p3", got)
	}
}

func TestRender_SimpleSelect(t *testing.T) {
	result, err := New().Render(userPlan())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.SQL != userSelect {
		t.Errorf("SQL = %q, want %q", result.SQL, userSelect)
	}
}

func TestRender_Pagination(t *testing.T) {
	order := []types.OrderTerm{{TableAlias: "a", Column: "name", Direction: types.ASC}}
	tests := []struct {
		name     string
		order    []types.OrderTerm
		limit    *int
		offset   *int
		expected string
		params   []any
	}{
		{
			name:     "limit without order",
			limit:    intPtr(10),
			expected: userSelect + " ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT @p1 ROWS ONLY",
			params:   []any{10},
		},
		{
			name:     "limit and offset with order",
			order:    order,
			limit:    intPtr(10),
			offset:   intPtr(5),
			expected: userSelect + " ORDER BY [a].[name] ASC OFFSET @p1 ROWS FETCH NEXT @p2 ROWS ONLY",
			params:   []any{5, 10},
		},
		{
			name:     "offset only",
			order:    order,
			offset:   intPtr(5),
			expected: userSelect + " ORDER BY [a].[name] ASC OFFSET @p1 ROWS",
			params:   []any{5},
		},
		{
			name:     "order without pagination",
			order:    order,
			expected: userSelect + " ORDER BY [a].[name] ASC OFFSET 0 ROWS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := userPlan()
			plan.OrderBy = tt.order
			plan.Limit, plan.Offset = tt.limit, tt.offset
			result, err := New().Render(plan)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if result.SQL != tt.expected {
				t.Errorf("SQL = %q, want %q", result.SQL, tt.expected)
			}
			if len(tt.params) > 0 && !reflect.DeepEqual(result.Params, tt.params) {
				t.Errorf("Params = %v, want %v", result.Params, tt.params)
			}
		})
	}
}

func TestRender_LockUnsupported(t *testing.T) {
	plan := userPlan()
	plan.Lock = types.LockUpdate
	_, err := New().Render(plan)
	if !errors.Is(err, render.ErrUnsupported) {
		t.Errorf("Render() error = %v, want ErrUnsupported", err)
	}
}

func TestRender_CrossApplyBatch(t *testing.T) {
	plan := userPlan()
	plan.OrderBy = []types.OrderTerm{{TableAlias: "a", Column: "name", Direction: types.DESC}}
	plan.Limit = intPtr(2)
	plan.Batch = &types.LateralBatch{
		InnerAlias: "b",
		OuterAlias: "c",
		Keys: []types.BatchKey{
			{Column: "id", Type: "int", Values: []any{1, 2}},
			{Column: "name", Type: "text", Values: []any{"x", "y"}},
		},
	}

	result, err := New().Render(plan)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	expected := "SELECT [c].* FROM (VALUES (@p1, @p2), (@p3, @p4)) AS [b]([id], [name]) CROSS APPLY (SELECT [a].[id] AS [a_0], [a].[name] AS [a_1] FROM [dbo].[users] AS [a] WHERE (1=1) AND ([b].[id] = [a].[id] AND [b].[name] = [a].[name]) ORDER BY [a].[name] DESC OFFSET 0 ROWS FETCH NEXT @p5 ROWS ONLY) AS [c]"
	if result.SQL != expected {
		t.Errorf("SQL = %q, want %q", result.SQL, expected)
	}
	if !reflect.DeepEqual(result.Params, []any{1, "x", 2, "y", 2}) {
		t.Errorf("Params = %v", result.Params)
	}
}

func TestRender_DerivedTableJoin(t *testing.T) {
	sub := &types.Plan{
		Table: types.TableRef{Schema: "dbo", Table: "users", Alias: "b", Model: "user"},
		Columns: []types.Column{
			{TableAlias: "b", Name: "id", Field: "id", OutputAlias: "b_0", Path: []string{"assignee"}},
		},
		Joins: []types.Join{{
			Type:     types.InnerJoin,
			Relation: "org",
			Target:   types.TableRef{Schema: "dbo", Table: "orgs", Alias: "c", Model: "org"},
			On: []types.ColumnPair{{
				Own:    types.ColumnRef{TableAlias: "b", Column: "org_id"},
				Target: types.ColumnRef{TableAlias: "c", Column: "id"},
			}},
		}},
	}
	plan := &types.Plan{
		Table: types.TableRef{Schema: "dbo", Table: "tasks", Alias: "a", Model: "task"},
		Columns: []types.Column{
			{TableAlias: "a", Name: "id", Field: "id", OutputAlias: "a_0"},
			{TableAlias: "b_subq", Name: "b_0", Field: "id", OutputAlias: "b_0", Path: []string{"assignee"}},
		},
		Joins: []types.Join{{
			Type:     types.LeftJoin,
			Relation: "assignee",
			Target:   types.TableRef{Schema: "dbo", Table: "users", Alias: "b_subq", Model: "user"},
			Subquery: sub,
			On: []types.ColumnPair{{
				Own:    types.ColumnRef{TableAlias: "a", Column: "assignee_id"},
				Target: types.ColumnRef{TableAlias: "b_subq", Column: "b_0"},
			}},
		}},
	}

	result, err := New().Render(plan)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	expected := "SELECT [a].[id] AS [a_0], [b_subq].[b_0] AS [b_0] FROM [dbo].[tasks] AS [a] LEFT JOIN (SELECT [b].[id] AS [b_0] FROM [dbo].[users] AS [b] INNER JOIN [dbo].[orgs] AS [c] ON [b].[org_id] = [c].[id]) AS [b_subq] ON [a].[assignee_id] = [b_subq].[b_0]"
	if result.SQL != expected {
		t.Errorf("SQL = %q, want %q", result.SQL, expected)
	}
}

func TestCapabilities(t *testing.T) {
	caps := New().Capabilities()
	if caps.Lateral != render.LateralApply {
		t.Errorf("Lateral = %v, want LateralApply", caps.Lateral)
	}
	if caps.SupportsLock(types.LockUpdate) {
		t.Error("SQL Server has no FOR UPDATE clause")
	}
}
