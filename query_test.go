package relql

import "testing"

func TestParseOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    Order
		wantErr bool
	}{
		{input: "name", want: Order{Path: "name", Direction: ASC}},
		{input: "-created_at", want: Order{Path: "created_at", Direction: DESC}},
		{input: "author.name desc", want: Order{Path: "author.name", Direction: DESC}},
		{input: "  id ASC ", want: Order{Path: "id", Direction: ASC}},
		{input: "id sideways", wantErr: true},
		{input: "id asc extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOrder(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseOrder(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOrder(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseOrder(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection(""); err != nil || d != ASC {
		t.Errorf("ParseDirection(\"\") = %q, %v", d, err)
	}
	if d, err := ParseDirection("Desc"); err != nil || d != DESC {
		t.Errorf("ParseDirection(\"Desc\") = %q, %v", d, err)
	}
	if _, err := ParseDirection("down"); err == nil {
		t.Error("Expected error for invalid direction")
	}
}

func TestQueryValidate(t *testing.T) {
	var nilQuery *Query
	if err := nilQuery.Validate(); err != nil {
		t.Errorf("nil query should be valid, got %v", err)
	}

	neg := -1
	tests := []struct {
		name  string
		query *Query
	}{
		{"negative offset", &Query{Offset: &neg}},
		{"bad lock", &Query{For: "exclusive"}},
		{"empty include", &Query{Include: []Include{{}}}},
		{"duplicate include", &Query{Include: []Include{{Relation: "a"}, {Relation: "a"}}}},
		{"nested invalid", &Query{Include: []Include{{Relation: "a", Query: &Query{Limit: &neg}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.query.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestQueryIncluded(t *testing.T) {
	sub := &Query{Select: []string{"name"}}
	q := &Query{Include: []Include{{Relation: "author", Query: sub}}}

	if got, ok := q.included("author"); !ok || got != sub {
		t.Errorf("included(author) = %v, %v", got, ok)
	}
	if _, ok := q.included("comments"); ok {
		t.Error("comments should not be included")
	}
}
