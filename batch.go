package relql

import (
	"fmt"
	"strings"

	"github.com/zoobzio/relql/internal/types"
)

// ParentKeys collects the distinct, non-NULL key tuples of a batched relation
// from the parent records, in first-seen order. The keys are named after the
// columns of the model that holds the relation's References: the target for
// 1:N, the join model for N:N.
func ParentKeys(reg Registry, parent *Model, rel Relation, parents []Record) ([]BatchKey, error) {
	keyModel, err := batchModel(reg, parent, rel)
	if err != nil {
		return nil, err
	}

	keys := make([]BatchKey, len(rel.References))
	for i, ref := range rel.References {
		f, err := keyModel.Field(ref)
		if err != nil {
			return nil, err
		}
		keys[i] = BatchKey{Column: f.Column, Type: f.Type}
	}

	seen := make(map[string]bool, len(parents))
	for _, rec := range parents {
		tuple, ok := recordKey(rec, rel.Fields)
		if !ok || seen[tuple] {
			continue
		}
		seen[tuple] = true
		for i, f := range rel.Fields {
			keys[i].Values = append(keys[i].Values, rec[f])
		}
	}
	return keys, nil
}

// SplitKeys splits a multi-row key set into one key set per row, for
// dialects that cannot render a lateral batch.
func SplitKeys(keys []BatchKey) [][]BatchKey {
	if len(keys) == 0 {
		return nil
	}
	rows := keys[0].Rows()
	out := make([][]BatchKey, 0, rows)
	for r := 0; r < rows; r++ {
		one := make([]BatchKey, len(keys))
		for i, k := range keys {
			one[i] = BatchKey{Column: k.Column, Type: k.Type, Values: []any{k.Values[r]}}
		}
		out = append(out, one)
	}
	return out
}

// BatchPlan builds the lateral plan that fetches a batched relation for the
// given parent keys. For 1:N the plan reads the target model. For N:N it
// reads the join model and joins the target through ThroughRelation with q,
// so q's filter, ordering and pagination apply per parent.
func BatchPlan(reg Registry, preds PredicateCompiler, parent *Model, relation string, q *Query, keys []BatchKey, opts ...Option) (*Plan, error) {
	rel, err := parent.Relation(relation)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 || keys[0].Rows() == 0 {
		return nil, &StructuralError{
			Model:  parent.Name,
			Reason: fmt.Sprintf("batch for relation %q has no parent keys", relation),
		}
	}

	switch k := rel.Kind.(type) {
	case types.ManyToOne:
		return nil, misuse(parent, rel, "many-to-one relations are joined, not batched")
	case types.OneToMany:
		return BuildPlan(reg, preds, rel.Target, q, keys, nil, 0, opts...)
	case types.ManyToMany:
		through := &Query{
			Select:  rel.References,
			Include: []Include{{Relation: k.ThroughRelation, Query: q}},
		}
		if q != nil {
			through.For = q.For
		}
		return BuildPlan(reg, preds, k.Through, through, keys, nil, 0, opts...)
	default:
		return nil, misuse(parent, rel, "unknown relation kind")
	}
}

// BuildBatch builds the lateral plan for a batched relation keyed by the
// parents' values. It returns nil when no parent has a non-NULL key.
func BuildBatch(reg Registry, preds PredicateCompiler, parent *Model, relation string, q *Query, parents []Record, opts ...Option) (*Plan, error) {
	rel, err := parent.Relation(relation)
	if err != nil {
		return nil, err
	}
	if _, ok := rel.Kind.(types.ManyToOne); ok {
		return nil, misuse(parent, rel, "many-to-one relations are joined, not batched")
	}
	keys, err := ParentKeys(reg, parent, rel, parents)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 || keys[0].Rows() == 0 {
		return nil, nil
	}
	return BatchPlan(reg, preds, parent, relation, q, keys, opts...)
}

// Stitch assigns decoded batch rows to their parents under the relation
// name. Each parent receives the rows whose key matches its own, in the
// order they were returned; parents without rows receive an empty slice.
// For N:N the rows are join model records and the target object is lifted
// out of each.
func Stitch(parent *Model, rel Relation, parents, children []Record) error {
	var lift string
	switch k := rel.Kind.(type) {
	case types.ManyToOne:
		return misuse(parent, rel, "many-to-one relations are decoded with their parent")
	case types.OneToMany:
	case types.ManyToMany:
		lift = k.ThroughRelation
	default:
		return misuse(parent, rel, "unknown relation kind")
	}

	groups := make(map[string][]Record)
	for _, child := range children {
		key, ok := recordKey(child, rel.References)
		if !ok {
			continue
		}
		item := child
		if lift != "" {
			target, ok := child[lift].(Record)
			if !ok || target == nil {
				continue
			}
			item = target
		}
		groups[key] = append(groups[key], item)
	}

	for _, p := range parents {
		if p == nil {
			continue
		}
		key, ok := recordKey(p, rel.Fields)
		group := groups[key]
		if !ok || group == nil {
			group = []Record{}
		}
		p[rel.Name] = group
	}
	return nil
}

// batchModel returns the model holding a batched relation's References.
func batchModel(reg Registry, parent *Model, rel Relation) (*Model, error) {
	switch k := rel.Kind.(type) {
	case types.OneToMany:
		return reg.Model(rel.Target)
	case types.ManyToMany:
		return reg.Model(k.Through)
	case types.ManyToOne:
		return nil, misuse(parent, rel, "many-to-one relations are joined, not batched")
	default:
		return nil, misuse(parent, rel, "unknown relation kind")
	}
}

// recordKey canonicalizes the values of fields into a grouping key. It
// reports false when any value is NULL or missing.
func recordKey(rec Record, fields []string) (string, bool) {
	parts := make([]string, len(fields))
	for i, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil {
			return "", false
		}
		parts[i] = canonical(v)
	}
	return strings.Join(parts, "\x00"), true
}

// canonical renders a key value so that the same key read through different
// Go types (int64 from one driver, int32 or []byte from another) groups
// together.
func canonical(v any) string {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
