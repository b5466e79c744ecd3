package relql

import (
	"slices"
	"strings"
)

// Record is one decoded result object. Many-to-one relations hold a Record
// (or nil), batched relations a []Record.
type Record map[string]any

// Row is one result row keyed by output column alias.
type Row map[string]any

// Decode folds rows into records, placing every visible column under its
// path. A many-to-one object whose columns are all NULL, including those of
// its nested objects, decodes to nil.
func Decode(plan *Plan, rows []Row) []Record {
	cols := plan.VisibleColumns()

	// Objects are created parents first: a shorter path never sorts after
	// a longer one sharing its prefix.
	var paths [][]string
	for _, c := range cols {
		if !slices.ContainsFunc(paths, func(p []string) bool { return slices.Equal(p, c.Path) }) {
			paths = append(paths, c.Path)
		}
	}
	slices.SortStableFunc(paths, func(a, b []string) int { return len(a) - len(b) })

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		objects := make(map[string]Record, len(paths))
		root := Record{}
		objects[""] = root
		for _, p := range paths {
			if len(p) == 0 {
				continue
			}
			obj := Record{}
			objects[pathKey(p)] = obj
			parent := objects[pathKey(p[:len(p)-1])]
			if parent == nil {
				parent = ensurePath(objects, p[:len(p)-1])
			}
			parent[p[len(p)-1]] = obj
		}

		filled := make(map[string]bool, len(paths))
		for _, c := range cols {
			v := row[c.OutputAlias]
			objects[pathKey(c.Path)][c.Field] = v
			if v != nil {
				for i := len(c.Path); i >= 0; i-- {
					filled[pathKey(c.Path[:i])] = true
				}
			}
		}

		// Deepest first, so a nil child is recorded before its parent is
		// checked.
		for i := len(paths) - 1; i >= 0; i-- {
			p := paths[i]
			if len(p) == 0 || filled[pathKey(p)] {
				continue
			}
			parent := objects[pathKey(p[:len(p)-1])]
			parent[p[len(p)-1]] = nil
		}
		out = append(out, root)
	}
	return out
}

// ensurePath creates intermediate objects for a path whose own columns were
// not selected.
func ensurePath(objects map[string]Record, p []string) Record {
	if obj, ok := objects[pathKey(p)]; ok {
		return obj
	}
	parent := ensurePath(objects, p[:len(p)-1])
	obj := Record{}
	parent[p[len(p)-1]] = obj
	objects[pathKey(p)] = obj
	return obj
}

func pathKey(p []string) string {
	return strings.Join(p, "\x00")
}
