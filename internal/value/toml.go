package value

import (
	"fmt"
	"sort"
)

// FromTOML converts a generically-decoded TOML value (as produced by
// toml.Unmarshal into an `any`, i.e. maps, slices, and scalars) into a
// Value tree. Scalars that are not already strings are rendered with
// fmt.Sprint, since Context only has a Text leaf type: values are
// scalars (text), ordered lists, or nested tables.
func FromTOML(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Text("")
	case string:
		return Text(v)
	case bool:
		if v {
			return Text("true")
		}
		return Text("false")
	case map[string]any:
		// go-toml/v2 decodes tables into plain Go maps, which have no
		// inherent order; sort keys alphabetically so table iteration is
		// at least deterministic across runs (not necessarily the
		// original document order, which Go's map type cannot preserve).
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		table := NewTable()
		for _, k := range keys {
			table.Set(k, FromTOML(v[k]))
		}
		return TableValue(table)
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = FromTOML(item)
		}
		return ListOf(items)
	default:
		return Text(fmt.Sprint(v))
	}
}

// TableFromTOML converts a decoded top-level TOML table (map[string]any)
// directly into a *Table, for callers that know the root is always a
// table — the outer Context is always a Table.
func TableFromTOML(raw map[string]any) *Table {
	v := FromTOML(raw)
	t, _ := v.AsTable()
	return t
}
