// Package value implements the Context data model: a closed tagged union
// of Text, List, and Table values, used as the shared build context and
// as the per-asset context clone consumed by the template engine.
package value

import "strings"

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindText Kind = iota
	KindList
	KindTable
)

// Value is a Text, a List, or a Table. Zero value is an empty Text.
type Value struct {
	kind  Kind
	text  string
	list  []Value
	table *Table
}

// Text returns a Value holding the given string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// List returns a Value holding an ordered sequence of values.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// ListOf is like List but takes a slice directly, without copying the header.
func ListOf(items []Value) Value { return Value{kind: KindList, list: items} }

// TableValue wraps a *Table as a Value.
func TableValue(t *Table) Value {
	if t == nil {
		t = NewTable()
	}
	return Value{kind: KindTable, table: t}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsText() bool  { return v.kind == KindText }
func (v Value) IsList() bool  { return v.kind == KindList }
func (v Value) IsTable() bool { return v.kind == KindTable }

// AsText returns the text content and whether the value was a Text.
func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// AsList returns the list content and whether the value was a List.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsTable returns the table content and whether the value was a Table.
func (v Value) AsTable() (*Table, bool) {
	if v.kind != KindTable {
		return nil, false
	}
	return v.table, true
}

// Truthy reports whether v counts as true in `{~ if}` conditions: text
// is truthy unless it is empty, "false", or "0"; a list or table is
// truthy when non-empty.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindText:
		return v.text != "" && v.text != "false" && v.text != "0"
	case KindList:
		return len(v.list) > 0
	case KindTable:
		return v.table != nil && v.table.Len() > 0
	default:
		return false
	}
}

// Clone performs a deep copy of v, so mutations on a child context never
// leak back into the parent.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		cp := make([]Value, len(v.list))
		for i, item := range v.list {
			cp[i] = item.Clone()
		}
		return Value{kind: KindList, list: cp}
	case KindTable:
		return Value{kind: KindTable, table: v.table.Clone()}
	default:
		return v
	}
}

// CoerceText renders v as text for `{~ get}` interpolation: Text renders
// as-is, List renders as its items joined by ", ", and Table renders as
// empty text (tables have no scalar rendering).
func (v Value) CoerceText() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.CoerceText()
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Table is an insertion-ordered string-keyed map of Value, so that
// `{~ for k, v in table}` iterates entries in the order they were
// inserted.
type Table struct {
	keys []string
	vals map[string]Value
}

// NewTable returns an empty, ready-to-use Table.
func NewTable() *Table {
	return &Table{vals: make(map[string]Value)}
}

// Len returns the number of entries in t.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Get returns the value stored at key and whether it was present.
func (t *Table) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.vals[key]
	return v, ok
}

// Set inserts or replaces the value at key, preserving original
// insertion order on replace.
func (t *Table) Set(key string, v Value) {
	if _, exists := t.vals[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = v
}

// Delete removes key from t, if present.
func (t *Table) Delete(key string) {
	if _, exists := t.vals[key]; !exists {
		return
	}
	delete(t.vals, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the table's keys in insertion order. The returned slice
// must not be mutated by callers.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return t.keys
}

// Clone performs a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return NewTable()
	}
	cp := &Table{
		keys: append([]string(nil), t.keys...),
		vals: make(map[string]Value, len(t.vals)),
	}
	for k, v := range t.vals {
		cp.vals[k] = v.Clone()
	}
	return cp
}

// Merge deep-merges other into t: scalars (Text) and Lists from other
// replace t's entry for the same key; Tables merge recursively,
// key-by-key, with other's entries overriding t's. This realizes the
// profile-over-default override rule: the more specific table wins,
// key-by-key, except where both sides are tables and merge recurses.
func (t *Table) Merge(other *Table) *Table {
	result := t.Clone()
	if other == nil {
		return result
	}
	for _, k := range other.keys {
		ov, _ := other.Get(k)
		if existing, ok := result.Get(k); ok && existing.IsTable() && ov.IsTable() {
			existingTable, _ := existing.AsTable()
			otherTable, _ := ov.AsTable()
			result.Set(k, TableValue(existingTable.Merge(otherTable)))
			continue
		}
		result.Set(k, ov.Clone())
	}
	return result
}

// Dotted resolves a dotted key path (e.g. "user.name") against t,
// traversing nested tables one segment at a time. Missing keys resolve
// to (Value{}, false) rather than an error.
func (t *Table) Dotted(path string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	segments := strings.Split(path, ".")
	current := t
	for i, segment := range segments {
		v, ok := current.Get(segment)
		if !ok {
			return Value{}, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		nextTable, ok := v.AsTable()
		if !ok {
			return Value{}, false
		}
		current = nextTable
	}
	return Value{}, false
}

// SetDotted inserts v at a dotted key path, creating intermediate tables
// as needed. Used for `{~ use}` part `with ... as` bindings, whose key
// may be a dotted path.
func (t *Table) SetDotted(path string, v Value) {
	segments := strings.Split(path, ".")
	current := t
	for i, segment := range segments {
		if i == len(segments)-1 {
			current.Set(segment, v)
			return
		}
		existing, ok := current.Get(segment)
		var nextTable *Table
		if ok {
			nextTable, ok = existing.AsTable()
		}
		if !ok {
			nextTable = NewTable()
			current.Set(segment, TableValue(nextTable))
		}
		current = nextTable
	}
}
