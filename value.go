// value.go: the Steps runtime value model
//
// A Value is a tagged struct covering the six Steps types: number, text,
// boolean, list, table and nothing. Numbers are float64 throughout;
// integer-valued numbers display without a decimal point. Lists and
// tables are reference cells, so two variables can share one underlying
// collection and observe each other's mutations.
package steps

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueTag discriminates the variants of Value.
type ValueTag int

const (
	TagNothing ValueTag = iota
	TagNumber
	TagText
	TagBool
	TagList
	TagTable
)

// Value is a single Steps runtime value. The zero value is nothing.
type Value struct {
	Tag   ValueTag
	Num   float64
	Str   string
	Bool  bool
	List  *ListValue
	Table *TableValue
}

// ListValue is the shared cell behind a list value.
type ListValue struct {
	Elements []Value
}

// TableValue is the shared cell behind a table value. Keys preserves
// insertion order for display and iteration.
type TableValue struct {
	Keys  []string
	Items map[string]Value
}

// Constructors.

func Nothing() Value            { return Value{Tag: TagNothing} }
func NumberOf(v float64) Value  { return Value{Tag: TagNumber, Num: v} }
func TextOf(s string) Value     { return Value{Tag: TagText, Str: s} }
func BoolOf(b bool) Value       { return Value{Tag: TagBool, Bool: b} }
func ListOf(elems ...Value) Value {
	return Value{Tag: TagList, List: &ListValue{Elements: elems}}
}

func NewTable() Value {
	return Value{Tag: TagTable, Table: &TableValue{Items: map[string]Value{}}}
}

// TypeName returns the Steps name of the value's type.
func (v Value) TypeName() string {
	switch v.Tag {
	case TagNumber:
		return "number"
	case TagText:
		return "text"
	case TagBool:
		return "boolean"
	case TagList:
		return "list"
	case TagTable:
		return "table"
	default:
		return "nothing"
	}
}

// IsTruthy reports the value's meaning in a boolean context: nonzero
// numbers, nonempty text and nonempty collections are true.
func (v Value) IsTruthy() bool {
	switch v.Tag {
	case TagNumber:
		return v.Num != 0
	case TagText:
		return len(v.Str) > 0
	case TagBool:
		return v.Bool
	case TagList:
		return len(v.List.Elements) > 0
	case TagTable:
		return len(v.Table.Keys) > 0
	default:
		return false
	}
}

// Display renders the value the way the display statement prints it.
// Text appears without quotes at the top level; nested text inside lists
// and tables does too, except table keys which are always quoted.
func (v Value) Display() string {
	switch v.Tag {
	case TagNumber:
		return formatNumber(v.Num)
	case TagText:
		return v.Str
	case TagBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TagList:
		parts := make([]string, len(v.List.Elements))
		for i, e := range v.List.Elements {
			parts[i] = e.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TagTable:
		parts := make([]string, len(v.Table.Keys))
		for i, k := range v.Table.Keys {
			parts[i] = fmt.Sprintf("%q: %s", k, v.Table.Items[k].Display())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "nothing"
	}
}

// formatNumber prints integer-valued floats without a decimal point.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal is deep structural equality. Values of different types are never
// equal.
func (v Value) Equal(other Value) bool {
	if v.Tag != other.Tag {
		return false
	}
	switch v.Tag {
	case TagNumber:
		return v.Num == other.Num
	case TagText:
		return v.Str == other.Str
	case TagBool:
		return v.Bool == other.Bool
	case TagList:
		a, b := v.List.Elements, other.List.Elements
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case TagTable:
		a, b := v.Table, other.Table
		if len(a.Keys) != len(b.Keys) {
			return false
		}
		for k, av := range a.Items {
			bv, ok := b.Items[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return true // nothing == nothing
	}
}

// AsNumber converts the value to a number. Text must parse as a decimal
// number; booleans become 1 or 0; lists, tables and nothing never
// convert.
func (v Value) AsNumber() (Value, error) {
	switch v.Tag {
	case TagNumber:
		return v, nil
	case TagText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot convert %q to number", v.Str)
		}
		return NumberOf(f), nil
	case TagBool:
		if v.Bool {
			return NumberOf(1), nil
		}
		return NumberOf(0), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to number", v.TypeName())
	}
}

// AsText converts any value to its display text.
func (v Value) AsText() Value { return TextOf(v.Display()) }

// AsBool converts any value to a boolean via truthiness.
func (v Value) AsBool() Value { return BoolOf(v.IsTruthy()) }

// ---------------------------------------------------------------------------
// List operations

func (l *ListValue) Length() int { return len(l.Elements) }

// Get returns the element at index. Errors on out of range.
func (l *ListValue) Get(index int) (Value, error) {
	if index < 0 || index >= len(l.Elements) {
		return Value{}, fmt.Errorf("index %d out of bounds for list of length %d", index, len(l.Elements))
	}
	return l.Elements[index], nil
}

// Set replaces the element at index. Errors on out of range.
func (l *ListValue) Set(index int, v Value) error {
	if index < 0 || index >= len(l.Elements) {
		return fmt.Errorf("index %d out of bounds for list of length %d", index, len(l.Elements))
	}
	l.Elements[index] = v
	return nil
}

// Add appends an item to the end of the list.
func (l *ListValue) Add(v Value) {
	l.Elements = append(l.Elements, v)
}

// Remove deletes the first occurrence of item. It reports whether the
// item was found; removing an absent item is not an error.
func (l *ListValue) Remove(item Value) bool {
	for i, e := range l.Elements {
		if e.Equal(item) {
			l.Elements = append(l.Elements[:i], l.Elements[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the list holds an equal item.
func (l *ListValue) Contains(item Value) bool {
	for _, e := range l.Elements {
		if e.Equal(item) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Table operations

func (t *TableValue) Length() int { return len(t.Keys) }

// Get returns the value for key. A missing key is an error that lists
// the available keys.
func (t *TableValue) Get(key string) (Value, error) {
	v, ok := t.Items[key]
	if !ok {
		quoted := make([]string, len(t.Keys))
		for i, k := range t.Keys {
			quoted[i] = fmt.Sprintf("%q", k)
		}
		return Value{}, fmt.Errorf("key %q not found. Available keys: %s", key, strings.Join(quoted, ", "))
	}
	return v, nil
}

// Set stores a value under key, appending to the key order on first
// insert.
func (t *TableValue) Set(key string, v Value) {
	if _, exists := t.Items[key]; !exists {
		t.Keys = append(t.Keys, key)
	}
	t.Items[key] = v
}

// HasKey reports whether the key exists.
func (t *TableValue) HasKey(key string) bool {
	_, ok := t.Items[key]
	return ok
}

// KeyList returns the keys as a list of text values, in insertion order.
func (t *TableValue) KeyList() Value {
	keys := make([]Value, len(t.Keys))
	for i, k := range t.Keys {
		keys[i] = TextOf(k)
	}
	return ListOf(keys...)
}

// SameType reports whether two values share a Steps type.
func SameType(a, b Value) bool { return a.Tag == b.Tag }
