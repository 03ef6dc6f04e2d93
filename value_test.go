// value_test.go
package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Value_TypeNames(t *testing.T) {
	assert.Equal(t, "number", NumberOf(1).TypeName())
	assert.Equal(t, "text", TextOf("x").TypeName())
	assert.Equal(t, "boolean", BoolOf(true).TypeName())
	assert.Equal(t, "list", ListOf().TypeName())
	assert.Equal(t, "table", NewTable().TypeName())
	assert.Equal(t, "nothing", Nothing().TypeName())
}

func Test_Value_NumberDisplay(t *testing.T) {
	// Integer-valued numbers display without a decimal point.
	assert.Equal(t, "42", NumberOf(42).Display())
	assert.Equal(t, "-3", NumberOf(-3).Display())
	assert.Equal(t, "3.14", NumberOf(3.14).Display())
	assert.Equal(t, "0.5", NumberOf(0.5).Display())
}

func Test_Value_Display(t *testing.T) {
	assert.Equal(t, "hello", TextOf("hello").Display())
	assert.Equal(t, "true", BoolOf(true).Display())
	assert.Equal(t, "nothing", Nothing().Display())
	assert.Equal(t, "[1, 2, 3]", ListOf(NumberOf(1), NumberOf(2), NumberOf(3)).Display())

	tbl := NewTable()
	tbl.Table.Set("name", TextOf("Jo"))
	tbl.Table.Set("age", NumberOf(30))
	assert.Equal(t, `["name": Jo, "age": 30]`, tbl.Display())
}

func Test_Value_Truthiness(t *testing.T) {
	assert.False(t, Nothing().IsTruthy())
	assert.False(t, NumberOf(0).IsTruthy())
	assert.True(t, NumberOf(-1).IsTruthy())
	assert.False(t, TextOf("").IsTruthy())
	assert.True(t, TextOf("x").IsTruthy())
	assert.False(t, ListOf().IsTruthy())
	assert.True(t, ListOf(Nothing()).IsTruthy())
}

func Test_Value_Equality(t *testing.T) {
	assert.True(t, NumberOf(2).Equal(NumberOf(2)))
	assert.False(t, NumberOf(2).Equal(TextOf("2")))
	assert.True(t, Nothing().Equal(Nothing()))

	a := ListOf(NumberOf(1), TextOf("x"))
	b := ListOf(NumberOf(1), TextOf("x"))
	assert.True(t, a.Equal(b))
	b.List.Add(Nothing())
	assert.False(t, a.Equal(b))
}

func Test_Value_AsNumber(t *testing.T) {
	n, err := TextOf("42").AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 42.0, n.Num)

	n, err = TextOf("3.5").AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 3.5, n.Num)

	_, err = TextOf("not a number").AsNumber()
	assert.Error(t, err)

	n, err = BoolOf(true).AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 1.0, n.Num)
}

func Test_Value_ListReferenceSemantics(t *testing.T) {
	original := ListOf(NumberOf(1))
	alias := original
	alias.List.Add(NumberOf(2))
	assert.Equal(t, 2, original.List.Length())
}

func Test_Value_ListOperations(t *testing.T) {
	lst := ListOf(NumberOf(1), NumberOf(2), NumberOf(3))

	v, err := lst.List.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.Num)

	_, err = lst.List.Get(5)
	assert.Error(t, err)

	require.NoError(t, lst.List.Set(0, NumberOf(9)))
	v, _ = lst.List.Get(0)
	assert.Equal(t, 9.0, v.Num)

	assert.True(t, lst.List.Remove(NumberOf(2)))
	assert.False(t, lst.List.Remove(NumberOf(99)))
	assert.Equal(t, 2, lst.List.Length())

	assert.True(t, lst.List.Contains(NumberOf(3)))
}

func Test_Value_TableInsertionOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Table.Set("zebra", NumberOf(1))
	tbl.Table.Set("apple", NumberOf(2))
	tbl.Table.Set("mango", NumberOf(3))
	tbl.Table.Set("apple", NumberOf(4))

	assert.Equal(t, []string{"zebra", "apple", "mango"}, tbl.Table.Keys)
	v, err := tbl.Table.Get("apple")
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.Num)
}

func Test_Value_TableMissingKey(t *testing.T) {
	tbl := NewTable()
	tbl.Table.Set("name", TextOf("Jo"))

	_, err := tbl.Table.Get("age")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}
