/// ops.go: expression evaluation and operator semantics
//
// Every operation validates its operand types and reports E302 with an
// educational hint on mismatch. Arithmetic is number-only ("added to"
// covers text concatenation); equality is structural across all types.
package steps

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func (in *Interpreter) eval(expr Expr) (Value, error) {
	switch e := expr.(type) {
	case *NumberLit:
		return NumberOf(e.Value), nil
	case *TextLit:
		return TextOf(e.Value), nil
	case *BoolLit:
		return BoolOf(e.Value), nil
	case *NothingLit:
		return Nothing(), nil

	case *ListLit:
		elements := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := in.eval(el)
			if err != nil {
				return Value{}, err
			}
			elements[i] = v
		}
		return ListOf(elements...), nil

	case *TableLit:
		table := NewTable()
		for _, pair := range e.Pairs {
			key, err := in.eval(pair.Key)
			if err != nil {
				return Value{}, err
			}
			value, err := in.eval(pair.Value)
			if err != nil {
				return Value{}, err
			}
			table.Table.Set(key.Display(), value)
		}
		return table, nil

	case *Identifier:
		return in.Env.GetVariable(e.Name, e.Loc())

	case *InputExpr:
		line, err := in.Env.Input()
		if err != nil {
			re := runtimeError(E407, e.Loc())
			re.Message = "Could not read input: " + err.Error()
			return Value{}, re
		}
		return TextOf(line), nil

	case *BinaryOp:
		return in.evalBinary(e)
	case *UnaryOp:
		return in.evalUnary(e)
	case *Convert:
		return in.evalConvert(e)
	case *FormatNumber:
		return in.evalFormatNumber(e)
	case *TypeOf:
		v, err := in.eval(e.Value)
		if err != nil {
			return Value{}, err
		}
		return TextOf(v.TypeName()), nil
	case *TypeCheck:
		v, err := in.eval(e.Value)
		if err != nil {
			return Value{}, err
		}
		return BoolOf(v.TypeName() == e.Type), nil
	case *IndexAccess:
		return in.evalIndexAccess(e)

	case *AddedTo:
		left, right, err := in.evalPair(e.Left, e.Right)
		if err != nil {
			return Value{}, err
		}
		return TextOf(left.Display() + right.Display()), nil

	case *SplitBy:
		return in.evalSplitBy(e)
	case *CharacterAt:
		return in.evalCharacterAt(e)
	case *LengthOf:
		return in.evalLengthOf(e)
	case *Contains:
		return in.evalTextPredicate(e.Text, e.Substring, e.Loc(), "contains", strings.Contains)
	case *StartsWith:
		return in.evalTextPredicate(e.Text, e.Prefix, e.Loc(), "starts with", strings.HasPrefix)
	case *EndsWith:
		return in.evalTextPredicate(e.Text, e.Suffix, e.Loc(), "ends with", strings.HasSuffix)
	case *IsIn:
		return in.evalIsIn(e)
	}

	re := runtimeError(E407, expr.Loc())
	re.Message = "Unknown expression type."
	return Value{}, re
}

func (in *Interpreter) evalPair(left, right Expr) (Value, Value, error) {
	l, err := in.eval(left)
	if err != nil {
		return Value{}, Value{}, err
	}
	r, err := in.eval(right)
	if err != nil {
		return Value{}, Value{}, err
	}
	return l, r, nil
}

// ---------------------------------------------------------------------------
// Binary and unary operators

func (in *Interpreter) evalBinary(e *BinaryOp) (Value, error) {
	left, right, err := in.evalPair(e.Left, e.Right)
	if err != nil {
		return Value{}, err
	}
	loc := e.Loc()

	switch e.Op {
	case "+":
		return numericOp(left, right, loc, "add",
			"The '+' operator works with numbers. Use 'added to' for text concatenation.",
			func(a, b float64) float64 { return a + b })
	case "-":
		return numericOp(left, right, loc, "subtract",
			"The '-' operator only works with numbers.",
			func(a, b float64) float64 { return a - b })
	case "*":
		return numericOp(left, right, loc, "multiply",
			"The '*' operator only works with numbers.",
			func(a, b float64) float64 { return a * b })
	case "/":
		if left.Tag == TagNumber && right.Tag == TagNumber && right.Num == 0 {
			return Value{}, DivisionByZeroError(loc)
		}
		return numericOp(left, right, loc, "divide",
			"The '/' operator only works with numbers.",
			func(a, b float64) float64 { return a / b })
	case "modulo":
		if left.Tag == TagNumber && right.Tag == TagNumber && right.Num == 0 {
			return Value{}, DivisionByZeroError(loc)
		}
		return numericOp(left, right, loc, "take the modulo of",
			"The 'modulo' operator only works with numbers.",
			math.Mod)

	case "is equal to", "equals":
		return BoolOf(left.Equal(right)), nil
	case "is not equal to":
		return BoolOf(!left.Equal(right)), nil

	case "is less than":
		return numericCompare(left, right, loc, e.Op, func(a, b float64) bool { return a < b })
	case "is greater than":
		return numericCompare(left, right, loc, e.Op, func(a, b float64) bool { return a > b })
	case "is less than or equal to":
		return numericCompare(left, right, loc, e.Op, func(a, b float64) bool { return a <= b })
	case "is greater than or equal to":
		return numericCompare(left, right, loc, e.Op, func(a, b float64) bool { return a >= b })

	case "and":
		return BoolOf(left.IsTruthy() && right.IsTruthy()), nil
	case "or":
		return BoolOf(left.IsTruthy() || right.IsTruthy()), nil
	}

	re := runtimeError(E407, loc)
	re.Message = "Unknown binary operator: " + e.Op
	return Value{}, re
}

func numericOp(left, right Value, loc SourceLocation, verb, hint string, op func(a, b float64) float64) (Value, error) {
	if left.Tag != TagNumber || right.Tag != TagNumber {
		e := typeErr(E302, loc)
		e.Message = fmt.Sprintf("Cannot %s %s and %s.", verb, left.TypeName(), right.TypeName())
		e.Hint = hint
		return Value{}, e
	}
	return NumberOf(op(left.Num, right.Num)), nil
}

func numericCompare(left, right Value, loc SourceLocation, opName string, cmp func(a, b float64) bool) (Value, error) {
	if left.Tag != TagNumber || right.Tag != TagNumber {
		e := typeErr(E302, loc)
		e.Message = fmt.Sprintf("Cannot compare %s and %s with '%s'.", left.TypeName(), right.TypeName(), opName)
		e.Hint = "Numeric comparisons only work with numbers."
		return Value{}, e
	}
	return BoolOf(cmp(left.Num, right.Num)), nil
}

func (in *Interpreter) evalUnary(e *UnaryOp) (Value, error) {
	operand, err := in.eval(e.Operand)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case "-":
		if operand.Tag != TagNumber {
			te := typeErr(E302, e.Loc())
			te.Message = "Cannot negate " + operand.TypeName() + "."
			te.Hint = "The unary '-' operator only works with numbers."
			return Value{}, te
		}
		return NumberOf(-operand.Num), nil
	case "not":
		return BoolOf(!operand.IsTruthy()), nil
	}

	re := runtimeError(E407, e.Loc())
	re.Message = "Unknown unary operator: " + e.Op
	return Value{}, re
}

// ---------------------------------------------------------------------------
// Conversions and formatting

func (in *Interpreter) evalConvert(e *Convert) (Value, error) {
	v, err := in.eval(e.Value)
	if err != nil {
		return Value{}, err
	}

	switch e.TargetType {
	case "number":
		n, err := v.AsNumber()
		if err != nil {
			te := typeErr(E301, e.Loc())
			te.Message = "Cannot convert " + v.TypeName() + " value to number."
			te.Hint = "The value '" + v.Display() + "' cannot be interpreted as a number."
			return Value{}, te
		}
		return n, nil
	case "text":
		return v.AsText(), nil
	case "boolean":
		return v.AsBool(), nil
	}

	re := runtimeError(E407, e.Loc())
	re.Message = "Unknown target type: " + e.TargetType
	re.Hint = "Valid types are: number, text, boolean."
	return Value{}, re
}

func (in *Interpreter) evalFormatNumber(e *FormatNumber) (Value, error) {
	v, err := in.eval(e.Value)
	if err != nil {
		return Value{}, err
	}
	places, err := in.eval(e.Places)
	if err != nil {
		return Value{}, err
	}

	if v.Tag != TagNumber || places.Tag != TagNumber {
		te := typeErr(E302, e.Loc())
		te.Message = "'as decimal' requires a number and a number of places."
		te.Hint = "Use it like: pi as decimal(2)"
		return Value{}, te
	}

	n := int(places.Num)
	if n < 0 {
		re := runtimeError(E304, e.Loc())
		re.Message = "Decimal places cannot be negative."
		return Value{}, re
	}
	return TextOf(strconv.FormatFloat(v.Num, 'f', n, 64)), nil
}

// ---------------------------------------------------------------------------
// Text operations

func (in *Interpreter) evalSplitBy(e *SplitBy) (Value, error) {
	text, delim, err := in.evalPair(e.Text, e.Delimiter)
	if err != nil {
		return Value{}, err
	}
	if text.Tag != TagText {
		te := typeErr(E302, e.Loc())
		te.Message = "Cannot split " + text.TypeName() + ", only text can be split."
		te.Hint = "Make sure the value you're splitting is text."
		return Value{}, te
	}

	parts := strings.Split(text.Str, delim.Display())
	elements := make([]Value, len(parts))
	for i, part := range parts {
		elements[i] = TextOf(part)
	}
	return ListOf(elements...), nil
}

func (in *Interpreter) evalCharacterAt(e *CharacterAt) (Value, error) {
	index, err := in.eval(e.Index)
	if err != nil {
		return Value{}, err
	}
	text, err := in.eval(e.Text)
	if err != nil {
		return Value{}, err
	}

	if text.Tag != TagText {
		te := typeErr(E302, e.Loc())
		te.Message = "Cannot get character from " + text.TypeName() + ", only from text."
		te.Hint = "'character at' only works with text values."
		return Value{}, te
	}
	if index.Tag != TagNumber {
		te := typeErr(E302, e.Loc())
		te.Message = "Character index must be a number, not " + index.TypeName() + "."
		te.Hint = "Use a number for the index, like 'character at 0 of text'."
		return Value{}, te
	}

	runes := []rune(text.Str)
	idx := int(index.Num)
	if idx < 0 || idx >= len(runes) {
		re := runtimeError(E405, e.Loc())
		re.Message = fmt.Sprintf("Character index %d is out of bounds for text of length %d.", idx, len(runes))
		re.Hint = fmt.Sprintf("Valid indices are 0 to %d.", len(runes)-1)
		return Value{}, re
	}
	return TextOf(string(runes[idx])), nil
}

func (in *Interpreter) evalLengthOf(e *LengthOf) (Value, error) {
	v, err := in.eval(e.Value)
	if err != nil {
		return Value{}, err
	}

	switch v.Tag {
	case TagText:
		return NumberOf(float64(len([]rune(v.Str)))), nil
	case TagList:
		return NumberOf(float64(v.List.Length())), nil
	case TagTable:
		return NumberOf(float64(v.Table.Length())), nil
	}

	te := typeErr(E302, e.Loc())
	te.Message = "Cannot get length of " + v.TypeName() + "."
	te.Hint = "'length of' works with text, lists, and tables."
	return Value{}, te
}

func (in *Interpreter) evalTextPredicate(textExpr, argExpr Expr, loc SourceLocation, opName string, pred func(s, arg string) bool) (Value, error) {
	text, arg, err := in.evalPair(textExpr, argExpr)
	if err != nil {
		return Value{}, err
	}
	if text.Tag != TagText {
		te := typeErr(E302, loc)
		te.Message = fmt.Sprintf("Cannot check '%s' on %s.", opName, text.TypeName())
		te.Hint = fmt.Sprintf("'%s' works with text values.", opName)
		return Value{}, te
	}
	return BoolOf(pred(text.Str, arg.Display())), nil
}

// ---------------------------------------------------------------------------
// Collection operations

func (in *Interpreter) evalIsIn(e *IsIn) (Value, error) {
	item, collection, err := in.evalPair(e.Item, e.Collection)
	if err != nil {
		return Value{}, err
	}

	switch collection.Tag {
	case TagList:
		return BoolOf(collection.List.Contains(item)), nil
	case TagText:
		return BoolOf(strings.Contains(collection.Str, item.Display())), nil
	}

	te := typeErr(E302, e.Loc())
	te.Message = "Cannot check if something is in " + collection.TypeName() + "."
	te.Hint = "'is in' works with lists and text."
	return Value{}, te
}

// evalIndexAccess reads container[key]: number indices for lists, text
// keys for tables.
func (in *Interpreter) evalIndexAccess(e *IndexAccess) (Value, error) {
	container, key, err := in.evalPair(e.Target, e.Key)
	if err != nil {
		return Value{}, err
	}
	return containerGet(container, key, e.Loc())
}

func containerGet(container, key Value, loc SourceLocation) (Value, error) {
	switch container.Tag {
	case TagList:
		if key.Tag != TagNumber {
			te := typeErr(E302, loc)
			te.Message = "List index must be a number, not " + key.TypeName() + "."
			te.Hint = "Use a number for list indices, like 'my_list[0]'."
			return Value{}, te
		}
		idx := int(key.Num)
		v, err := container.List.Get(idx)
		if err != nil {
			re := runtimeError(E405, loc)
			re.Message = fmt.Sprintf("List index %d is out of bounds for list of length %d.", idx, container.List.Length())
			re.Hint = fmt.Sprintf("Valid indices are 0 to %d.", container.List.Length()-1)
			return Value{}, re
		}
		return v, nil

	case TagTable:
		keyStr := key.Display()
		v, err := container.Table.Get(keyStr)
		if err != nil {
			available := "(empty table)"
			if len(container.Table.Keys) > 0 {
				available = strings.Join(container.Table.Keys, ", ")
			}
			re := runtimeError(E406, loc, "key", keyStr)
			re.Hint = "Available keys: " + available
			return Value{}, re
		}
		return v, nil
	}

	te := typeErr(E302, loc)
	te.Message = "Cannot access " + container.TypeName() + " with a key."
	te.Hint = "Use square brackets with tables (using text keys) or lists (using number indices)."
	return Value{}, te
}

// containerSet writes container[key]: lists require an in-range number
// index, tables accept any key and grow.
func containerSet(container, key, value Value, loc SourceLocation) error {
	switch container.Tag {
	case TagList:
		if key.Tag != TagNumber {
			te := typeErr(E302, loc)
			te.Message = "List index must be a number, got " + key.TypeName() + "."
			te.Hint = "Use a number like 0, 1, 2 to access list elements."
			return te
		}
		idx := int(key.Num)
		if err := container.List.Set(idx, value); err != nil {
			re := runtimeError(E304, loc)
			re.Message = fmt.Sprintf("List index %d out of range. List has %d element(s).", idx, container.List.Length())
			re.Hint = fmt.Sprintf("Valid indices are 0 to %d.", container.List.Length()-1)
			return re
		}
		return nil

	case TagTable:
		container.Table.Set(key.Display(), value)
		return nil
	}

	te := typeErr(E302, loc)
	te.Message = "Cannot set index on " + container.TypeName() + ", only on lists and tables."
	te.Hint = "Use square brackets to set values only on lists and tables."
	return te
}

func listAdd(lst, item Value, loc SourceLocation) error {
	if lst.Tag != TagList {
		te := typeErr(E302, loc)
		te.Message = "Cannot add to " + lst.TypeName() + ", only to lists."
		te.Hint = "Make sure you're adding to a list variable."
		return te
	}
	lst.List.Add(item)
	return nil
}

// listRemove reports whether the item was present; a missing item is not
// an error.
func listRemove(lst, item Value, loc SourceLocation) (bool, error) {
	if lst.Tag != TagList {
		te := typeErr(E302, loc)
		te.Message = "Cannot remove from " + lst.TypeName() + ", only from lists."
		te.Hint = "Make sure you're removing from a list variable."
		return false, te
	}
	return lst.List.Remove(item), nil
}
