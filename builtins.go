// builtins.go: native functions callable from Steps programs
//
// Native functions look like steps to the caller: "call random_int with
// 1, 100 storing result in n". The interpreter consults this registry
// when no user-defined step matches the name.
package steps

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
)

type nativeFunc struct {
	params []string
	fn     func(args []Value, loc SourceLocation) (Value, error)
}

var nativeFunctions = map[string]nativeFunc{
	"random_int":    {params: []string{"min_val", "max_val"}, fn: nativeRandomInt},
	"random_choice": {params: []string{"lst"}, fn: nativeRandomChoice},
	"read_file":     {params: []string{"path"}, fn: nativeReadFile},
	"write_file":    {params: []string{"path", "content"}, fn: nativeWriteFile},
	"append_file":   {params: []string{"path", "content"}, fn: nativeAppendFile},
	"file_exists":   {params: []string{"path"}, fn: nativeFileExists},
	"read_csv":      {params: []string{"path"}, fn: nativeReadCSV},
	"write_csv":     {params: []string{"path", "data"}, fn: nativeWriteCSV},
}

func (in *Interpreter) callNative(name string, native nativeFunc, args []Value, loc SourceLocation) (Value, error) {
	if len(args) != len(native.params) {
		return Value{}, arityError("Step", name, native.params, len(args), loc)
	}
	return native.fn(args, loc)
}

func nativeTypeError(loc SourceLocation, message, hint string) *TypeError {
	e := typeErr(E302, loc)
	e.Message = message
	e.Hint = hint
	return e
}

func nativeRuntimeError(loc SourceLocation, message, hint string) *RuntimeError {
	e := runtimeError(E407, loc)
	e.Message = message
	e.Hint = hint
	return e
}

func nativeRandomInt(args []Value, loc SourceLocation) (Value, error) {
	min, max := args[0], args[1]
	if min.Tag != TagNumber || max.Tag != TagNumber {
		return Value{}, nativeTypeError(loc,
			fmt.Sprintf("random_int requires two numbers, got %s and %s.", min.TypeName(), max.TypeName()),
			"Use: call random_int with 1, 100")
	}

	lo, hi := int(min.Num), int(max.Num)
	if lo > hi {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("random_int: minimum (%d) cannot be greater than maximum (%d).", lo, hi),
			"Swap the values: call random_int with smaller, larger")
	}
	return NumberOf(float64(lo + rand.Intn(hi-lo+1))), nil
}

func nativeRandomChoice(args []Value, loc SourceLocation) (Value, error) {
	lst := args[0]
	if lst.Tag != TagList {
		return Value{}, nativeTypeError(loc,
			"random_choice requires a list, got "+lst.TypeName()+".",
			"Use: call random_choice with my_list")
	}
	if lst.List.Length() == 0 {
		return Value{}, nativeRuntimeError(loc,
			"random_choice: cannot pick from an empty list.",
			"Make sure the list has at least one element.")
	}
	return lst.List.Elements[rand.Intn(lst.List.Length())], nil
}

func requireTextPath(v Value, fnName string, loc SourceLocation) (string, error) {
	if v.Tag != TagText {
		return "", nativeTypeError(loc,
			fmt.Sprintf("%s requires a text path, got %s.", fnName, v.TypeName()),
			fmt.Sprintf(`Use: call %s with "myfile.txt"`, fnName))
	}
	return v.Str, nil
}

func nativeReadFile(args []Value, loc SourceLocation) (Value, error) {
	path, err := requireTextPath(args[0], "read_file", loc)
	if err != nil {
		return Value{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Value{}, nativeRuntimeError(loc,
				"File not found: '"+path+"'",
				"Check that the file path is correct.")
		}
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not read file '%s': %v", path, err),
			"Check file permissions.")
	}
	return TextOf(string(data)), nil
}

func nativeWriteFile(args []Value, loc SourceLocation) (Value, error) {
	path, err := requireTextPath(args[0], "write_file", loc)
	if err != nil {
		return Value{}, err
	}

	if err := os.WriteFile(path, []byte(args[1].Display()), 0o644); err != nil {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not write to file '%s': %v", path, err),
			"Check file permissions and path.")
	}
	return Nothing(), nil
}

func nativeAppendFile(args []Value, loc SourceLocation) (Value, error) {
	path, err := requireTextPath(args[0], "append_file", loc)
	if err != nil {
		return Value{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not append to file '%s': %v", path, err),
			"Check file permissions and path.")
	}
	defer f.Close()

	if _, err := f.WriteString(args[1].Display()); err != nil {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not append to file '%s': %v", path, err),
			"Check file permissions and path.")
	}
	return Nothing(), nil
}

func nativeFileExists(args []Value, loc SourceLocation) (Value, error) {
	path, err := requireTextPath(args[0], "file_exists", loc)
	if err != nil {
		return Value{}, err
	}
	info, statErr := os.Stat(path)
	return BoolOf(statErr == nil && !info.IsDir()), nil
}

// nativeReadCSV reads a CSV file with a header row into a list of
// tables, one per data row.
func nativeReadCSV(args []Value, loc SourceLocation) (Value, error) {
	path, err := requireTextPath(args[0], "read_csv", loc)
	if err != nil {
		return Value{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Value{}, nativeRuntimeError(loc,
				"CSV file not found: '"+path+"'",
				"Check that the file path is correct.")
		}
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not read CSV file '%s': %v", path, err),
			"Check file permissions.")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("CSV parsing error in '%s': %v", path, err),
			"Check the CSV file format.")
	}
	if len(records) == 0 {
		return ListOf(), nil
	}

	headers := records[0]
	rows := make([]Value, 0, len(records)-1)
	for _, record := range records[1:] {
		row := NewTable()
		for i, header := range headers {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			row.Table.Set(header, TextOf(cell))
		}
		rows = append(rows, row)
	}
	return ListOf(rows...), nil
}

// nativeWriteCSV writes a list of tables as CSV, taking the header order
// from the first row.
func nativeWriteCSV(args []Value, loc SourceLocation) (Value, error) {
	path, err := requireTextPath(args[0], "write_csv", loc)
	if err != nil {
		return Value{}, err
	}

	data := args[1]
	if data.Tag != TagList {
		return Value{}, nativeTypeError(loc,
			"write_csv requires a list of tables, got "+data.TypeName()+".",
			"Data must be a list of tables.")
	}

	f, err := os.Create(path)
	if err != nil {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not write CSV file '%s': %v", path, err),
			"Check file permissions and path.")
	}
	defer f.Close()

	if data.List.Length() == 0 {
		return Nothing(), nil
	}

	first := data.List.Elements[0]
	if first.Tag != TagTable {
		return Value{}, nativeTypeError(loc,
			"write_csv: each element must be a table.",
			"Each row should be a table with key-value pairs.")
	}
	headers := first.Table.Keys

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not write CSV file '%s': %v", path, err),
			"Check file permissions and path.")
	}
	for _, row := range data.List.Elements {
		if row.Tag != TagTable {
			continue
		}
		record := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := row.Table.Items[h]; ok {
				record[i] = v.Display()
			}
		}
		if err := w.Write(record); err != nil {
			return Value{}, nativeRuntimeError(loc,
				fmt.Sprintf("Could not write CSV file '%s': %v", path, err),
				"Check file permissions and path.")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Value{}, nativeRuntimeError(loc,
			fmt.Sprintf("Could not write CSV file '%s': %v", path, err),
			"Check file permissions and path.")
	}
	return Nothing(), nil
}
