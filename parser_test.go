// parser_test.go
package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseBuilding(t *testing.T, src string) *Building {
	t.Helper()
	building, errs, err := ParseBuildingSource(src, "test.building")
	require.NoError(t, err)
	require.Empty(t, errs)
	require.NotNil(t, building)
	return building
}

func parseStep(t *testing.T, src string) *Step {
	t.Helper()
	step, errs, err := ParseStepSource(src, "test.step")
	require.NoError(t, err)
	require.Empty(t, errs)
	require.NotNil(t, step)
	return step
}

func Test_Parser_Building(t *testing.T) {
	building := parseBuilding(t, `building: calculator
    set x to 10
    display x
`)
	assert.Equal(t, "calculator", building.Name)
	require.Len(t, building.Body, 2)
	assert.IsType(t, &SetStmt{}, building.Body[0])
	assert.IsType(t, &DisplayStmt{}, building.Body[1])
}

func Test_Parser_Floor(t *testing.T) {
	floor, errs, err := ParseFloorSource(`floor: math_utilities
    note: helpers for arithmetic
    step: add_numbers
    step: subtract_numbers
`, "math_utilities.floor")
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, "math_utilities", floor.Name)
	assert.Equal(t, []string{"add_numbers", "subtract_numbers"}, floor.Steps)
}

func Test_Parser_Step_AllSections(t *testing.T) {
	step := parseStep(t, `step: add_numbers
    belongs to: math_utilities
    expects: a as number, b as number
    returns: total as number
    declare:
        scratch as number
        limit as number fixed
    do:
        set scratch to a + b
        return scratch
`)
	assert.Equal(t, "add_numbers", step.Name)
	assert.Equal(t, "math_utilities", step.BelongsTo)

	require.Len(t, step.Expects, 2)
	assert.Equal(t, "a", step.Expects[0].Name)
	assert.Equal(t, "number", step.Expects[0].Type)

	require.NotNil(t, step.Returns)
	assert.Equal(t, "total", step.Returns.Name)

	require.Len(t, step.Declarations, 2)
	assert.False(t, step.Declarations[0].Fixed)
	assert.True(t, step.Declarations[1].Fixed)

	require.Len(t, step.Body, 2)
}

func Test_Parser_Step_ExpectsNothing(t *testing.T) {
	step := parseStep(t, `step: greet
    expects: nothing
    returns: nothing
    do:
        display "hi"
`)
	assert.Empty(t, step.Expects)
	assert.Nil(t, step.Returns)
}

func Test_Parser_Riser(t *testing.T) {
	step := parseStep(t, `step: outer
    riser: double
        expects: n as number
        returns: result as number
        do:
            return n * 2
    do:
        call double with 21 storing result in answer
        return answer
`)
	require.Len(t, step.Risers, 1)
	riser := step.Risers[0]
	assert.Equal(t, "double", riser.Name)
	require.Len(t, riser.Expects, 1)
	require.Len(t, riser.Body, 1)

	require.Len(t, step.Body, 2)
	call, ok := step.Body[0].(*CallStmt)
	require.True(t, ok)
	assert.Equal(t, "double", call.StepName)
	assert.Equal(t, "answer", call.ResultTarget)
	require.Len(t, call.Arguments, 1)
}

func Test_Parser_IfOtherwiseChain(t *testing.T) {
	building := parseBuilding(t, `building: grades
    if score is greater than 90
        display "A"
    otherwise if score is greater than 80
        display "B"
    otherwise
        display "C"
`)
	require.Len(t, building.Body, 1)
	ifStmt, ok := building.Body[0].(*IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.OtherwiseIf, 1)
	assert.Len(t, ifStmt.Otherwise, 1)
}

func Test_Parser_RepeatForms(t *testing.T) {
	building := parseBuilding(t, `building: loops
    repeat 3 times
        display "x"
    repeat for each item in numbers
        display item
    repeat while x is less than 10
        set x to x + 1
`)
	require.Len(t, building.Body, 3)
	assert.IsType(t, &RepeatTimesStmt{}, building.Body[0])
	forEach, ok := building.Body[1].(*RepeatForEachStmt)
	require.True(t, ok)
	assert.Equal(t, "item", forEach.ItemName)
	assert.IsType(t, &RepeatWhileStmt{}, building.Body[2])
}

func Test_Parser_Attempt(t *testing.T) {
	building := parseBuilding(t, `building: risky
    attempt:
        set x to 10 / 0
    if unsuccessful:
        display problem_message
    then continue:
        display "moving on"
`)
	require.Len(t, building.Body, 1)
	attempt, ok := building.Body[0].(*AttemptStmt)
	require.True(t, ok)
	assert.Len(t, attempt.Attempt, 1)
	assert.Len(t, attempt.Unsuccessful, 1)
	assert.Len(t, attempt.Continue, 1)
}

func Test_Parser_SetIndex(t *testing.T) {
	building := parseBuilding(t, `building: idx
    set items[2] to "replaced"
    set person["name"] to "Jo"
`)
	require.Len(t, building.Body, 2)
	first, ok := building.Body[0].(*SetIndexStmt)
	require.True(t, ok)
	assert.Equal(t, "items", first.Target)
}

func Test_Parser_ExpressionPrecedence(t *testing.T) {
	stmts, errs, err := ParseREPLInput("set x to 1 + 2 * 3")
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, stmts, 1)

	set := stmts[0].(*SetStmt)
	add, ok := set.Value.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)
	mul, ok := add.Right.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func Test_Parser_ComparisonAndBoolean(t *testing.T) {
	stmts, errs, err := ParseREPLInput(`set ok to x is greater than 1 and not y is equal to 2`)
	require.NoError(t, err)
	require.Empty(t, errs)

	set := stmts[0].(*SetStmt)
	and, ok := set.Value.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "and", and.Op)
	not, ok := and.Right.(*UnaryOp)
	require.True(t, ok)
	assert.Equal(t, "not", not.Op)
}

func Test_Parser_PostfixForms(t *testing.T) {
	stmts, errs, err := ParseREPLInput(`set s to price as decimal(2)
set n to "42" as number
set c to data["key"]`)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, stmts, 3)

	assert.IsType(t, &FormatNumber{}, stmts[0].(*SetStmt).Value)
	conv, ok := stmts[1].(*SetStmt).Value.(*Convert)
	require.True(t, ok)
	assert.Equal(t, "number", conv.TargetType)
	assert.IsType(t, &IndexAccess{}, stmts[2].(*SetStmt).Value)
}

func Test_Parser_ListAndTableLiterals(t *testing.T) {
	stmts, errs, err := ParseREPLInput(`set l to [1, 2, 3]
set e to []
set tbl to ["a": 1, "b": 2]
set empty to [:]`)
	require.NoError(t, err)
	require.Empty(t, errs)

	lst := stmts[0].(*SetStmt).Value.(*ListLit)
	assert.Len(t, lst.Elements, 3)
	assert.Empty(t, stmts[1].(*SetStmt).Value.(*ListLit).Elements)

	tbl := stmts[2].(*SetStmt).Value.(*TableLit)
	require.Len(t, tbl.Pairs, 2)
	assert.Empty(t, stmts[3].(*SetStmt).Value.(*TableLit).Pairs)
}

func Test_Parser_TextOperators(t *testing.T) {
	stmts, errs, err := ParseREPLInput(`set joined to "a" added to "b"
set parts to csv split by ","
set has to name contains "o"
set n to length of name
set ch to character at 1 of name`)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, stmts, 5)

	assert.IsType(t, &AddedTo{}, stmts[0].(*SetStmt).Value)
	assert.IsType(t, &SplitBy{}, stmts[1].(*SetStmt).Value)
	assert.IsType(t, &Contains{}, stmts[2].(*SetStmt).Value)
	assert.IsType(t, &LengthOf{}, stmts[3].(*SetStmt).Value)
	assert.IsType(t, &CharacterAt{}, stmts[4].(*SetStmt).Value)
}

func Test_Parser_TypeChecks(t *testing.T) {
	stmts, errs, err := ParseREPLInput(`set ok to x is a number
set kind to type of x`)
	require.NoError(t, err)
	require.Empty(t, errs)

	check := stmts[0].(*SetStmt).Value.(*TypeCheck)
	assert.Equal(t, "number", check.Type)
	assert.IsType(t, &TypeOf{}, stmts[1].(*SetStmt).Value)
}

func Test_Parser_ErrorRecovery_CollectsMultiple(t *testing.T) {
	_, errs, err := ParseBuildingSource(`building: broken
    set to 5
    display "still parsed"
    set y 10
`, "broken.building")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(errs), 2)
	for _, e := range errs {
		assert.Equal(t, E207, e.Code)
	}
}

func Test_Parser_StepWithoutDoSection(t *testing.T) {
	_, errs, err := ParseStepSource(`step: hollow
    expects: a as number
`, "hollow.step")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, E206, errs[0].Code)
	assert.Contains(t, errs[0].Message, "do:")
}

func Test_Parser_MissingBuildingKeyword(t *testing.T) {
	node, errs, err := ParseBuildingSource("display 1\n", "bad.building")
	require.NoError(t, err)
	assert.Nil(t, node)
	require.NotEmpty(t, errs)
}

func Test_Parser_AddRemove(t *testing.T) {
	stmts, errs, err := ParseREPLInput(`add 4 to numbers
remove 2 from numbers`)
	require.NoError(t, err)
	require.Empty(t, errs)

	addStmt := stmts[0].(*AddToListStmt)
	assert.Equal(t, "numbers", addStmt.ListName)
	removeStmt := stmts[1].(*RemoveFromListStmt)
	assert.Equal(t, "numbers", removeStmt.ListName)
}
