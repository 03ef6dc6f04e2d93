// ast.go: syntax tree for Steps programs
//
// Every node carries its source location so runtime errors can point at
// the line that caused them. Node, Stmt and Expr are closed interfaces:
// the interpreter dispatches with exhaustive type switches, so adding a
// node type means touching the parser, the interpreter and the printer.
package steps

import (
	"fmt"
	"strings"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Loc() SourceLocation
}

// Stmt is a node that performs an action.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

type baseNode struct {
	Location SourceLocation
}

func (n baseNode) Loc() SourceLocation { return n.Location }

// ---------------------------------------------------------------------------
// Top-level nodes

// Building is a program entry point (.building file).
type Building struct {
	baseNode
	Name string
	Body []Stmt
}

// Floor groups related steps (.floor file). Steps holds the names of the
// steps declared on this floor.
type Floor struct {
	baseNode
	Name  string
	Steps []string
}

// Parameter is one entry of an expects clause.
type Parameter struct {
	baseNode
	Name string
	Type string // empty when no annotation
}

// ReturnDecl is the returns clause of a step or riser.
type ReturnDecl struct {
	baseNode
	Name string
	Type string
}

// Declaration is one entry of a declare block.
type Declaration struct {
	baseNode
	Name  string
	Type  string
	Fixed bool
}

// Riser is a private helper callable only from its enclosing step.
type Riser struct {
	baseNode
	Name         string
	Expects      []Parameter
	Returns      *ReturnDecl
	Declarations []Declaration
	Body         []Stmt
}

// Step is a single unit of work (.step file).
type Step struct {
	baseNode
	Name         string
	BelongsTo    string
	Expects      []Parameter
	Returns      *ReturnDecl
	Risers       []Riser
	Declarations []Declaration
	Body         []Stmt
}

// ---------------------------------------------------------------------------
// Statements

type DisplayStmt struct {
	baseNode
	Value Expr
}

type SetStmt struct {
	baseNode
	Target string
	Value  Expr
}

// SetIndexStmt assigns into a list slot or table key:
// set scores["alice"] to 10
type SetIndexStmt struct {
	baseNode
	Target string
	Index  Expr
	Value  Expr
}

// CallStmt invokes a step or riser. ResultTarget is empty when the call
// discards its result.
type CallStmt struct {
	baseNode
	StepName     string
	Arguments    []Expr
	ResultTarget string
}

type ReturnStmt struct {
	baseNode
	Value Expr // nil for a bare return
}

type ExitStmt struct {
	baseNode
}

// IfBranch is one condition/body pair of an if statement.
type IfBranch struct {
	baseNode
	Condition Expr
	Body      []Stmt
}

type IfStmt struct {
	baseNode
	If          IfBranch
	OtherwiseIf []IfBranch
	Otherwise   []Stmt // nil when absent
}

type RepeatTimesStmt struct {
	baseNode
	Count Expr
	Body  []Stmt
}

type RepeatForEachStmt struct {
	baseNode
	ItemName   string
	Collection Expr
	Body       []Stmt
}

type RepeatWhileStmt struct {
	baseNode
	Condition Expr
	Body      []Stmt
}

// AttemptStmt is the error handling construct. Unsuccessful runs when the
// attempt body fails; Continue always runs afterwards.
type AttemptStmt struct {
	baseNode
	Attempt      []Stmt
	Unsuccessful []Stmt
	Continue     []Stmt
}

// NoteStmt is a comment, kept in the tree for documentation tooling.
type NoteStmt struct {
	baseNode
	Text  string
	Block bool
}

type AddToListStmt struct {
	baseNode
	Item     Expr
	ListName string
}

type RemoveFromListStmt struct {
	baseNode
	Item     Expr
	ListName string
}

func (*DisplayStmt) stmtNode()        {}
func (*SetStmt) stmtNode()            {}
func (*SetIndexStmt) stmtNode()       {}
func (*CallStmt) stmtNode()           {}
func (*ReturnStmt) stmtNode()         {}
func (*ExitStmt) stmtNode()           {}
func (*IfStmt) stmtNode()             {}
func (*RepeatTimesStmt) stmtNode()    {}
func (*RepeatForEachStmt) stmtNode()  {}
func (*RepeatWhileStmt) stmtNode()    {}
func (*AttemptStmt) stmtNode()        {}
func (*NoteStmt) stmtNode()           {}
func (*AddToListStmt) stmtNode()      {}
func (*RemoveFromListStmt) stmtNode() {}

// ---------------------------------------------------------------------------
// Expressions

type NumberLit struct {
	baseNode
	Value float64
}

type TextLit struct {
	baseNode
	Value string
}

type BoolLit struct {
	baseNode
	Value bool
}

type NothingLit struct {
	baseNode
}

type ListLit struct {
	baseNode
	Elements []Expr
}

// TablePair is one key/value entry of a table literal.
type TablePair struct {
	Key   Expr
	Value Expr
}

type TableLit struct {
	baseNode
	Pairs []TablePair
}

type Identifier struct {
	baseNode
	Name string
}

// InputExpr reads a line from the user: set name to input
type InputExpr struct {
	baseNode
}

// BinaryOp covers math, comparison and boolean operators. Op is the
// canonical operator spelling ("+", "is equal to", "and", ...).
type BinaryOp struct {
	baseNode
	Left  Expr
	Op    string
	Right Expr
}

type UnaryOp struct {
	baseNode
	Op      string // "not" or "-"
	Operand Expr
}

// Convert is a checked conversion: expr as number
type Convert struct {
	baseNode
	Value      Expr
	TargetType string
}

// FormatNumber renders a number with a fixed decimal count:
// pi as decimal(2)
type FormatNumber struct {
	baseNode
	Value  Expr
	Places Expr
}

// TypeOf yields the type name of a value: type of 42 → "number"
type TypeOf struct {
	baseNode
	Value Expr
}

// TypeCheck tests a value's type: x is a number
type TypeCheck struct {
	baseNode
	Value Expr
	Type  string
}

// IndexAccess reads from a table key or list position.
type IndexAccess struct {
	baseNode
	Target Expr
	Key    Expr
}

type AddedTo struct {
	baseNode
	Left  Expr
	Right Expr
}

type SplitBy struct {
	baseNode
	Text      Expr
	Delimiter Expr
}

type CharacterAt struct {
	baseNode
	Index Expr
	Text  Expr
}

type LengthOf struct {
	baseNode
	Value Expr
}

type Contains struct {
	baseNode
	Text      Expr
	Substring Expr
}

type StartsWith struct {
	baseNode
	Text   Expr
	Prefix Expr
}

type EndsWith struct {
	baseNode
	Text   Expr
	Suffix Expr
}

// IsIn tests membership: item is in my_list
type IsIn struct {
	baseNode
	Item       Expr
	Collection Expr
}

func (*NumberLit) exprNode()    {}
func (*TextLit) exprNode()      {}
func (*BoolLit) exprNode()      {}
func (*NothingLit) exprNode()   {}
func (*ListLit) exprNode()      {}
func (*TableLit) exprNode()     {}
func (*Identifier) exprNode()   {}
func (*InputExpr) exprNode()    {}
func (*BinaryOp) exprNode()     {}
func (*UnaryOp) exprNode()      {}
func (*Convert) exprNode()      {}
func (*FormatNumber) exprNode() {}
func (*TypeOf) exprNode()       {}
func (*TypeCheck) exprNode()    {}
func (*IndexAccess) exprNode()  {}
func (*AddedTo) exprNode()      {}
func (*SplitBy) exprNode()      {}
func (*CharacterAt) exprNode()  {}
func (*LengthOf) exprNode()     {}
func (*Contains) exprNode()     {}
func (*StartsWith) exprNode()   {}
func (*EndsWith) exprNode()     {}
func (*IsIn) exprNode()         {}

// ---------------------------------------------------------------------------
// Debug printing

// DumpAST returns an indented description of a subtree. Intended for
// debugging.
func DumpAST(node Node) string {
	var b strings.Builder
	dumpNode(&b, node, 0)
	return b.String()
}

func dumpNode(b *strings.Builder, node Node, depth int) {
	pad := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *Building:
		fmt.Fprintf(b, "%sBuilding %q\n", pad, n.Name)
		dumpStmts(b, n.Body, depth+1)
	case *Step:
		fmt.Fprintf(b, "%sStep %q (floor %q)\n", pad, n.Name, n.BelongsTo)
		for i := range n.Risers {
			dumpNode(b, &n.Risers[i], depth+1)
		}
		dumpStmts(b, n.Body, depth+1)
	case *Riser:
		fmt.Fprintf(b, "%sRiser %q\n", pad, n.Name)
		dumpStmts(b, n.Body, depth+1)
	case *Floor:
		fmt.Fprintf(b, "%sFloor %q steps=%v\n", pad, n.Name, n.Steps)
	case *SetStmt:
		fmt.Fprintf(b, "%sSet %s\n", pad, n.Target)
		dumpNode(b, n.Value, depth+1)
	case *DisplayStmt:
		fmt.Fprintf(b, "%sDisplay\n", pad)
		dumpNode(b, n.Value, depth+1)
	case *CallStmt:
		fmt.Fprintf(b, "%sCall %s (result in %s)\n", pad, n.StepName, n.ResultTarget)
		for _, a := range n.Arguments {
			dumpNode(b, a, depth+1)
		}
	case *IfStmt:
		fmt.Fprintf(b, "%sIf\n", pad)
		dumpNode(b, n.If.Condition, depth+1)
		dumpStmts(b, n.If.Body, depth+1)
	case *BinaryOp:
		fmt.Fprintf(b, "%sBinaryOp %q\n", pad, n.Op)
		dumpNode(b, n.Left, depth+1)
		dumpNode(b, n.Right, depth+1)
	case *NumberLit:
		fmt.Fprintf(b, "%sNumber %v\n", pad, n.Value)
	case *TextLit:
		fmt.Fprintf(b, "%sText %q\n", pad, n.Value)
	case *Identifier:
		fmt.Fprintf(b, "%sIdentifier %s\n", pad, n.Name)
	default:
		fmt.Fprintf(b, "%s%T\n", pad, node)
	}
}

func dumpStmts(b *strings.Builder, stmts []Stmt, depth int) {
	for _, s := range stmts {
		dumpNode(b, s, depth)
	}
}
