// parser.go: recursive descent parser for Steps
//
// The parser turns a token stream into a syntax tree. It keeps going
// after an error where it can, collecting every diagnostic in one pass
// so learners see all their mistakes at once. Expressions use precedence
// climbing: or < and < not < comparison < addition < multiplication <
// unary < postfix < primary.
package steps

import "strconv"

// Parser consumes a token stream produced by the lexer.
type Parser struct {
	tokens []Token
	file   string
	pos    int
	errors []*ParseError
}

// NewParser wraps a token stream. The stream must end with an EOF token.
func NewParser(tokens []Token, file string) *Parser {
	if len(tokens) == 0 {
		tokens = []Token{{Type: EOF, File: file, Line: 1, Column: 1}}
	}
	return &Parser{tokens: tokens, file: file}
}

// Errors returns every diagnostic collected so far.
func (p *Parser) Errors() []*ParseError { return p.errors }

// ---------------------------------------------------------------------------
// Token navigation

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() Token {
	if p.pos > 0 {
		return p.tokens[p.pos-1]
	}
	return p.tokens[0]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool { return p.current().Type == EOF }

func (p *Parser) check(types ...TokenType) bool {
	cur := p.current().Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

func (p *Parser) match(types ...TokenType) bool {
	if p.check(types...) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of the given type, or records an error and
// returns a synthetic token so parsing can continue.
func (p *Parser) expect(typ TokenType, message string) Token {
	if p.check(typ) {
		return p.advance()
	}
	p.errorf(message)
	cur := p.current()
	return Token{Type: typ, Line: cur.Line, Column: cur.Column, File: p.file}
}

func (p *Parser) skipNewlines() {
	for p.match(NEWLINE) {
	}
}

func (p *Parser) loc() SourceLocation {
	return p.current().Loc()
}

func (p *Parser) locFrom(tok Token) SourceLocation {
	return SourceLocation{File: p.file, Line: tok.Line, Column: tok.Column}
}

// ---------------------------------------------------------------------------
// Error handling and recovery

func (p *Parser) errorf(message string) {
	p.errorWithHint(message, "")
}

func (p *Parser) errorWithHint(message, hint string) {
	cur := p.current()
	p.errors = append(p.errors, &ParseError{StepsError{
		Code:    E207,
		Message: message,
		File:    p.file,
		Line:    cur.Line,
		Column:  cur.Column,
		Hint:    hint,
	}})
}

// synchronize skips tokens until the next likely statement boundary so
// one mistake does not cascade into dozens of diagnostics.
func (p *Parser) synchronize() {
	p.advance()

	for !p.atEnd() {
		if p.previous().Type == NEWLINE {
			if p.check(DISPLAY, SET, CALL, RETURN, EXIT, IF,
				REPEAT, ATTEMPT, ADD, REMOVE, NOTE, DEDENT) {
				return
			}
		}
		if p.check(BUILDING, FLOOR, STEP, RISER, DO, DECLARE) {
			return
		}
		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Top level

// ParseBuilding parses a .building file. A nil node means the file was
// unrecognizable; partial nodes come back alongside errors.
func (p *Parser) ParseBuilding() (*Building, []*ParseError) {
	p.skipNewlines()

	start := p.current()
	if !p.match(BUILDING) {
		p.errorf("Expected 'building:' at the start of a building file.")
		return nil, p.errors
	}

	name := p.expect(IDENTIFIER, "Expected building name after 'building:'").Value
	p.expect(NEWLINE, "Expected newline after building name")
	p.skipNewlines()

	if !p.match(INDENT) {
		p.errorf("Expected indented code block after 'building:'")
		return nil, p.errors
	}

	body := p.parseStatementsUntilDedent()

	return &Building{
		baseNode: baseNode{p.locFrom(start)},
		Name:     name,
		Body:     body,
	}, p.errors
}

// ParseFloor parses a .floor file: a name followed by an indented list
// of step declarations.
func (p *Parser) ParseFloor() (*Floor, []*ParseError) {
	p.skipNewlines()

	start := p.current()
	if !p.match(FLOOR) {
		p.errorf("Expected 'floor:' at the start of a floor file.")
		return nil, p.errors
	}

	name := p.expect(IDENTIFIER, "Expected floor name after 'floor:'").Value
	p.expect(NEWLINE, "Expected newline after floor name")
	p.skipNewlines()

	if !p.match(INDENT) {
		p.errorf("Expected indented step list after 'floor:'")
		return nil, p.errors
	}

	var steps []string
	for !p.check(DEDENT, EOF) {
		p.skipNewlines()
		if p.check(DEDENT, EOF) {
			break
		}
		if p.match(STEP) {
			steps = append(steps, p.expect(IDENTIFIER, "Expected step name after 'step:'").Value)
			p.match(NEWLINE)
		} else if p.match(NOTE, NOTE_BLOCK) {
			p.match(NEWLINE)
		} else {
			p.errorf("Expected 'step:' declaration, found '" + p.current().Value + "'")
			p.advance()
		}
	}
	p.match(DEDENT)

	return &Floor{
		baseNode: baseNode{p.locFrom(start)},
		Name:     name,
		Steps:    steps,
	}, p.errors
}

// ParseStep parses a .step file with its belongs to, expects, returns,
// declare, riser and do sections.
func (p *Parser) ParseStep() (*Step, []*ParseError) {
	p.skipNewlines()

	start := p.current()
	if !p.match(STEP) {
		p.errorf("Expected 'step:' at the start of a step file.")
		return nil, p.errors
	}

	name := p.expect(IDENTIFIER, "Expected step name after 'step:'").Value
	p.expect(NEWLINE, "Expected newline after step name")
	p.skipNewlines()

	if !p.match(INDENT) {
		p.errorf("Expected indented block after 'step:'")
		return nil, p.errors
	}

	step := &Step{
		baseNode: baseNode{p.locFrom(start)},
		Name:     name,
	}

	sawDo := false
	for !p.check(DEDENT, EOF) {
		p.skipNewlines()
		if p.check(DEDENT, EOF) {
			break
		}

		switch {
		case p.match(BELONGS_TO):
			step.BelongsTo = p.expect(IDENTIFIER, "Expected floor name after 'belongs to:'").Value
			p.match(NEWLINE)
		case p.match(EXPECTS):
			step.Expects = p.parseParameters()
			p.match(NEWLINE)
		case p.match(RETURNS):
			step.Returns = p.parseReturnDecl()
			p.match(NEWLINE)
		case p.match(DECLARE):
			p.match(NEWLINE)
			step.Declarations = p.parseDeclarations()
		case p.match(RISER):
			step.Risers = append(step.Risers, p.parseRiser())
		case p.match(DO):
			sawDo = true
			p.match(NEWLINE)
			step.Body = p.parseStatementBlock()
		case p.match(NOTE, NOTE_BLOCK):
			p.match(NEWLINE)
		default:
			p.errorf("Unexpected '" + p.current().Value + "' in step definition")
			p.advance()
		}
	}
	p.match(DEDENT)

	if !sawDo {
		e := MakeError(E206, SourceLocation{File: p.file, Line: start.Line, Column: start.Column})
		p.errors = append(p.errors, &ParseError{*e})
	}

	return step, p.errors
}

// ---------------------------------------------------------------------------
// Step components

// parseParameters handles "expects: a, b as number" and "expects: nothing".
func (p *Parser) parseParameters() []Parameter {
	var params []Parameter

	if p.match(NOTHING) {
		return params
	}

	for {
		if p.check(NEWLINE, EOF) {
			break
		}

		nameTok := p.expect(IDENTIFIER, "Expected parameter name")
		param := Parameter{
			baseNode: baseNode{p.locFrom(nameTok)},
			Name:     nameTok.Value,
		}
		if p.match(AS) {
			param.Type = p.advance().Value
		}
		params = append(params, param)

		if !p.match(COMMA) {
			break
		}
	}
	return params
}

// parseReturnDecl handles "returns: name as type" and "returns: nothing".
func (p *Parser) parseReturnDecl() *ReturnDecl {
	if p.match(NOTHING) {
		return nil
	}

	nameTok := p.expect(IDENTIFIER, "Expected return value name")
	decl := &ReturnDecl{
		baseNode: baseNode{p.locFrom(nameTok)},
		Name:     nameTok.Value,
	}
	if p.match(AS) {
		decl.Type = p.advance().Value
	}
	return decl
}

// parseDeclarations handles the indented body of a declare block:
// lines of "name as type [fixed]".
func (p *Parser) parseDeclarations() []Declaration {
	var decls []Declaration

	if !p.match(INDENT) {
		return decls
	}

	for !p.check(DEDENT, EOF) {
		p.skipNewlines()
		if p.check(DEDENT, EOF) {
			break
		}
		if p.match(NOTE, NOTE_BLOCK) {
			p.match(NEWLINE)
			continue
		}

		nameTok := p.expect(IDENTIFIER, "Expected variable name in declaration")
		p.expect(AS, "Expected 'as' after variable name")
		typeName := p.advance().Value
		fixed := p.match(FIXED)

		decls = append(decls, Declaration{
			baseNode: baseNode{p.locFrom(nameTok)},
			Name:     nameTok.Value,
			Type:     typeName,
			Fixed:    fixed,
		})
		p.match(NEWLINE)
	}
	p.match(DEDENT)
	return decls
}

func (p *Parser) parseRiser() Riser {
	start := p.previous()

	name := p.expect(IDENTIFIER, "Expected riser name").Value
	p.expect(NEWLINE, "Expected newline after riser name")
	p.skipNewlines()

	riser := Riser{
		baseNode: baseNode{p.locFrom(start)},
		Name:     name,
	}

	if !p.match(INDENT) {
		p.errorf("Expected indented block after riser declaration")
		return riser
	}

	for !p.check(DEDENT, EOF) {
		p.skipNewlines()
		if p.check(DEDENT, EOF) {
			break
		}

		switch {
		case p.match(EXPECTS):
			riser.Expects = p.parseParameters()
			p.match(NEWLINE)
		case p.match(RETURNS):
			riser.Returns = p.parseReturnDecl()
			p.match(NEWLINE)
		case p.match(DECLARE):
			p.match(NEWLINE)
			riser.Declarations = p.parseDeclarations()
		case p.match(DO):
			p.match(NEWLINE)
			riser.Body = p.parseStatementBlock()
		case p.match(NOTE, NOTE_BLOCK):
			p.match(NEWLINE)
		default:
			p.errorf("Unexpected '" + p.current().Value + "' in riser definition")
			p.advance()
		}
	}
	p.match(DEDENT)
	return riser
}

// ---------------------------------------------------------------------------
// Statements

// ParseREPLStatements parses interactive input as a bare statement list,
// without the building/step framing.
func (p *Parser) ParseREPLStatements() ([]Stmt, []*ParseError) {
	var statements []Stmt

	for !p.match(EOF) {
		p.skipNewlines()
		if p.check(EOF) || p.match(DEDENT) {
			continue
		}
		if stmt := p.parseStatement(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements, p.errors
}

// parseStatementBlock consumes an INDENT-delimited block. An absent
// INDENT yields an empty block.
func (p *Parser) parseStatementBlock() []Stmt {
	if !p.match(INDENT) {
		return nil
	}
	return p.parseStatementsUntilDedent()
}

func (p *Parser) parseStatementsUntilDedent() []Stmt {
	var statements []Stmt

	for !p.check(DEDENT, EOF) {
		p.skipNewlines()
		if p.check(DEDENT, EOF) {
			break
		}
		if stmt := p.parseStatement(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	p.match(DEDENT)
	return statements
}

func (p *Parser) parseStatement() Stmt {
	p.skipNewlines()

	if p.check(DEDENT, EOF) {
		return nil
	}

	switch {
	case p.match(DISPLAY):
		return p.parseDisplay()
	case p.match(SET):
		return p.parseSet()
	case p.match(CALL):
		return p.parseCall()
	case p.match(RETURN):
		return p.parseReturn()
	case p.match(EXIT):
		return p.parseExit()
	case p.match(IF):
		return p.parseIf()
	case p.match(REPEAT):
		return p.parseRepeat()
	case p.match(ATTEMPT):
		return p.parseAttempt()
	case p.match(ADD):
		return p.parseAddToList()
	case p.match(REMOVE):
		return p.parseRemoveFromList()
	case p.match(NOTE):
		return p.parseNote(false)
	case p.match(NOTE_BLOCK):
		return p.parseNote(true)
	}

	p.errorf("Expected statement, found '" + p.current().Value + "'")
	p.synchronize()
	return nil
}

func (p *Parser) parseDisplay() Stmt {
	start := p.previous()
	expr := p.parseExpression()
	p.match(NEWLINE)

	return &DisplayStmt{baseNode: baseNode{p.locFrom(start)}, Value: expr}
}

func (p *Parser) parseSet() Stmt {
	start := p.previous()

	target := p.expect(IDENTIFIER, "Expected variable name after 'set'")

	// set target[index] to value
	if p.match(LBRACKET) {
		index := p.parseExpression()
		p.expect(RBRACKET, "Expected ']' after index")
		p.expect(TO, "Expected 'to' after ']'")
		value := p.parseExpression()
		p.match(NEWLINE)

		return &SetIndexStmt{
			baseNode: baseNode{p.locFrom(start)},
			Target:   target.Value,
			Index:    index,
			Value:    value,
		}
	}

	p.expect(TO, "Expected 'to' after variable name")
	value := p.parseExpression()
	p.match(NEWLINE)

	return &SetStmt{
		baseNode: baseNode{p.locFrom(start)},
		Target:   target.Value,
		Value:    value,
	}
}

func (p *Parser) parseCall() Stmt {
	start := p.previous()

	stepName := p.expect(IDENTIFIER, "Expected step name after 'call'").Value

	stmt := &CallStmt{
		baseNode: baseNode{p.locFrom(start)},
		StepName: stepName,
	}

	if p.match(WITH) {
		stmt.Arguments = p.parseArgumentList()
	}
	if p.match(STORING_RESULT_IN) {
		stmt.ResultTarget = p.expect(IDENTIFIER, "Expected variable name after 'storing result in'").Value
	}
	p.match(NEWLINE)

	return stmt
}

func (p *Parser) parseArgumentList() []Expr {
	var args []Expr

	for {
		if p.check(STORING_RESULT_IN, NEWLINE, EOF) {
			break
		}
		args = append(args, p.parseExpression())
		if !p.match(COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) parseReturn() Stmt {
	start := p.previous()

	stmt := &ReturnStmt{baseNode: baseNode{p.locFrom(start)}}
	if !p.check(NEWLINE, EOF, DEDENT) {
		stmt.Value = p.parseExpression()
	}
	p.match(NEWLINE)
	return stmt
}

func (p *Parser) parseExit() Stmt {
	start := p.previous()
	p.match(NEWLINE)
	return &ExitStmt{baseNode: baseNode{p.locFrom(start)}}
}

func (p *Parser) parseIf() Stmt {
	start := p.previous()

	condition := p.parseExpression()
	p.match(NEWLINE)
	body := p.parseStatementBlock()

	stmt := &IfStmt{
		baseNode: baseNode{p.locFrom(start)},
		If: IfBranch{
			baseNode:  baseNode{p.locFrom(start)},
			Condition: condition,
			Body:      body,
		},
	}

	for p.match(OTHERWISE_IF) {
		branchStart := p.previous()
		branchCond := p.parseExpression()
		p.match(NEWLINE)
		branchBody := p.parseStatementBlock()

		stmt.OtherwiseIf = append(stmt.OtherwiseIf, IfBranch{
			baseNode:  baseNode{p.locFrom(branchStart)},
			Condition: branchCond,
			Body:      branchBody,
		})
	}

	if p.match(OTHERWISE) {
		p.match(NEWLINE)
		stmt.Otherwise = p.parseStatementBlock()
		if stmt.Otherwise == nil {
			stmt.Otherwise = []Stmt{}
		}
	}

	return stmt
}

func (p *Parser) parseRepeat() Stmt {
	start := p.previous()

	// repeat for each item in collection
	if p.match(FOR_EACH) {
		item := p.expect(IDENTIFIER, "Expected variable name after 'for each'")
		p.expect(IN, "Expected 'in' after loop variable")
		collection := p.parseExpression()
		p.match(NEWLINE)
		body := p.parseStatementBlock()

		return &RepeatForEachStmt{
			baseNode:   baseNode{p.locFrom(start)},
			ItemName:   item.Value,
			Collection: collection,
			Body:       body,
		}
	}

	// repeat while condition
	if p.match(WHILE) {
		condition := p.parseExpression()
		p.match(NEWLINE)
		body := p.parseStatementBlock()

		return &RepeatWhileStmt{
			baseNode:  baseNode{p.locFrom(start)},
			Condition: condition,
			Body:      body,
		}
	}

	// repeat N times
	count := p.parseExpression()
	p.expect(TIMES, "Expected 'times' after count expression")
	p.match(NEWLINE)
	body := p.parseStatementBlock()

	return &RepeatTimesStmt{
		baseNode: baseNode{p.locFrom(start)},
		Count:    count,
		Body:     body,
	}
}

func (p *Parser) parseAttempt() Stmt {
	start := p.previous()
	p.match(NEWLINE)

	stmt := &AttemptStmt{baseNode: baseNode{p.locFrom(start)}}
	stmt.Attempt = p.parseStatementBlock()

	if p.match(IF_UNSUCCESSFUL) {
		p.match(NEWLINE)
		stmt.Unsuccessful = p.parseStatementBlock()
		if stmt.Unsuccessful == nil {
			stmt.Unsuccessful = []Stmt{}
		}
	}
	if p.match(THEN_CONTINUE) {
		p.match(NEWLINE)
		stmt.Continue = p.parseStatementBlock()
		if stmt.Continue == nil {
			stmt.Continue = []Stmt{}
		}
	}

	return stmt
}

func (p *Parser) parseAddToList() Stmt {
	start := p.previous()

	item := p.parseExpression()
	p.expect(TO, "Expected 'to' after item in 'add' statement")
	listName := p.expect(IDENTIFIER, "Expected list name after 'to'").Value
	p.match(NEWLINE)

	return &AddToListStmt{
		baseNode: baseNode{p.locFrom(start)},
		Item:     item,
		ListName: listName,
	}
}

func (p *Parser) parseRemoveFromList() Stmt {
	start := p.previous()

	item := p.parseExpression()
	p.expect(FROM, "Expected 'from' after item in 'remove' statement")
	listName := p.expect(IDENTIFIER, "Expected list name after 'from'").Value
	p.match(NEWLINE)

	return &RemoveFromListStmt{
		baseNode: baseNode{p.locFrom(start)},
		Item:     item,
		ListName: listName,
	}
}

func (p *Parser) parseNote(block bool) Stmt {
	start := p.previous()
	p.match(NEWLINE)

	return &NoteStmt{
		baseNode: baseNode{p.locFrom(start)},
		Text:     start.Value,
		Block:    block,
	}
}

// ---------------------------------------------------------------------------
// Expressions

func (p *Parser) parseExpression() Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()

	for p.match(OR) {
		op := p.previous()
		right := p.parseAnd()
		left = &BinaryOp{
			baseNode: baseNode{p.locFrom(op)},
			Left:     left,
			Op:       "or",
			Right:    right,
		}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseNot()

	for p.match(AND) {
		op := p.previous()
		right := p.parseNot()
		left = &BinaryOp{
			baseNode: baseNode{p.locFrom(op)},
			Left:     left,
			Op:       "and",
			Right:    right,
		}
	}
	return left
}

func (p *Parser) parseNot() Expr {
	if p.match(NOT) {
		op := p.previous()
		operand := p.parseNot()
		return &UnaryOp{
			baseNode: baseNode{p.locFrom(op)},
			Op:       "not",
			Operand:  operand,
		}
	}
	return p.parseComparison()
}

var comparisonOps = map[TokenType]string{
	IS_EQUAL_TO:                 "is equal to",
	IS_NOT_EQUAL_TO:             "is not equal to",
	EQUALS:                      "equals",
	IS_LESS_THAN:                "is less than",
	IS_GREATER_THAN:             "is greater than",
	IS_LESS_THAN_OR_EQUAL_TO:    "is less than or equal to",
	IS_GREATER_THAN_OR_EQUAL_TO: "is greater than or equal to",
}

var typeCheckOps = map[TokenType]string{
	IS_A_NUMBER:  "number",
	IS_A_TEXT:    "text",
	IS_A_BOOLEAN: "boolean",
	IS_A_LIST:    "list",
	IS_A_TABLE:   "table",
}

func (p *Parser) parseComparison() Expr {
	left := p.parseAddition()

	// Word operators with dedicated node types.
	switch {
	case p.match(IS_IN):
		op := p.previous()
		right := p.parseAddition()
		return &IsIn{baseNode: baseNode{p.locFrom(op)}, Item: left, Collection: right}
	case p.match(CONTAINS):
		op := p.previous()
		right := p.parseAddition()
		return &Contains{baseNode: baseNode{p.locFrom(op)}, Text: left, Substring: right}
	case p.match(STARTS_WITH):
		op := p.previous()
		right := p.parseAddition()
		return &StartsWith{baseNode: baseNode{p.locFrom(op)}, Text: left, Prefix: right}
	case p.match(ENDS_WITH):
		op := p.previous()
		right := p.parseAddition()
		return &EndsWith{baseNode: baseNode{p.locFrom(op)}, Text: left, Suffix: right}
	}

	if op, ok := comparisonOps[p.current().Type]; ok {
		opTok := p.advance()
		right := p.parseAddition()
		return &BinaryOp{
			baseNode: baseNode{p.locFrom(opTok)},
			Left:     left,
			Op:       op,
			Right:    right,
		}
	}

	// Postfix type checks: expr is a number, expr is a list, ...
	if typeName, ok := typeCheckOps[p.current().Type]; ok {
		opTok := p.advance()
		return &TypeCheck{
			baseNode: baseNode{p.locFrom(opTok)},
			Value:    left,
			Type:     typeName,
		}
	}

	return left
}

func (p *Parser) parseAddition() Expr {
	left := p.parseMultiplication()

	for {
		switch {
		case p.match(PLUS):
			op := p.previous()
			right := p.parseMultiplication()
			left = &BinaryOp{baseNode: baseNode{p.locFrom(op)}, Left: left, Op: "+", Right: right}
		case p.match(MINUS):
			op := p.previous()
			right := p.parseMultiplication()
			left = &BinaryOp{baseNode: baseNode{p.locFrom(op)}, Left: left, Op: "-", Right: right}
		case p.match(ADDED_TO):
			op := p.previous()
			right := p.parseMultiplication()
			left = &AddedTo{baseNode: baseNode{p.locFrom(op)}, Left: left, Right: right}
		case p.match(SPLIT_BY):
			op := p.previous()
			right := p.parseMultiplication()
			left = &SplitBy{baseNode: baseNode{p.locFrom(op)}, Text: left, Delimiter: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseMultiplication() Expr {
	left := p.parseUnary()

	for {
		switch {
		case p.match(MULTIPLY):
			op := p.previous()
			right := p.parseUnary()
			left = &BinaryOp{baseNode: baseNode{p.locFrom(op)}, Left: left, Op: "*", Right: right}
		case p.match(DIVIDE):
			op := p.previous()
			right := p.parseUnary()
			left = &BinaryOp{baseNode: baseNode{p.locFrom(op)}, Left: left, Op: "/", Right: right}
		case p.match(MODULO):
			op := p.previous()
			right := p.parseUnary()
			left = &BinaryOp{baseNode: baseNode{p.locFrom(op)}, Left: left, Op: "modulo", Right: right}
		default:
			return left
		}
	}
}

func (p *Parser) parseUnary() Expr {
	switch {
	case p.match(MINUS):
		op := p.previous()
		operand := p.parseUnary()
		return &UnaryOp{baseNode: baseNode{p.locFrom(op)}, Op: "-", Operand: operand}

	case p.match(LENGTH_OF):
		op := p.previous()
		operand := p.parseUnary()
		return &LengthOf{baseNode: baseNode{p.locFrom(op)}, Value: operand}

	case p.match(CHARACTER_AT):
		op := p.previous()
		index := p.parsePrimary()
		p.expect(OF, "Expected 'of' after index in 'character at'")
		text := p.parseUnary()
		return &CharacterAt{baseNode: baseNode{p.locFrom(op)}, Index: index, Text: text}

	case p.match(TYPE_OF):
		op := p.previous()
		operand := p.parseUnary()
		return &TypeOf{baseNode: baseNode{p.locFrom(op)}, Value: operand}
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()

	for {
		switch {
		// Index access: expr[key]
		case p.match(LBRACKET):
			bracket := p.previous()
			key := p.parseExpression()
			p.expect(RBRACKET, "Expected ']' after index")
			expr = &IndexAccess{
				baseNode: baseNode{p.locFrom(bracket)},
				Target:   expr,
				Key:      key,
			}

		// Conversion or formatting: expr as type, expr as decimal(N)
		case p.match(AS):
			asTok := p.previous()
			if p.check(IDENTIFIER) && p.current().Value == "decimal" && p.peek().Type == LPAREN {
				p.advance() // "decimal"
				p.expect(LPAREN, "Expected '(' after 'decimal'")
				places := p.parseExpression()
				p.expect(RPAREN, "Expected ')' after decimal places")
				expr = &FormatNumber{
					baseNode: baseNode{p.locFrom(asTok)},
					Value:    expr,
					Places:   places,
				}
			} else {
				expr = &Convert{
					baseNode:   baseNode{p.locFrom(asTok)},
					Value:      expr,
					TargetType: p.advance().Value,
				}
			}

		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	switch {
	case p.match(NUMBER):
		tok := p.previous()
		value, _ := strconv.ParseFloat(tok.Value, 64)
		return &NumberLit{baseNode: baseNode{p.locFrom(tok)}, Value: value}

	case p.match(TEXT):
		tok := p.previous()
		return &TextLit{baseNode: baseNode{p.locFrom(tok)}, Value: tok.Value}

	case p.match(TRUE):
		return &BoolLit{baseNode: baseNode{p.locFrom(p.previous())}, Value: true}

	case p.match(FALSE):
		return &BoolLit{baseNode: baseNode{p.locFrom(p.previous())}, Value: false}

	case p.match(NOTHING):
		return &NothingLit{baseNode: baseNode{p.locFrom(p.previous())}}

	case p.match(INPUT):
		return &InputExpr{baseNode: baseNode{p.locFrom(p.previous())}}

	case p.match(LBRACKET):
		return p.parseListOrTable()

	case p.match(LPAREN):
		expr := p.parseExpression()
		p.expect(RPAREN, "Expected ')' after expression")
		return expr

	case p.match(IDENTIFIER):
		tok := p.previous()
		return &Identifier{baseNode: baseNode{p.locFrom(tok)}, Name: tok.Value}
	}

	p.errorf("Expected expression, found '" + p.current().Value + "'")
	return &NothingLit{baseNode: baseNode{p.loc()}}
}

// parseListOrTable disambiguates [...] literals: a leading colon means an
// empty table, a colon after the first element means a table, anything
// else is a list.
func (p *Parser) parseListOrTable() Expr {
	start := p.previous()

	if p.match(RBRACKET) {
		return &ListLit{baseNode: baseNode{p.locFrom(start)}}
	}

	// Empty table: [:]
	if p.match(COLON) {
		p.expect(RBRACKET, "Expected ']' after empty table")
		return &TableLit{baseNode: baseNode{p.locFrom(start)}}
	}

	first := p.parseExpression()

	if p.match(COLON) {
		firstValue := p.parseExpression()
		pairs := []TablePair{{Key: first, Value: firstValue}}

		for p.match(COMMA) {
			if p.check(RBRACKET) {
				break
			}
			key := p.parseExpression()
			p.expect(COLON, "Expected ':' after table key")
			value := p.parseExpression()
			pairs = append(pairs, TablePair{Key: key, Value: value})
		}
		p.expect(RBRACKET, "Expected ']' after table")
		return &TableLit{baseNode: baseNode{p.locFrom(start)}, Pairs: pairs}
	}

	elements := []Expr{first}
	for p.match(COMMA) {
		if p.check(RBRACKET) {
			break
		}
		elements = append(elements, p.parseExpression())
	}
	p.expect(RBRACKET, "Expected ']' after list")
	return &ListLit{baseNode: baseNode{p.locFrom(start)}, Elements: elements}
}

// ---------------------------------------------------------------------------
// Convenience entry points

// ParseBuildingSource lexes and parses building source in one call.
func ParseBuildingSource(source, file string) (*Building, []*ParseError, error) {
	tokens, err := Tokenize(source, file)
	if err != nil {
		return nil, nil, err
	}
	parser := NewParser(tokens, file)
	node, errs := parser.ParseBuilding()
	return node, errs, nil
}

// ParseFloorSource lexes and parses floor source in one call.
func ParseFloorSource(source, file string) (*Floor, []*ParseError, error) {
	tokens, err := Tokenize(source, file)
	if err != nil {
		return nil, nil, err
	}
	parser := NewParser(tokens, file)
	node, errs := parser.ParseFloor()
	return node, errs, nil
}

// ParseStepSource lexes and parses step source in one call.
func ParseStepSource(source, file string) (*Step, []*ParseError, error) {
	tokens, err := Tokenize(source, file)
	if err != nil {
		return nil, nil, err
	}
	parser := NewParser(tokens, file)
	node, errs := parser.ParseStep()
	return node, errs, nil
}

// ParseREPLInput parses interactive input as a statement list.
func ParseREPLInput(source string) ([]Stmt, []*ParseError, error) {
	tokens, err := Tokenize(source, "<repl>")
	if err != nil {
		return nil, nil, err
	}
	parser := NewParser(tokens, "<repl>")
	stmts, errs := parser.ParseREPLStatements()
	return stmts, errs, nil
}
