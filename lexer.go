// lexer.go: tokenization of Steps source code
//
// The lexer converts Steps source text into a flat token stream. It
// handles:
//   - significant whitespace (indentation tracked as INDENT/DEDENT tokens,
//     4 spaces per level)
//   - multi-word keywords, matched longest first with a word-boundary
//     check so e.g. "in" never truncates "input"
//   - string literals with escape sequences
//   - numbers (integers and decimals, including negatives)
//   - comments ("note: ..." lines and "note block: ... end note")
//   - all Steps keywords, operators, and punctuation
//
// Errors are *LexerError values with 1-based line/column coordinates.
package steps

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenType identifies the kind of a token.
type TokenType int

const (
	// Structure
	BUILDING        TokenType = iota // "building:"
	FLOOR                            // "floor:"
	STEP                             // "step:"
	RISER                            // "riser:"
	BELONGS_TO                       // "belongs to:"
	EXPECTS                          // "expects:"
	RETURNS                          // "returns:"
	DECLARE                          // "declare:"
	DO                               // "do:"
	EXIT                             // "exit"

	// Variables
	AS    // "as"
	FIXED // "fixed"
	SET   // "set"
	TO    // "to"

	// Invocation
	CALL              // "call"
	WITH              // "with"
	STORING_RESULT_IN // "storing result in"
	RETURN            // "return"
	DISPLAY           // "display"
	INPUT             // "input"

	// Control flow
	IF           // "if"
	OTHERWISE_IF // "otherwise if"
	OTHERWISE    // "otherwise"
	REPEAT       // "repeat"
	TIMES        // "times"
	FOR_EACH     // "for each"
	IN           // "in"
	WHILE        // "while"

	// Error handling
	ATTEMPT         // "attempt:"
	IF_UNSUCCESSFUL // "if unsuccessful:"
	THEN_CONTINUE   // "then continue:"

	// Comments
	NOTE       // "note: ..."
	NOTE_BLOCK // "note block: ... end note"

	// Comparison operators
	IS_EQUAL_TO                 // "is equal to"
	EQUALS                      // "equals"
	IS_NOT_EQUAL_TO             // "is not equal to"
	IS_LESS_THAN                // "is less than"
	IS_GREATER_THAN             // "is greater than"
	IS_LESS_THAN_OR_EQUAL_TO    // "is less than or equal to"
	IS_GREATER_THAN_OR_EQUAL_TO // "is greater than or equal to"

	// Boolean operators
	AND // "and"
	OR  // "or"
	NOT // "not"

	// Text operators
	ADDED_TO     // "added to"
	SPLIT_BY     // "split by"
	CHARACTER_AT // "character at"
	LENGTH_OF    // "length of"
	CONTAINS     // "contains"
	STARTS_WITH  // "starts with"
	ENDS_WITH    // "ends with"
	OF           // "of"

	// List operators
	ADD    // "add"
	REMOVE // "remove"
	FROM   // "from"
	IS_IN  // "is in"

	// Type checking
	TYPE_OF      // "type of"
	IS_A_NUMBER  // "is a number"
	IS_A_TEXT    // "is a text"
	IS_A_BOOLEAN // "is a boolean"
	IS_A_LIST    // "is a list"
	IS_A_TABLE   // "is a table"

	// Math operators
	PLUS     // "+"
	MINUS    // "-"
	MULTIPLY // "*"
	DIVIDE   // "/"
	MODULO   // "modulo" or "%"

	// Punctuation
	COLON    // ":"
	COMMA    // ","
	LBRACKET // "["
	RBRACKET // "]"
	LPAREN   // "("
	RPAREN   // ")"

	// Literals
	NUMBER  // 42, 3.14
	TEXT    // "hello"
	TRUE    // "true"
	FALSE   // "false"
	NOTHING // "nothing"

	// Type names
	TYPE_NUMBER  // "number"
	TYPE_TEXT    // "text"
	TYPE_BOOLEAN // "boolean"
	TYPE_LIST    // "list"
	TYPE_TABLE   // "table"

	// Structure
	IDENTIFIER // variable/step names
	NEWLINE    // end of line
	INDENT     // increase in indentation
	DEDENT     // decrease in indentation
	EOF        // end of input
)

// Token is a single token from the source. Value holds the original text
// (or the processed value for strings and notes). Immutable once created.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
	File   string
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%d, %q, L%d:C%d)", t.Type, t.Value, t.Line, t.Column)
}

// Loc returns the token's source location.
func (t Token) Loc() SourceLocation {
	return SourceLocation{File: t.File, Line: t.Line, Column: t.Column}
}

type keywordEntry struct {
	text string
	typ  TokenType
}

// Multi-word keywords, sorted longest first. Matching stops at the first
// hit, so ordering is what keeps "is less than" from shadowing
// "is less than or equal to".
var multiWordKeywords = []keywordEntry{
	{"is greater than or equal to", IS_GREATER_THAN_OR_EQUAL_TO},
	{"is less than or equal to", IS_LESS_THAN_OR_EQUAL_TO},
	{"storing result in", STORING_RESULT_IN},
	{"if unsuccessful:", IF_UNSUCCESSFUL},
	{"is not equal to", IS_NOT_EQUAL_TO},
	{"then continue:", THEN_CONTINUE},
	{"is greater than", IS_GREATER_THAN},
	{"is less than", IS_LESS_THAN},
	{"is a boolean", IS_A_BOOLEAN},
	{"is a number", IS_A_NUMBER},
	{"is a table", IS_A_TABLE},
	{"is a list", IS_A_LIST},
	{"is a text", IS_A_TEXT},
	{"is equal to", IS_EQUAL_TO},
	{"character at", CHARACTER_AT},
	{"otherwise if", OTHERWISE_IF},
	{"note block:", NOTE_BLOCK},
	{"belongs to:", BELONGS_TO},
	{"starts with", STARTS_WITH},
	{"ends with", ENDS_WITH},
	{"length of", LENGTH_OF},
	{"type of", TYPE_OF},
	{"for each", FOR_EACH},
	{"added to", ADDED_TO},
	{"split by", SPLIT_BY},
	{"is in", IS_IN},
}

// Single-word keywords.
var keywords = map[string]TokenType{
	"exit":      EXIT,
	"as":        AS,
	"fixed":     FIXED,
	"set":       SET,
	"to":        TO,
	"call":      CALL,
	"with":      WITH,
	"return":    RETURN,
	"display":   DISPLAY,
	"input":     INPUT,
	"if":        IF,
	"otherwise": OTHERWISE,
	"repeat":    REPEAT,
	"times":     TIMES,
	"in":        IN,
	"while":     WHILE,
	"and":       AND,
	"or":        OR,
	"not":       NOT,
	"contains":  CONTAINS,
	"of":        OF,
	"add":       ADD,
	"remove":    REMOVE,
	"from":      FROM,
	"equals":    EQUALS,
	"modulo":    MODULO,
	"true":      TRUE,
	"false":     FALSE,
	"nothing":   NOTHING,
	"number":    TYPE_NUMBER,
	"text":      TYPE_TEXT,
	"boolean":   TYPE_BOOLEAN,
	"list":      TYPE_LIST,
	"table":     TYPE_TABLE,
}

// Keywords that expect a colon immediately after the word.
var colonKeywords = map[string]TokenType{
	"building": BUILDING,
	"floor":    FLOOR,
	"step":     STEP,
	"riser":    RISER,
	"expects":  EXPECTS,
	"returns":  RETURNS,
	"declare":  DECLARE,
	"do":       DO,
	"attempt":  ATTEMPT,
}

const indentUnit = 4

// Lexer tokenizes Steps source code.
type Lexer struct {
	source      string
	file        string
	pos         int
	line        int
	column      int
	indentStack []int
	atLineStart bool
	tokens      []Token
}

// NewLexer prepares a lexer for source from the named file. The file name
// is only used in diagnostics.
func NewLexer(source, file string) *Lexer {
	return &Lexer{
		source:      source,
		file:        file,
		pos:         0,
		line:        1,
		column:      1,
		indentStack: []int{0},
		atLineStart: true,
	}
}

// Tokenize is a convenience wrapper around NewLexer().Scan().
func Tokenize(source, file string) ([]Token, error) {
	return NewLexer(source, file).Scan()
}

func (l *Lexer) current() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peek(offset int) byte {
	p := l.pos + offset
	if p >= len(l.source) {
		return 0
	}
	return l.source[p]
}

func (l *Lexer) advance() byte {
	ch := l.current()
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
		l.atLineStart = true
	} else {
		l.column++
	}
	return ch
}

// matchAhead reports whether the upcoming source matches text exactly and
// is not a prefix of a longer word (so keyword matching never splits an
// identifier).
func (l *Lexer) matchAhead(text string) bool {
	end := l.pos + len(text)
	if end > len(l.source) {
		return false
	}
	if l.source[l.pos:end] != text {
		return false
	}
	if end < len(l.source) {
		next := l.source[end]
		last := text[len(text)-1]
		if isAlpha(last) && (isAlphaNumeric(next) || next == '_') {
			return false
		}
	}
	return true
}

func (l *Lexer) skipSpaces() {
	for l.current() == ' ' {
		l.advance()
	}
}

func (l *Lexer) emit(typ TokenType, value string, line, column int) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: line, Column: column, File: l.file})
}

func (l *Lexer) errorAt(code string, line, column int, kv ...string) *LexerError {
	loc := SourceLocation{File: l.file, Line: line, Column: column}
	return &LexerError{*MakeError(code, loc, kv...)}
}

// Scan tokenizes the whole source. On error it returns the tokens scanned
// so far along with the error.
func (l *Lexer) Scan() ([]Token, error) {
	if !utf8.ValidString(l.source) {
		return nil, l.errorAt(E101, 1, 1, "char", "\\xFF")
	}

	for l.pos < len(l.source) {
		if l.atLineStart {
			if err := l.handleLineStart(); err != nil {
				return l.tokens, err
			}
		}

		ch := l.current()
		if ch == 0 {
			break
		}

		switch {
		case ch == '\n':
			l.emit(NEWLINE, "\n", l.line, l.column)
			l.advance()

		case ch == '\t':
			return l.tokens, l.errorAt(E103, l.line, l.column)

		case ch == ' ':
			l.skipSpaces()

		case ch == '"':
			tok, err := l.readString()
			if err != nil {
				return l.tokens, err
			}
			l.tokens = append(l.tokens, tok)

		case isDigit(ch) || (ch == '-' && isDigit(l.peek(1))):
			l.tokens = append(l.tokens, l.readNumber())

		case isAlpha(ch) || ch == '_':
			tok, err := l.readIdentifierOrKeyword()
			if err != nil {
				return l.tokens, err
			}
			l.tokens = append(l.tokens, tok)

		case strings.IndexByte("+-*/%", ch) >= 0:
			l.tokens = append(l.tokens, l.readOperator())

		case strings.IndexByte(":,[]()", ch) >= 0:
			l.tokens = append(l.tokens, l.readPunctuation())

		default:
			return l.tokens, l.errorAt(E101, l.line, l.column, "char", string(rune(ch)))
		}
	}

	// Close any open indentation levels.
	for len(l.indentStack) > 1 {
		l.indentStack = l.indentStack[:len(l.indentStack)-1]
		l.emit(DEDENT, "", l.line, 1)
	}

	l.emit(EOF, "", l.line, l.column)
	return l.tokens, nil
}

// handleLineStart measures the leading indentation of a line and emits
// INDENT/DEDENT tokens. Blank lines are skipped without affecting nesting.
func (l *Lexer) handleLineStart() error {
	l.atLineStart = false

	if l.current() == '\n' {
		return nil
	}

	spaces := 0
	for l.current() == ' ' {
		spaces++
		l.advance()
	}

	// Line with only spaces.
	if l.current() == '\n' || l.current() == 0 {
		return nil
	}

	if l.current() == '\t' {
		return l.errorAt(E103, l.line, l.column)
	}

	if spaces%indentUnit != 0 {
		return l.errorAt(E102, l.line, 1, "spaces", fmt.Sprintf("%d", spaces))
	}

	currentIndent := l.indentStack[len(l.indentStack)-1]

	switch {
	case spaces > currentIndent:
		if spaces != currentIndent+indentUnit {
			e := l.errorAt(E102, l.line, 1, "spaces", fmt.Sprintf("%d", spaces))
			e.Message = "Indentation increased by more than one level."
			e.Hint = fmt.Sprintf("Expected %d spaces, found %d.", currentIndent+indentUnit, spaces)
			return e
		}
		l.indentStack = append(l.indentStack, spaces)
		l.emit(INDENT, "", l.line, 1)

	case spaces < currentIndent:
		for spaces < l.indentStack[len(l.indentStack)-1] {
			l.indentStack = l.indentStack[:len(l.indentStack)-1]
			l.emit(DEDENT, "", l.line, 1)
		}
		if spaces != l.indentStack[len(l.indentStack)-1] {
			levels := make([]string, len(l.indentStack))
			for i, s := range l.indentStack {
				levels[i] = fmt.Sprintf("%d", s)
			}
			return l.errorAt(E105, l.line, 1,
				"spaces", fmt.Sprintf("%d", spaces),
				"levels", strings.Join(levels, ", "))
		}
	}

	return nil
}

func (l *Lexer) readString() (Token, error) {
	startLine := l.line
	startCol := l.column
	l.advance() // opening quote

	var b strings.Builder
	for l.current() != '"' {
		if l.current() == '\n' || l.current() == 0 {
			return Token{}, l.errorAt(E104, startLine, startCol)
		}
		if l.current() == '\\' {
			l.advance()
			ch, err := l.escapeSequence()
			if err != nil {
				return Token{}, err
			}
			b.WriteByte(ch)
		} else {
			b.WriteByte(l.advance())
		}
	}
	l.advance() // closing quote

	return Token{Type: TEXT, Value: b.String(), Line: startLine, Column: startCol, File: l.file}, nil
}

func (l *Lexer) escapeSequence() (byte, error) {
	ch := l.advance()
	switch ch {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case '\\':
		return '\\', nil
	case '"':
		return '"', nil
	case 'r':
		return '\r', nil
	}
	e := l.errorAt(E101, l.line, l.column)
	e.Message = fmt.Sprintf("Unknown escape sequence: \\%c", ch)
	e.Hint = `Valid escapes are: \n, \t, \\, \"`
	return 0, e
}

func (l *Lexer) readNumber() Token {
	startCol := l.column
	var b strings.Builder

	if l.current() == '-' {
		b.WriteByte(l.advance())
	}
	for isDigit(l.current()) {
		b.WriteByte(l.advance())
	}
	if l.current() == '.' && isDigit(l.peek(1)) {
		b.WriteByte(l.advance())
		for isDigit(l.current()) {
			b.WriteByte(l.advance())
		}
	}

	return Token{Type: NUMBER, Value: b.String(), Line: l.line, Column: startCol, File: l.file}
}

func (l *Lexer) readIdentifierOrKeyword() (Token, error) {
	startCol := l.column

	// Multi-word keywords first, longest match wins.
	for _, kw := range multiWordKeywords {
		if l.matchAhead(kw.text) {
			for i := 0; i < len(kw.text); i++ {
				l.advance()
			}
			if kw.typ == NOTE_BLOCK {
				return l.readNoteBlock(startCol)
			}
			return Token{Type: kw.typ, Value: kw.text, Line: l.line, Column: startCol, File: l.file}, nil
		}
	}

	var b strings.Builder
	for isAlphaNumeric(l.current()) || l.current() == '_' {
		b.WriteByte(l.advance())
	}
	value := b.String()

	// Structure keywords consume their trailing colon.
	if typ, ok := colonKeywords[value]; ok || value == "note" {
		mark := l.pos
		markCol := l.column
		for l.current() == ' ' {
			l.advance()
		}
		if l.current() == ':' {
			l.advance()
			if value == "note" {
				return l.readNoteContent(startCol), nil
			}
			return Token{Type: typ, Value: value + ":", Line: l.line, Column: startCol, File: l.file}, nil
		}
		// No colon: treat as a plain word below.
		l.pos = mark
		l.column = markCol
	}

	if typ, ok := keywords[value]; ok {
		return Token{Type: typ, Value: value, Line: l.line, Column: startCol, File: l.file}, nil
	}
	return Token{Type: IDENTIFIER, Value: value, Line: l.line, Column: startCol, File: l.file}, nil
}

// readNoteContent captures the rest of the line as a comment token.
func (l *Lexer) readNoteContent(startCol int) Token {
	l.skipSpaces()
	var b strings.Builder
	for l.current() != '\n' && l.current() != 0 {
		b.WriteByte(l.advance())
	}
	return Token{Type: NOTE, Value: strings.TrimSpace(b.String()), Line: l.line, Column: startCol, File: l.file}
}

// readNoteBlock consumes everything up to "end note" and yields a single
// comment token holding the block's content.
func (l *Lexer) readNoteBlock(startCol int) (Token, error) {
	startLine := l.line
	var b strings.Builder
	for {
		if l.pos >= len(l.source) {
			e := l.errorAt(E104, startLine, startCol)
			e.Message = "Note block starting here was never closed."
			e.Hint = "Add 'end note' to close the note block."
			return Token{}, e
		}
		if l.matchAhead("end note") {
			for i := 0; i < len("end note"); i++ {
				l.advance()
			}
			break
		}
		b.WriteByte(l.advance())
	}
	return Token{Type: NOTE_BLOCK, Value: strings.TrimSpace(b.String()), Line: startLine, Column: startCol, File: l.file}, nil
}

func (l *Lexer) readOperator() Token {
	startCol := l.column
	ch := l.advance()
	var typ TokenType
	switch ch {
	case '+':
		typ = PLUS
	case '-':
		typ = MINUS
	case '*':
		typ = MULTIPLY
	case '/':
		typ = DIVIDE
	case '%':
		typ = MODULO
	}
	return Token{Type: typ, Value: string(rune(ch)), Line: l.line, Column: startCol, File: l.file}
}

func (l *Lexer) readPunctuation() Token {
	startCol := l.column
	ch := l.advance()
	var typ TokenType
	switch ch {
	case ':':
		typ = COLON
	case ',':
		typ = COMMA
	case '[':
		typ = LBRACKET
	case ']':
		typ = RBRACKET
	case '(':
		typ = LPAREN
	case ')':
		typ = RPAREN
	}
	return Token{Type: typ, Value: string(rune(ch)), Line: l.line, Column: startCol, File: l.file}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlphaNumeric(ch byte) bool { return isAlpha(ch) || isDigit(ch) }
