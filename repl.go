// repl.go: interactive session engine
//
// The session keeps one persistent interactive environment and
// evaluates bare statement lists. Block statements arrive over several
// lines; the session buffers them until a blank line closes the block.
// Line editing, prompts and session commands live in the CLI.
package steps

import (
	"sort"
	"strings"
)

// ReplVersion is reported in the session banner.
const ReplVersion = Version

// blockOpeners start multi-line constructs at the prompt.
var blockOpeners = []string{
	"if ",
	"otherwise if ",
	"otherwise",
	"repeat ",
	"attempt:",
	"if unsuccessful:",
	"then continue:",
}

// REPLSession evaluates Steps statements against a persistent
// interactive environment.
type REPLSession struct {
	Env    *Environment
	Interp *Interpreter

	buffer []string
}

// NewREPLSession creates a session with a fresh interactive
// environment.
func NewREPLSession() *REPLSession {
	env := NewEnvironment()
	env.Interactive = true
	return &REPLSession{
		Env:    env,
		Interp: NewInterpreter(env),
	}
}

// InBlock reports whether the session is buffering a multi-line
// construct.
func (s *REPLSession) InBlock() bool { return len(s.buffer) > 0 }

// NeedsContinuation reports whether a line opens a block and therefore
// needs more input before it can run.
func NeedsContinuation(line string) bool {
	stripped := strings.TrimSpace(line)
	for _, opener := range blockOpeners {
		if strings.HasPrefix(stripped, opener) || stripped == strings.TrimSuffix(opener, ":") {
			return true
		}
	}
	return false
}

// Feed accepts one input line. When a complete unit is ready it is
// returned with ready true; otherwise the line was buffered.
func (s *REPLSession) Feed(line string) (source string, ready bool) {
	if s.InBlock() {
		if strings.TrimSpace(line) == "" {
			source = strings.Join(s.buffer, "\n")
			s.buffer = nil
			return source, true
		}
		s.buffer = append(s.buffer, line)
		return "", false
	}
	if NeedsContinuation(line) {
		s.buffer = append(s.buffer, line)
		return "", false
	}
	return line, true
}

// Eval parses and executes one unit of input. Parse errors come back
// before anything runs; a runtime error leaves earlier statements'
// effects in place.
func (s *REPLSession) Eval(source string) error {
	if strings.TrimSpace(source) == "" {
		return nil
	}
	stmts, parseErrs, err := ParseREPLInput(source)
	if err != nil {
		return err
	}
	if len(parseErrs) > 0 {
		return parseErrs[0]
	}
	_, err = s.Interp.ExecStatements(stmts)
	return err
}

// Reset discards every variable and any buffered input.
func (s *REPLSession) Reset() {
	env := NewEnvironment()
	env.Interactive = true
	env.Input = s.Env.Input
	env.Output = s.Env.Output
	s.Env = env
	s.Interp = NewInterpreter(env)
	s.buffer = nil
}

// Variables lists the session's bindings in name order, formatted for
// the vars command.
func (s *REPLSession) Variables() []VariableInfo {
	vars := s.Env.GlobalScope().Variables()
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)

	infos := make([]VariableInfo, 0, len(names))
	for _, n := range names {
		v := vars[n]
		infos = append(infos, VariableInfo{
			Name:  n,
			Type:  v.TypeName(),
			Value: replValue(v),
		})
	}
	return infos
}

// replValue formats a value for session output. Text shows unquoted;
// nothing shows as the empty string.
func replValue(v Value) string {
	switch v.Tag {
	case TagNothing:
		return ""
	case TagText:
		return v.Str
	default:
		return v.Display()
	}
}
