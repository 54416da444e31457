package macrotypes

import "fmt"

// SyntaxError reports a macro line that matches no known command grammar.
type SyntaxError struct {
	Line   int    // 1-based line number within the macro body, 0 when unknown
	Text   string // offending text
	Reason string // optional detail from the command recognizer
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("syntax error: %q", e.Text)
	if e.Line > 0 {
		msg = fmt.Sprintf("syntax error on line %d: %q", e.Line, e.Text)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
