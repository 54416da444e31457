package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"peon/internal/logger"
	"peon/pkg/macrotypes"
)

// ParseFunc builds a command from a full line. It returns a *macrotypes.SyntaxError
// when the line uses the keyword but not its argument grammar.
type ParseFunc func(line string) (macrotypes.Command, error)

// Recognizer pairs a command keyword with its parse function.
type Recognizer struct {
	Keywords []string
	Parse    ParseFunc
}

// Matches reports whether the recognizer owns the given keyword.
func (r Recognizer) Matches(keyword string) bool {
	for _, k := range r.Keywords {
		if strings.EqualFold(k, keyword) {
			return true
		}
	}
	return false
}

// Parser converts macro bodies into command sequences. Recognizers are tried
// in registration order, so earlier entries take precedence.
type Parser struct {
	recognizers []Recognizer
	logger      *log.Logger
}

// NewParser creates a parser over an ordered list of recognizers.
func NewParser(recognizers ...Recognizer) *Parser {
	return &Parser{
		recognizers: recognizers,
		logger:      logger.NewStyledLogger("Parser"),
	}
}

// Parse converts a macro body into commands, one per non-blank, non-comment
// line, in source order. Any unrecognized line fails the whole parse.
func (p *Parser) Parse(text string) ([]macrotypes.Command, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	steps := make([]macrotypes.Command, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || IsComment(line) {
			continue
		}

		cmd, err := p.ParseLine(line)
		if err != nil {
			var syntaxErr *macrotypes.SyntaxError
			if errors.As(err, &syntaxErr) {
				syntaxErr.Line = i + 1
			}
			return nil, err
		}
		steps = append(steps, cmd)
	}

	p.logger.Debug("Parsed macro", "steps", len(steps))
	return steps, nil
}

// ParseLine converts one line into a command.
func (p *Parser) ParseLine(line string) (macrotypes.Command, error) {
	line = strings.TrimSpace(line)
	if err := CheckModifiers(line); err != nil {
		return nil, err
	}

	// Modifiers may sit between the keyword and its arguments, so match the
	// keyword on a copy with the wait modifier already removed.
	stripped, _, _ := ExtractWait(line)
	keyword, _, ok := Keyword(stripped)
	if !ok {
		return nil, &macrotypes.SyntaxError{Text: line}
	}

	for _, r := range p.recognizers {
		if !r.Matches(keyword) {
			continue
		}
		cmd, err := r.Parse(line)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}

	return nil, &macrotypes.SyntaxError{Text: line, Reason: fmt.Sprintf("unknown command /%s", keyword)}
}

// Keywords lists every keyword the parser understands, in precedence order.
func (p *Parser) Keywords() []string {
	var out []string
	for _, r := range p.recognizers {
		out = append(out, r.Keywords...)
	}
	return out
}
