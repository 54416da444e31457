// Package grammar implements the shared macro line grammar: modifier extraction,
// argument helpers and the ordered recognizer-based parser.
package grammar

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"peon/pkg/macrotypes"
)

// MaxSeconds is the longest delay a modifier or /wait can express.
const MaxSeconds = math.MaxInt64 / int64(time.Second)

// ErrDurationOutOfRange is returned for delays longer than MaxSeconds.
var ErrDurationOutOfRange = errors.New("duration out of range")

var (
	waitModifierRe    = regexp.MustCompile(`(?i)\s*<wait\.(\d+(?:\.\d+)?)(?:,(\d+(?:\.\d+)?))?>`)
	maxWaitModifierRe = regexp.MustCompile(`(?i)\s*<maxwait\.(\d+(?:\.\d+)?)>`)
	echoModifierRe    = regexp.MustCompile(`(?i)\s*<echo>`)
)

// ExtractWait removes a <wait.N> or <wait.N,M> modifier from text. The returned
// text has the modifier stripped and surrounding space trimmed.
func ExtractWait(text string) (string, macrotypes.WaitModifier, bool) {
	m := waitModifierRe.FindStringSubmatchIndex(text)
	if m == nil {
		return strings.TrimSpace(text), macrotypes.WaitModifier{}, false
	}

	minWait := parseSeconds(text[m[2]:m[3]])
	maxWait := minWait
	if m[4] >= 0 {
		maxWait = parseSeconds(text[m[4]:m[5]])
	}
	if maxWait < minWait {
		minWait, maxWait = maxWait, minWait
	}

	rest := strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return rest, macrotypes.WaitModifier{Min: minWait, Max: maxWait}, true
}

// ExtractMaxWait removes a <maxwait.N> modifier from text.
func ExtractMaxWait(text string) (string, time.Duration, bool) {
	m := maxWaitModifierRe.FindStringSubmatchIndex(text)
	if m == nil {
		return strings.TrimSpace(text), 0, false
	}
	rest := strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return rest, parseSeconds(text[m[2]:m[3]]), true
}

// ExtractEcho removes an <echo> modifier from text.
func ExtractEcho(text string) (string, bool) {
	m := echoModifierRe.FindStringIndex(text)
	if m == nil {
		return strings.TrimSpace(text), false
	}
	return strings.TrimSpace(text[:m[0]] + text[m[1]:]), true
}

// ParseSeconds converts a decimal number of seconds into a duration.
func ParseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > float64(MaxSeconds) {
		return 0, fmt.Errorf("%w: %s seconds", ErrDurationOutOfRange, s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// CheckModifiers reports a syntax error when a wait or maxwait modifier in
// line holds a delay that cannot be represented.
func CheckModifiers(line string) error {
	var values []string
	for _, m := range waitModifierRe.FindAllStringSubmatch(line, -1) {
		values = append(values, m[1], m[2])
	}
	for _, m := range maxWaitModifierRe.FindAllStringSubmatch(line, -1) {
		values = append(values, m[1])
	}

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, err := ParseSeconds(v); err != nil {
			return &macrotypes.SyntaxError{Text: line, Reason: err.Error()}
		}
	}
	return nil
}

// parseSeconds is ParseSeconds for values already checked by CheckModifiers.
func parseSeconds(s string) time.Duration {
	d, err := ParseSeconds(s)
	if err != nil {
		return 0
	}
	return d
}
