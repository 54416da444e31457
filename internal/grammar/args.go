package grammar

import (
	"regexp"
	"strings"
)

var keywordRe = regexp.MustCompile(`^/([A-Za-z]+)(?:\s+|$)`)

// Keyword returns the lowercased command keyword of a line and the remaining
// argument text, or ok=false if the line does not start with /keyword.
func Keyword(line string) (keyword, args string, ok bool) {
	m := keywordRe.FindStringSubmatchIndex(line)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(line[m[2]:m[3]]), strings.TrimSpace(line[m[1]:]), true
}

// Unquote strips one pair of matching double or single quotes.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// IsComment reports whether a trimmed line is a comment.
func IsComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//")
}
