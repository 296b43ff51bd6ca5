package filter

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errUnterminatedString = errors.New("unterminated string literal")
	errUnterminatedAttr   = errors.New("unterminated attribute reference")
	errEmptyAttr          = errors.New("empty attribute name")
)

// translate rewrites a style filter into the expr language:
//   - [name] becomes $env["name"]
//   - = becomes ==, <> becomes !=
//   - .match('re') becomes matches 're'
//
// String literals are copied unchanged.
func translate(s string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			end := i + 1
			for end < len(s) && s[end] != c {
				if s[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(s) {
				return "", errUnterminatedString
			}
			out.WriteString(s[i : end+1])
			i = end
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return "", errUnterminatedAttr
			}
			name := strings.TrimSpace(s[i+1 : i+end])
			if name == "" {
				return "", errEmptyAttr
			}
			out.WriteString(`$env[` + strconv.Quote(name) + `]`)
			i += end
		case c == '<' && i+1 < len(s) && s[i+1] == '>':
			out.WriteString("!=")
			i++
		case c == '=':
			prev := byte(0)
			if i > 0 {
				prev = s[i-1]
			}
			if prev == '<' || prev == '>' || prev == '!' || prev == '=' {
				out.WriteByte(c)
			} else if i+1 < len(s) && s[i+1] == '=' {
				out.WriteString("==")
				i++
			} else {
				out.WriteString("==")
			}
		case c == '.' && strings.HasPrefix(s[i:], ".match("):
			out.WriteString(" matches (")
			i += len(".match(") - 1
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}
