package sqlcheck

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Normalize strips line and block comments and collapses whitespace runs
// to single spaces. The order matters: line comments go first so that a
// "--" inside a block comment cannot hide its terminator.
func Normalize(query string) string {
	query = lineCommentRe.ReplaceAllString(query, "")
	query = blockCommentRe.ReplaceAllString(query, " ")
	query = whitespaceRe.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokString
	tokNumber
	tokParam
	tokPunct
	tokOperator
)

// token is a lexical unit of a normalized query. depth is the number of
// parentheses enclosing the token; a parenthesis carries the depth of the
// expression it belongs to, not of its contents.
type token struct {
	kind  tokenKind
	text  string
	upper string
	depth int
}

func (t token) isWord(upper string) bool {
	return t.kind == tokWord && t.upper == upper
}

func (t token) isPunct(p string) bool {
	return t.kind == tokPunct && t.text == p
}

func (t token) isOperator(op string) bool {
	return t.kind == tokOperator && t.text == op
}

// isName reports whether the token can name a table or column
func (t token) isName() bool {
	return t.kind == tokWord || t.kind == tokQuoted
}

// multi-character operators recognised by the tokenizer, longest first
var operators = []string{"->>", "::", "<=", ">=", "<>", "!=", "||", "->", "=>"}

// tokenize splits a normalized query into tokens. It never fails: unknown
// characters become single-character operators and unterminated literals
// run to the end of the input.
func tokenize(query string) []token {
	runes := []rune(query)
	n := len(runes)
	var toks []token
	depth := 0

	emit := func(kind tokenKind, text string) {
		t := token{kind: kind, text: text, depth: depth}
		if kind == tokWord {
			t.upper = strings.ToUpper(text)
		}
		toks = append(toks, t)
	}

	for i := 0; i < n; {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\'':
			var b strings.Builder
			j := i + 1
			for j < n {
				if runes[j] == '\'' {
					if j+1 < n && runes[j+1] == '\'' {
						b.WriteRune('\'')
						j += 2
						continue
					}
					break
				}
				b.WriteRune(runes[j])
				j++
			}
			emit(tokString, b.String())
			i = j + 1

		case r == '"' || r == '`' || (r == '[' && !subscriptable(toks)):
			closer := r
			if r == '[' {
				closer = ']'
			}
			j := i + 1
			for j < n && runes[j] != closer {
				j++
			}
			emit(tokQuoted, string(runes[i+1:j]))
			i = j + 1

		case isIdentStart(r):
			j := i + 1
			for j < n && isIdentPart(runes[j]) {
				j++
			}
			emit(tokWord, string(runes[i:j]))
			i = j

		case unicode.IsDigit(r) || (r == '.' && i+1 < n && unicode.IsDigit(runes[i+1])):
			j := i + 1
			for j < n && (unicode.IsDigit(runes[j]) || runes[j] == '.' || unicode.IsLetter(runes[j])) {
				j++
			}
			emit(tokNumber, string(runes[i:j]))
			i = j

		case r == '$' && i+1 < n && unicode.IsDigit(runes[i+1]):
			j := i + 1
			for j < n && unicode.IsDigit(runes[j]) {
				j++
			}
			emit(tokParam, string(runes[i:j]))
			i = j

		case r == '?':
			emit(tokParam, "?")
			i++

		case (r == ':' || r == '@') && i+1 < n && isIdentStart(runes[i+1]):
			j := i + 1
			for j < n && isIdentPart(runes[j]) {
				j++
			}
			emit(tokParam, string(runes[i:j]))
			i = j

		case r == '(':
			emit(tokPunct, "(")
			depth++
			i++

		case r == ')':
			if depth > 0 {
				depth--
			}
			emit(tokPunct, ")")
			i++

		case r == ',' || r == '.' || r == ';' || r == '*':
			emit(tokPunct, string(r))
			i++

		default:
			op := string(r)
			rest := string(runes[i:min(i+3, n)])
			for _, candidate := range operators {
				if strings.HasPrefix(rest, candidate) {
					op = candidate
					break
				}
			}
			emit(tokOperator, op)
			i += len([]rune(op))
		}
	}

	return toks
}

// subscriptable reports whether a '[' at this point indexes the previous
// operand (arr[1]) rather than opening a bracket-quoted identifier.
func subscriptable(toks []token) bool {
	if len(toks) == 0 {
		return false
	}
	last := toks[len(toks)-1]
	if last.kind == tokWord {
		return !keywords[last.upper]
	}
	return last.kind == tokQuoted || last.isPunct(")")
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
