package sqlcheck

import "strings"

// SplitStatements splits a script on semicolons that are outside string
// literals, quoted identifiers and comments. Statements are trimmed and
// lose their terminator; statements that are empty once comments are
// stripped are dropped.
func SplitStatements(script string) []string {
	var statements []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		current.Reset()
		if Normalize(stmt) != "" {
			statements = append(statements, stmt)
		}
	}

	var quote rune
	inLine, inBlock := false, false

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case inLine:
			if ch == '\n' {
				inLine = false
			}
		case inBlock:
			if ch == '*' && next == '/' {
				inBlock = false
				current.WriteRune(ch)
				ch = next
				i++
			}
		case quote != 0:
			// doubled quotes escape themselves and need no special case:
			// the second one reopens the literal
			if ch == quote {
				quote = 0
			}
		case ch == '-' && next == '-':
			inLine = true
		case ch == '/' && next == '*':
			inBlock = true
			current.WriteRune(ch)
			ch = next
			i++
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == ';':
			flush()
			continue
		}

		current.WriteRune(ch)
	}
	flush()

	return statements
}
