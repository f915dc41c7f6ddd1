package sqlcheck

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// clauseKeywords can never be a table name or a table alias: they start
// the next clause or join of the statement.
var clauseKeywords = wordSet(
	"SELECT", "FROM", "WHERE", "GROUP", "ORDER", "HAVING", "LIMIT", "OFFSET",
	"UNION", "INTERSECT", "EXCEPT", "MINUS", "WINDOW", "QUALIFY", "FETCH", "FOR",
	"RETURNING", "ON", "USING", "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "OUTER",
	"CROSS", "NATURAL", "STRAIGHT_JOIN", "SEMI", "ANTI", "ASOF", "SET", "VALUES",
	"DEFAULT", "AS", "WITH", "INTO", "LATERAL", "ONLY", "TABLESAMPLE", "PARTITION",
	"USE", "FORCE", "IGNORE", "PIVOT", "UNPIVOT", "WHEN", "THEN", "ELSE", "END",
	"AND", "OR", "NOT", "DO", "CONNECT", "START", "OUTPUT", "OVERRIDING",
)

// keywords are reserved words, never reported as identifiers inside
// expressions.
var keywords = func() map[string]bool {
	m := wordSet(
		"NULL", "IS", "IN", "LIKE", "ILIKE", "RLIKE", "REGEXP", "BETWEEN", "EXISTS",
		"DISTINCT", "DISTINCTROW", "ALL", "ANY", "SOME", "TRUE", "FALSE", "CASE",
		"ASC", "DESC", "BY", "OVER", "INTERVAL", "CAST", "TRY_CAST", "COLLATE",
		"SIMILAR", "TO", "ARRAY", "DELETE", "INSERT", "UPDATE", "BOTH", "LEADING",
		"TRAILING", "CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "LOCALTIME",
		"LOCALTIMESTAMP", "CURRENT_USER", "SESSION_USER",
	)
	for w := range clauseKeywords {
		m[w] = true
	}
	return m
}()

// position decides from its neighbours whether a word is used as a keyword.
type position func(prev, next token) bool

func after(words ...string) position {
	set := wordSet(words...)
	return func(prev, _ token) bool {
		return prev.kind == tokWord && set[prev.upper]
	}
}

func before(words ...string) position {
	set := wordSet(words...)
	return func(_, next token) bool {
		return next.kind == tokWord && set[next.upper]
	}
}

func anyOf(ps ...position) position {
	return func(prev, next token) bool {
		for _, p := range ps {
			if p(prev, next) {
				return true
			}
		}
		return false
	}
}

func beforeParen(_, next token) bool { return next.isPunct("(") }

func afterCount(prev, _ token) bool {
	return prev.kind == tokNumber || prev.kind == tokParam
}

// contextWords are keywords only where the grammar puts them; elsewhere
// they name columns such as "first" or "rows".
var contextWords = map[string]position{
	"NULLS":        before("FIRST", "LAST"),
	"FIRST":        after("NULLS", "FETCH"),
	"LAST":         after("NULLS"),
	"NEXT":         after("FETCH"),
	"ROW":          anyOf(after("FIRST", "NEXT", "CURRENT"), afterCount, before("ONLY"), beforeParen),
	"ROWS":         anyOf(after("FIRST", "NEXT"), afterCount, before("BETWEEN", "UNBOUNDED", "CURRENT", "ONLY")),
	"RANGE":        before("BETWEEN", "UNBOUNDED", "CURRENT"),
	"GROUPS":       before("BETWEEN", "UNBOUNDED", "CURRENT"),
	"CURRENT":      before("ROW", "OF"),
	"UNBOUNDED":    before("PRECEDING", "FOLLOWING"),
	"PRECEDING":    anyOf(after("UNBOUNDED"), afterCount, func(prev, _ token) bool { return prev.kind == tokString }),
	"FOLLOWING":    anyOf(after("UNBOUNDED"), afterCount, func(prev, _ token) bool { return prev.kind == tokString }),
	"EXCLUDE":      before("CURRENT", "GROUP", "TIES", "NO"),
	"TIES":         after("WITH", "EXCLUDE"),
	"NO":           before("OTHERS", "KEY", "ACTION"),
	"OTHERS":       after("NO"),
	"OF":           after("CURRENT", "UPDATE", "SHARE"),
	"FILTER":       func(prev, next token) bool { return prev.isPunct(")") && next.isPunct("(") },
	"WITHIN":       before("GROUP"),
	"SHARE":        after("FOR", "KEY"),
	"PERCENT":      afterCount,
	"TOP":          func(_, next token) bool { return next.kind == tokNumber || next.isPunct("(") },
	"ROLLUP":       beforeParen,
	"CUBE":         beforeParen,
	"GROUPING":     anyOf(before("SETS"), beforeParen),
	"SETS":         after("GROUPING"),
	"UNKNOWN":      after("IS", "NOT"),
	"ESCAPE":       func(_, next token) bool { return next.kind == tokString },
	"NOTHING":      after("DO"),
	"CONFLICT":     after("ON"),
	"RECURSIVE":    after("WITH"),
	"MATERIALIZED": after("AS", "NOT"),
	"NOWAIT":       after("UPDATE", "SHARE"),
	"SKIP":         before("LOCKED"),
	"LOCKED":       after("SKIP"),
}

// typedLiterals prefix a string literal to form a typed constant
// (DATE '2024-01-01'); elsewhere they are ordinary identifiers.
var typedLiterals = wordSet("DATE", "TIME", "TIMESTAMP", "TIMESTAMPTZ")

// selectListEnd terminates the select list of the main statement.
var selectListEnd = wordSet(
	"FROM", "INTO", "WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET",
	"UNION", "INTERSECT", "EXCEPT", "MINUS", "WINDOW", "QUALIFY", "FETCH", "FOR",
)

var setOperators = wordSet("UNION", "INTERSECT", "EXCEPT", "MINUS")

// clauseEnd terminates a WHERE, GROUP BY, HAVING or ORDER BY clause.
var clauseEnd = wordSet(
	"WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET", "UNION", "INTERSECT",
	"EXCEPT", "MINUS", "WINDOW", "QUALIFY", "FETCH", "FOR", "RETURNING", "SELECT",
)

// assignmentEnd terminates the assignment list of a SET clause.
var assignmentEnd = wordSet("WHERE", "FROM", "RETURNING", "ORDER", "LIMIT", "OUTPUT")
