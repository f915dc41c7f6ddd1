package sqlcheck

import "strings"

// Star is the column set reported for a SELECT * (or qualifier.*) query.
const Star = "*"

// Options tune extraction and validation.
type Options struct {
	// FoldCase lower-cases extracted names and compares catalog entries
	// case-insensitively.
	FoldCase bool `json:"fold_case"`
	// FlagUnknownTables reports referenced tables missing from the catalog.
	FlagUnknownTables bool `json:"flag_unknown_tables"`
	// IgnoreFunctionNames drops identifiers that are immediately called,
	// such as COUNT in COUNT(*).
	IgnoreFunctionNames bool `json:"ignore_function_names"`
}

// Extraction is everything the extractor found in one statement.
type Extraction struct {
	Tables  IdentifierSet `json:"tables"`
	Columns IdentifierSet `json:"columns"`
	// CTEs holds the names defined by a leading WITH clause. They also
	// appear in Tables when the statement references them.
	CTEs IdentifierSet `json:"ctes"`
	Star bool          `json:"star"`
}

// Extract returns the bare table and column names referenced by query.
// It never fails; an empty or unparseable query yields empty sets.
func Extract(query string) (tables, columns IdentifierSet) {
	ex := ExtractWith(query, Options{})
	return ex.Tables, ex.Columns
}

// ExtractWith is Extract with explicit options.
func ExtractWith(query string, opts Options) Extraction {
	x := &extractor{
		toks:    tokenize(Normalize(query)),
		opts:    opts,
		tables:  make(IdentifierSet),
		bare:    make(IdentifierSet),
		columns: make(IdentifierSet),
		ctes:    make(IdentifierSet),
	}
	x.run()
	return x.result()
}

type extractor struct {
	toks []token
	opts Options

	// inQuery marks tokens that sit at the top level of the statement or
	// directly inside a parenthesized subquery, as opposed to inside a
	// function call or expression group.
	inQuery []bool
	// refs marks table names and aliases of FROM, JOIN, INTO and UPDATE
	refs []bool
	// depth of the main SELECT
	depth int

	tables  IdentifierSet
	bare    IdentifierSet // tables referenced without an alias
	columns IdentifierSet
	ctes    IdentifierSet
	star    bool
}

func (x *extractor) run() {
	if len(x.toks) == 0 {
		return
	}
	x.markQueryScopes()
	x.readCTEs()
	x.readTables()

	if sel := x.mainSelect(); sel >= 0 {
		x.depth = x.toks[sel].depth
		x.readSelectList(sel + 1)
		x.readBranches(sel + 1)
		if x.star {
			return
		}
	}
	x.readAssignments()
	x.readClauses()
}

func (x *extractor) result() Extraction {
	ex := Extraction{Tables: x.tables, CTEs: x.ctes, Star: x.star}
	if x.star {
		ex.Columns = NewIdentifierSet(Star)
		return ex
	}
	for name := range x.bare {
		x.columns.Remove(name)
	}
	ex.Columns = x.columns
	return ex
}

func (x *extractor) fold(name string) string {
	if x.opts.FoldCase {
		return strings.ToLower(name)
	}
	return name
}

func (x *extractor) markQueryScopes() {
	x.inQuery = make([]bool, len(x.toks))
	stack := []bool{true}
	for i, t := range x.toks {
		if t.isPunct(")") && len(stack) > 1 {
			stack = stack[:len(stack)-1]
		}
		x.inQuery[i] = stack[len(stack)-1]
		if t.isPunct("(") {
			stack = append(stack, x.opensSubquery(i))
		}
	}
}

// opensSubquery reports whether the parenthesis at i starts a query.
func (x *extractor) opensSubquery(i int) bool {
	if i+1 >= len(x.toks) {
		return false
	}
	next := x.toks[i+1]
	return next.isWord("SELECT") || next.isWord("WITH")
}

// closing returns the index of the parenthesis matching the one at i, or
// the last index when the input ends first.
func (x *extractor) closing(i int) int {
	d := x.toks[i].depth
	for j := i + 1; j < len(x.toks); j++ {
		if x.toks[j].isPunct(")") && x.toks[j].depth == d {
			return j
		}
	}
	return len(x.toks) - 1
}

// readCTEs records the names of a leading WITH clause:
// WITH [RECURSIVE] name [(cols)] AS [NOT] [MATERIALIZED] (query), ...
func (x *extractor) readCTEs() {
	n := len(x.toks)
	if !x.toks[0].isWord("WITH") {
		return
	}
	i := 1
	if i < n && x.toks[i].isWord("RECURSIVE") {
		i++
	}
	for i < n && x.toks[i].isName() {
		name := x.toks[i].text
		i++
		if i < n && x.toks[i].isPunct("(") {
			i = x.closing(i) + 1
		}
		if i >= n || !x.toks[i].isWord("AS") {
			return
		}
		i++
		for i < n && (x.toks[i].isWord("NOT") || x.toks[i].isWord("MATERIALIZED")) {
			i++
		}
		if i >= n || !x.toks[i].isPunct("(") {
			return
		}
		x.ctes.Add(x.fold(name))
		i = x.closing(i) + 1
		if i >= n || !x.toks[i].isPunct(",") {
			return
		}
		i++
	}
}

func (x *extractor) readTables() {
	x.refs = make([]bool, len(x.toks))
	for i, t := range x.toks {
		if t.kind != tokWord {
			continue
		}
		switch t.upper {
		case "FROM":
			// EXTRACT(YEAR FROM ts) and IS DISTINCT FROM are not table lists
			if !x.inQuery[i] || (i > 0 && x.toks[i-1].isWord("DISTINCT")) {
				continue
			}
			x.readTableRefs(i+1, true, false)
		case "JOIN":
			x.readTableRefs(i+1, false, false)
		case "INTO":
			x.readTableRefs(i+1, false, true)
		case "UPDATE":
			// FOR UPDATE, FOR NO KEY UPDATE, DO UPDATE, ON DUPLICATE KEY UPDATE
			if i > 0 && (x.toks[i-1].isWord("FOR") || x.toks[i-1].isWord("DO") || x.toks[i-1].isWord("KEY")) {
				continue
			}
			x.readTableRefs(i+1, false, false)
		}
	}
}

// readTableRefs reads the table reference starting at j, or a comma
// separated list of them when list is set. With into set, a column list
// following the table name is collected as columns.
func (x *extractor) readTableRefs(j int, list, into bool) {
	n := len(x.toks)
	if j >= n {
		return
	}
	depth := x.toks[j].depth
	for j < n {
		for j < n && (x.toks[j].isWord("LATERAL") || x.toks[j].isWord("ONLY")) {
			j++
		}
		if j >= n {
			return
		}
		t := x.toks[j]
		switch {
		case t.isPunct("("):
			end := x.closing(j)
			if !x.opensSubquery(j) {
				// parenthesized join: FROM (a JOIN b ON ...)
				x.readTableRefs(j+1, true, false)
			}
			j, _ = x.skipAlias(end + 1)
			x.markRefs(end+1, j)

		case t.kind == tokQuoted || (t.kind == tokWord && !clauseKeywords[t.upper]):
			name, next := x.readDotted(j)
			x.markRefs(j, next)
			if next < n && x.toks[next].isPunct("(") {
				end := x.closing(next)
				if !into {
					// table function: FROM generate_series(1, 10) g
					j, _ = x.skipAlias(end + 1)
					x.markRefs(end+1, j)
					break
				}
				x.addTable(name, false)
				if !x.opensSubquery(next) {
					x.collect(next+1, end, x.columns)
				}
				return
			}
			var aliased bool
			j, aliased = x.skipAlias(next)
			x.markRefs(next, j)
			x.addTable(name, aliased)

		default:
			return
		}

		if !list || j >= n || !x.toks[j].isPunct(",") || x.toks[j].depth != depth {
			return
		}
		j++
	}
}

// readDotted reads schema.table (or db.schema.table) and returns the last
// segment together with the index after it.
func (x *extractor) readDotted(j int) (string, int) {
	name := x.toks[j].text
	j++
	for j+1 < len(x.toks) && x.toks[j].isPunct(".") && x.toks[j+1].isName() {
		name = x.toks[j+1].text
		j += 2
	}
	return name, j
}

// skipAlias skips "AS alias", a bare alias and an optional column alias
// list, reporting whether an alias was present.
func (x *extractor) skipAlias(j int) (int, bool) {
	n := len(x.toks)
	if j >= n {
		return j, false
	}
	t := x.toks[j]
	switch {
	case t.isWord("AS"):
		if j+1 >= n || !x.toks[j+1].isName() {
			return j + 1, false
		}
		j += 2
	case t.kind == tokQuoted || (t.kind == tokWord && !clauseKeywords[t.upper]):
		j++
	default:
		return j, false
	}
	if j < n && x.toks[j].isPunct("(") {
		j = x.closing(j) + 1
	}
	return j, true
}

func (x *extractor) markRefs(a, b int) {
	for k := a; k < b && k < len(x.refs); k++ {
		x.refs[k] = true
	}
}

func (x *extractor) addTable(name string, aliased bool) {
	name = x.fold(name)
	x.tables.Add(name)
	if !aliased {
		x.bare.Add(name)
	}
}

// mainSelect locates the SELECT of the statement itself: the first one at
// the top level, or the outermost one of a fully parenthesized query.
func (x *extractor) mainSelect() int {
	for i, t := range x.toks {
		if t.depth == 0 && t.isWord("SELECT") {
			return i
		}
	}
	if !x.toks[0].isPunct("(") {
		return -1
	}
	best := -1
	for i, t := range x.toks {
		if t.isWord("SELECT") && (best < 0 || t.depth < x.toks[best].depth) {
			best = i
		}
	}
	return best
}

// readBranches reads the select lists of the UNION, INTERSECT and EXCEPT
// branches that follow the main SELECT.
func (x *extractor) readBranches(from int) {
	main := x.depth
	for i := from; i < len(x.toks); i++ {
		if !x.toks[i].isWord("SELECT") || !x.followsSetOperator(i, main) {
			continue
		}
		x.depth = x.toks[i].depth
		x.readSelectList(i + 1)
		if x.depth != main {
			// (SELECT ...) UNION (SELECT ... WHERE ...)
			x.readClauses()
		}
		x.depth = main
	}
}

// followsSetOperator reports whether the SELECT at i starts a branch of a
// set operation at or above depth, as in UNION ALL (SELECT ...).
func (x *extractor) followsSetOperator(i, depth int) bool {
	for j := i - 1; j >= 0; j-- {
		t := x.toks[j]
		switch {
		case t.isPunct("("), t.isWord("ALL"), t.isWord("DISTINCT"):
			continue
		case t.kind == tokWord && setOperators[t.upper]:
			return t.depth <= depth
		}
		return false
	}
	return false
}

func (x *extractor) skipQuantifiers(j int) int {
	n := len(x.toks)
	for j < n {
		t := x.toks[j]
		switch {
		case t.isWord("DISTINCT") && j+2 < n && x.toks[j+1].isWord("ON") && x.toks[j+2].isPunct("("):
			end := x.closing(j + 2)
			x.collect(j+3, end, x.columns)
			j = end + 1
		case t.isWord("DISTINCT"), t.isWord("DISTINCTROW"), t.isWord("ALL"):
			j++
		case t.isWord("TOP"):
			j++
			if j < n && x.toks[j].kind == tokNumber {
				j++
			} else if j < n && x.toks[j].isPunct("(") {
				j = x.closing(j) + 1
			}
			if j < n && x.toks[j].isWord("PERCENT") {
				j++
			}
			if j+1 < n && x.toks[j].isWord("WITH") && x.toks[j+1].isWord("TIES") {
				j += 2
			}
		default:
			return j
		}
	}
	return j
}

func (x *extractor) readSelectList(j int) {
	n := len(x.toks)
	j = x.skipQuantifiers(j)
	start := j
	for ; j < n; j++ {
		t := x.toks[j]
		if t.depth < x.depth {
			break
		}
		if t.depth > x.depth {
			continue
		}
		if t.isPunct(";") || (t.kind == tokWord && selectListEnd[t.upper]) {
			break
		}
		if t.isPunct(",") {
			x.readSelectItem(start, j)
			start = j + 1
		}
	}
	x.readSelectItem(start, j)
}

func (x *extractor) readSelectItem(a, b int) {
	if a >= b {
		return
	}
	switch {
	case b-a >= 2 && x.toks[b-2].isWord("AS") && x.toks[b-1].isName():
		b -= 2
	case b-a >= 2 && isAlias(x.toks[b-1]) && endsOperand(x.toks[b-2]):
		b--
	}
	if x.isStar(a, b) {
		x.star = true
		return
	}
	x.collect(a, b, x.columns)
}

// isStar matches "*" and "qualifier.*"
func (x *extractor) isStar(a, b int) bool {
	if b-a == 1 {
		return x.toks[a].isPunct("*")
	}
	return b-a >= 3 &&
		x.toks[b-1].isPunct("*") &&
		x.toks[b-2].isPunct(".") &&
		x.toks[b-3].isName()
}

func isAlias(t token) bool {
	return t.kind == tokQuoted || (t.kind == tokWord && !keywords[t.upper])
}

func endsOperand(t token) bool {
	switch t.kind {
	case tokQuoted, tokString, tokNumber, tokParam:
		return true
	case tokWord:
		return !keywords[t.upper] || t.upper == "END" || t.upper == "NULL" ||
			t.upper == "TRUE" || t.upper == "FALSE"
	case tokPunct:
		return t.text == ")"
	}
	return false
}

// readAssignments collects the targets of SET a = 1, b = 2 and of MySQL's
// ON DUPLICATE KEY UPDATE a = 1 at the level of the main statement.
func (x *extractor) readAssignments() {
	for i, t := range x.toks {
		if t.depth != x.depth {
			continue
		}
		upsert := t.isWord("UPDATE") && i >= 2 &&
			x.toks[i-1].isWord("KEY") && x.toks[i-2].isWord("DUPLICATE")
		if t.isWord("SET") || upsert {
			x.readAssignmentList(i + 1)
		}
	}
}

func (x *extractor) readAssignmentList(j int) {
	n := len(x.toks)
	start, eq := j, -1
	for ; j < n; j++ {
		u := x.toks[j]
		if u.depth < x.depth {
			break
		}
		if u.depth > x.depth {
			continue
		}
		if u.isPunct(";") || (u.kind == tokWord && assignmentEnd[u.upper]) {
			break
		}
		switch {
		case u.isOperator("=") && eq < 0:
			eq = j
		case u.isPunct(","):
			if eq > start {
				x.collect(start, eq, x.columns)
			}
			start, eq = j+1, -1
		}
	}
	if eq > start {
		x.collect(start, eq, x.columns)
	}
}

// readClauses collects WHERE, GROUP BY, HAVING and ORDER BY expressions
// of the main statement.
func (x *extractor) readClauses() {
	n := len(x.toks)
	for i := 0; i < n; i++ {
		t := x.toks[i]
		if t.kind != tokWord || t.depth != x.depth {
			continue
		}
		start := -1
		switch t.upper {
		case "WHERE", "HAVING":
			start = i + 1
		case "GROUP", "ORDER":
			if i+1 < n && x.toks[i+1].isWord("BY") {
				start = i + 2
			}
		}
		if start < 0 {
			continue
		}
		end := x.clauseEnd(start)
		x.collect(start, end, x.columns)
		i = end - 1
	}
}

func (x *extractor) clauseEnd(j int) int {
	for ; j < len(x.toks); j++ {
		t := x.toks[j]
		if t.depth < x.depth {
			return j
		}
		if t.depth == x.depth && (t.isPunct(";") || (t.kind == tokWord && clauseEnd[t.upper])) {
			return j
		}
	}
	return j
}

// collect adds the unqualified identifiers of toks[a:b] to into.
func (x *extractor) collect(a, b int, into IdentifierSet) {
	for k := a; k < b; k++ {
		t := x.toks[k]
		if !t.isName() || (t.kind == tokWord && keywords[t.upper]) || x.refs[k] {
			continue
		}
		var prev, next token
		if k > 0 {
			prev = x.toks[k-1]
		}
		if k+1 < len(x.toks) {
			next = x.toks[k+1]
		}
		// qualifier of t.col or t.*
		if k+1 < b && next.isPunct(".") {
			continue
		}
		// alias or cast target: expr AS name, expr::type
		if k > a && (prev.isWord("AS") || prev.isOperator("::")) {
			continue
		}
		if t.kind == tokWord {
			if inPlace, ok := contextWords[t.upper]; ok && inPlace(prev, next) {
				continue
			}
			if typedLiterals[t.upper] && next.kind == tokString {
				continue
			}
			// field of EXTRACT(field FROM expr)
			if next.isWord("FROM") && x.callName(k) == "EXTRACT" {
				continue
			}
			if next.isPunct("(") && x.opts.IgnoreFunctionNames {
				continue
			}
		}
		into.Add(x.fold(t.text))
	}
}

// callName returns the word in front of the parenthesis enclosing token k,
// upper-cased, or "" when there is none.
func (x *extractor) callName(k int) string {
	d := x.toks[k].depth
	for j := k - 1; j >= 0; j-- {
		if x.toks[j].isPunct("(") && x.toks[j].depth == d-1 {
			if j > 0 && x.toks[j-1].kind == tokWord {
				return x.toks[j-1].upper
			}
			return ""
		}
	}
	return ""
}
