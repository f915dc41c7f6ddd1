package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		tables  []string
		columns []string
	}{
		{
			name:    "simple select",
			query:   "SELECT id, name FROM users",
			tables:  []string{"users"},
			columns: []string{"id", "name"},
		},
		{
			name:    "qualified column and aliased table",
			query:   "SELECT t.col FROM table t",
			tables:  []string{"table"},
			columns: []string{"col"},
		},
		{
			name:    "select star",
			query:   "SELECT * FROM users WHERE id = 1",
			tables:  []string{"users"},
			columns: []string{"*"},
		},
		{
			name:    "qualified star",
			query:   "SELECT u.* FROM users u ORDER BY u.created_at",
			tables:  []string{"users"},
			columns: []string{"*"},
		},
		{
			name:    "insert column list",
			query:   "INSERT INTO users (name, email) VALUES ('John', 'j@x.com')",
			tables:  []string{"users"},
			columns: []string{"name", "email"},
		},
		{
			name:    "update assignments",
			query:   "UPDATE employees SET salary = 5000 WHERE id = 1",
			tables:  []string{"employees"},
			columns: []string{"salary", "id"},
		},
		{
			name:    "column aliases are dropped",
			query:   "SELECT first_name AS fn, last_name ln FROM people",
			tables:  []string{"people"},
			columns: []string{"first_name", "last_name"},
		},
		{
			name:    "join with where",
			query:   "SELECT o.id, c.name FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.total > 100",
			tables:  []string{"orders", "customers"},
			columns: []string{"id", "name", "total"},
		},
		{
			name:    "schema qualified table",
			query:   "SELECT id FROM public.users",
			tables:  []string{"users"},
			columns: []string{"id"},
		},
		{
			name:    "function names are candidates",
			query:   "SELECT COUNT(*), SUM(o.amount) FROM orders o GROUP BY o.customer_id ORDER BY o.customer_id",
			tables:  []string{"orders"},
			columns: []string{"COUNT", "SUM", "amount", "customer_id"},
		},
		{
			name:    "string literals are not identifiers",
			query:   "SELECT id FROM users WHERE status = 'active' AND name LIKE 'J%'",
			tables:  []string{"users"},
			columns: []string{"id", "status", "name"},
		},
		{
			name:    "comma separated tables",
			query:   "SELECT a.x, b.y FROM alpha a, beta AS b",
			tables:  []string{"alpha", "beta"},
			columns: []string{"x", "y"},
		},
		{
			name:    "subquery in where",
			query:   "SELECT name FROM users WHERE id IN (SELECT user_id FROM orders)",
			tables:  []string{"users", "orders"},
			columns: []string{"name", "id", "user_id"},
		},
		{
			name:    "cte name is a table",
			query:   "WITH recent AS (SELECT id FROM orders) SELECT id FROM recent",
			tables:  []string{"orders", "recent"},
			columns: []string{"id"},
		},
		{
			name:    "comments",
			query:   "SELECT id -- the key\nFROM users /* main\n table */ WHERE active = 1",
			tables:  []string{"users"},
			columns: []string{"id", "active"},
		},
		{
			name:    "extract field is not a column",
			query:   "SELECT EXTRACT(YEAR FROM created_at) FROM events",
			tables:  []string{"events"},
			columns: []string{"EXTRACT", "created_at"},
		},
		{
			name:    "insert select",
			query:   "INSERT INTO archive (id, total) SELECT id, amount FROM orders WHERE amount > 10",
			tables:  []string{"archive", "orders"},
			columns: []string{"id", "total", "amount"},
		},
		{
			name:    "quoted identifiers",
			query:   `SELECT "Order Id" FROM "Sales"`,
			tables:  []string{"Sales"},
			columns: []string{"Order Id"},
		},
		{
			name:    "case expression with alias",
			query:   "SELECT CASE WHEN score > 50 THEN 'pass' ELSE 'fail' END AS verdict FROM results",
			tables:  []string{"results"},
			columns: []string{"score"},
		},
		{
			name:    "cast target is not a column",
			query:   "SELECT amount::numeric FROM payments",
			tables:  []string{"payments"},
			columns: []string{"amount"},
		},
		{
			name:    "distinct on",
			query:   "SELECT DISTINCT ON (customer_id) customer_id, placed_at FROM orders ORDER BY customer_id, placed_at DESC",
			tables:  []string{"orders"},
			columns: []string{"customer_id", "placed_at"},
		},
		{
			name:    "upsert",
			query:   "INSERT INTO counters (key, hits) VALUES ('a', 1) ON CONFLICT (key) DO UPDATE SET hits = counters.hits + 1",
			tables:  []string{"counters"},
			columns: []string{"key", "hits"},
		},
		{
			name:    "delete",
			query:   "DELETE FROM sessions WHERE expires_at < NOW()",
			tables:  []string{"sessions"},
			columns: []string{"expires_at", "NOW"},
		},
		{
			name:    "parenthesized join",
			query:   "SELECT a.id FROM (alpha a JOIN beta b ON a.id = b.alpha_id) WHERE b.flag = 1",
			tables:  []string{"alpha", "beta"},
			columns: []string{"id", "flag"},
		},
		{
			name:    "substring from is not an extract field",
			query:   "SELECT SUBSTRING(bogus FROM 1 FOR 3) FROM users",
			tables:  []string{"users"},
			columns: []string{"SUBSTRING", "bogus"},
		},
		{
			name:    "trim from",
			query:   "SELECT TRIM(BOTH ' ' FROM name), TRIM(padding FROM code) FROM users",
			tables:  []string{"users"},
			columns: []string{"TRIM", "name", "padding", "code"},
		},
		{
			name:    "union branch select list",
			query:   "SELECT id FROM users UNION SELECT bogus FROM users",
			tables:  []string{"users"},
			columns: []string{"id", "bogus"},
		},
		{
			name:    "parenthesized set operation branch",
			query:   "SELECT id FROM alpha EXCEPT ALL (SELECT code FROM beta WHERE flag = 1)",
			tables:  []string{"alpha", "beta"},
			columns: []string{"id", "code", "flag"},
		},
		{
			name:    "on duplicate key update",
			query:   "INSERT INTO users (id, name) VALUES (1, 'a') ON DUPLICATE KEY UPDATE bogus = 1",
			tables:  []string{"users"},
			columns: []string{"id", "name", "bogus"},
		},
		{
			name:    "on duplicate key update of inserted column",
			query:   "INSERT INTO users (id, name) VALUES (1, 'a') ON DUPLICATE KEY UPDATE name = 'b'",
			tables:  []string{"users"},
			columns: []string{"id", "name"},
		},
		{
			name:    "row locking clause",
			query:   "SELECT id FROM users FOR NO KEY UPDATE NOWAIT",
			tables:  []string{"users"},
			columns: []string{"id"},
		},
		{
			name:    "non-reserved words as columns",
			query:   "SELECT first, last, position, rows FROM people",
			tables:  []string{"people"},
			columns: []string{"first", "last", "position", "rows"},
		},
		{
			name:    "window frame and null ordering",
			query:   "SELECT SUM(amount) OVER (ORDER BY day ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) FROM sales ORDER BY day NULLS LAST",
			tables:  []string{"sales"},
			columns: []string{"SUM", "amount", "day"},
		},
		{
			name:    "nested subquery tables and aliases",
			query:   "SELECT u.name FROM users u WHERE u.id IN (SELECT user_id FROM orders o WHERE o.ghost = 1)",
			tables:  []string{"users", "orders"},
			columns: []string{"name", "id", "user_id", "ghost"},
		},
		{
			name:    "empty",
			query:   "   ",
			tables:  []string{},
			columns: []string{},
		},
		{
			name:    "not sql",
			query:   "not sql at all",
			tables:  []string{},
			columns: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, columns := Extract(tt.query)
			assert.ElementsMatch(t, tt.tables, tables.Sorted(), "tables")
			assert.ElementsMatch(t, tt.columns, columns.Sorted(), "columns")
		})
	}
}

func TestExtract_Superset(t *testing.T) {
	tables, columns := Extract("SELECT r.rule_id, k.robinhood FROM lauda WHERE xyz condition")

	assert.True(t, tables.Has("lauda"))
	assert.False(t, tables.Has("r"))
	assert.False(t, tables.Has("k"))
	assert.True(t, columns.Has("rule_id"))
	assert.True(t, columns.Has("robinhood"))
	assert.False(t, columns.Has("r.rule_id"))
}

func TestExtract_StarAlwaysWins(t *testing.T) {
	queries := []string{
		"SELECT * FROM users",
		"select * from users u join orders o on o.user_id = u.id where o.total > 5",
		"SELECT * FROM logs ORDER BY created_at DESC LIMIT 10",
		"SELECT id, * FROM users",
	}
	for _, q := range queries {
		_, columns := Extract(q)
		assert.Equal(t, []string{"*"}, columns.Sorted(), q)
	}
}

func TestExtract_CommentsDoNotChangeResult(t *testing.T) {
	queries := []string{
		"SELECT id, name FROM users WHERE active = 1",
		"UPDATE employees SET salary = 5000 WHERE id = 1",
		"INSERT INTO users (name, email) VALUES ('John', 'j@x.com')",
		"SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id ORDER BY o.id",
	}
	for _, q := range queries {
		wantTables, wantColumns := Extract(q)

		commented := "/* generated */ " + q + " -- trailing note\n-- another line"
		gotTables, gotColumns := Extract(commented)

		assert.True(t, wantTables.Equal(gotTables), q)
		assert.True(t, wantColumns.Equal(gotColumns), q)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	q := "SELECT a.x, COUNT(b.y) AS n FROM alpha a LEFT JOIN beta b ON a.id = b.a_id GROUP BY a.x HAVING COUNT(b.y) > 1"

	t1, c1 := Extract(q)
	t2, c2 := Extract(q)

	assert.True(t, t1.Equal(t2))
	assert.True(t, c1.Equal(c2))
}

func TestExtractWith(t *testing.T) {
	t.Run("fold case", func(t *testing.T) {
		ex := ExtractWith("SELECT Name FROM Users WHERE Age > 3", Options{FoldCase: true})
		assert.ElementsMatch(t, []string{"users"}, ex.Tables.Sorted())
		assert.ElementsMatch(t, []string{"name", "age"}, ex.Columns.Sorted())
	})

	t.Run("case preserved by default", func(t *testing.T) {
		ex := ExtractWith("SELECT Name FROM Users", Options{})
		assert.ElementsMatch(t, []string{"Users"}, ex.Tables.Sorted())
		assert.ElementsMatch(t, []string{"Name"}, ex.Columns.Sorted())
	})

	t.Run("ignore function names", func(t *testing.T) {
		ex := ExtractWith("SELECT COUNT(id), lower(email) FROM users", Options{IgnoreFunctionNames: true})
		assert.ElementsMatch(t, []string{"id", "email"}, ex.Columns.Sorted())
	})

	t.Run("cte names recorded", func(t *testing.T) {
		q := "WITH RECURSIVE tree (id, parent) AS (SELECT id, parent_id FROM nodes), totals AS MATERIALIZED (SELECT 1) SELECT id FROM tree"
		ex := ExtractWith(q, Options{})
		assert.ElementsMatch(t, []string{"tree", "totals"}, ex.CTEs.Sorted())
		assert.True(t, ex.Tables.Has("tree"))
		assert.True(t, ex.Tables.Has("nodes"))
		assert.False(t, ex.Star)
	})

	t.Run("star flag", func(t *testing.T) {
		ex := ExtractWith("SELECT * FROM users", Options{})
		assert.True(t, ex.Star)
	})
}
