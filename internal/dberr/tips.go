package dberr

var generalTips = []string{
	"Check the spelling of every table and column name against the harvested schema.",
	"Run `kartoza-sql-guard check` on the query to list identifiers missing from the catalog.",
	"Try a smaller query first and add joins or conditions one at a time.",
}

var specificTips = map[Kind][]string{
	KindUndefinedTable: {
		"Confirm the table exists in the connected database and schema.",
		"Re-harvest the schema if the table was created recently.",
	},
	KindUndefinedColumn: {
		"The column may belong to a table the query does not join.",
		"Qualify the column with its table alias to see which table is meant.",
	},
	KindMissingDatabase: {
		"Check the dbname of the active service in pg_service.conf.",
	},
	KindSyntax: {
		"Look for missing commas between select items and unbalanced parentheses.",
		"Dialect-specific syntax (LIMIT vs TOP, quoting style) differs between databases.",
	},
	KindPrivilege: {
		"Ask an administrator for SELECT rights, or query a view you are allowed to read.",
	},
	KindAmbiguous: {
		"Prefix the column with the alias of the table it should come from.",
	},
	KindDataType: {
		"Compare values against literals of the same type, or add an explicit CAST.",
	},
	KindDivisionByZero: {
		"Guard the divisor with NULLIF(divisor, 0).",
	},
	KindOutOfRange: {
		"Cast to a wider numeric type before the calculation.",
	},
	KindConstraint: {
		"This tool validates read queries; check whether the statement was meant to modify data.",
	},
	KindConcurrency: {
		"Retry the query once the competing transaction has finished.",
	},
	KindTimeout: {
		"Add a WHERE clause or LIMIT to reduce the amount of data read.",
		"Check that filtered columns are indexed.",
	},
	KindConnection: {
		"Verify host, port and credentials with `kartoza-sql-guard status`.",
	},
	KindUnknown: {
		"Read the full driver message below; it usually names the offending object.",
	},
}

// Tips returns the tips specific to kind followed by the general tips
func Tips(kind Kind) []string {
	specific := specificTips[kind]
	tips := make([]string, 0, len(specific)+len(generalTips))
	tips = append(tips, specific...)
	return append(tips, generalTips...)
}
