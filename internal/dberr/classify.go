// Package dberr turns database driver errors into short explanations and
// tips for the person who wrote (or generated) the failing query.
package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Kind is a coarse category of database error
type Kind string

const (
	KindUnknown         Kind = "unknown"
	KindUndefinedTable  Kind = "undefined_table"
	KindUndefinedColumn Kind = "undefined_column"
	KindMissingDatabase Kind = "missing_database"
	KindSyntax          Kind = "syntax"
	KindPrivilege       Kind = "privilege"
	KindAmbiguous       Kind = "ambiguous_column"
	KindDataType        Kind = "data_type"
	KindDivisionByZero  Kind = "division_by_zero"
	KindOutOfRange      Kind = "out_of_range"
	KindConstraint      Kind = "constraint"
	KindConcurrency     Kind = "concurrency"
	KindTimeout         Kind = "timeout"
	KindConnection      Kind = "connection"
)

var messages = map[Kind]string{
	KindUnknown:         "The database rejected the query for a reason that could not be classified.",
	KindUndefinedTable:  "The query references a table or view that does not exist, or is not visible to this user.",
	KindUndefinedColumn: "The query references a column that does not exist on the tables it reads.",
	KindMissingDatabase: "The database or schema the query targets does not exist.",
	KindSyntax:          "The query is not valid SQL for this database.",
	KindPrivilege:       "The connected user is not allowed to read some of the data the query touches.",
	KindAmbiguous:       "A column name matches more than one table; qualify it with a table alias.",
	KindDataType:        "A value does not match the data type of the column or function it is used with.",
	KindDivisionByZero:  "The query divided by zero.",
	KindOutOfRange:      "A numeric value is too large or too small for its column type.",
	KindConstraint:      "The statement would break a uniqueness, foreign key or check constraint.",
	KindConcurrency:     "The statement conflicted with a concurrent transaction.",
	KindTimeout:         "The query took too long and was cancelled.",
	KindConnection:      "The database could not be reached.",
}

// rules are checked in order against the lower-cased message; every
// needle of a rule must be present
var rules = []struct {
	needles []string
	kind    Kind
}{
	{[]string{"no such column"}, KindUndefinedColumn},
	{[]string{"unknown column"}, KindUndefinedColumn},
	{[]string{"invalid identifier"}, KindUndefinedColumn},
	{[]string{"column", "does not exist"}, KindUndefinedColumn},
	{[]string{"no such table"}, KindUndefinedTable},
	{[]string{"object does not exist"}, KindUndefinedTable},
	{[]string{"relation", "does not exist"}, KindUndefinedTable},
	{[]string{"table", "doesn't exist"}, KindUndefinedTable},
	{[]string{"unknown database"}, KindMissingDatabase},
	{[]string{"database", "does not exist"}, KindMissingDatabase},
	{[]string{"schema", "does not exist"}, KindMissingDatabase},
	{[]string{"syntax error"}, KindSyntax},
	{[]string{"error in your sql syntax"}, KindSyntax},
	{[]string{"permission denied"}, KindPrivilege},
	{[]string{"insufficient privileges"}, KindPrivilege},
	{[]string{"access denied"}, KindPrivilege},
	{[]string{"ambiguous"}, KindAmbiguous},
	{[]string{"invalid input syntax"}, KindDataType},
	{[]string{"invalid data type"}, KindDataType},
	{[]string{"operator does not exist"}, KindDataType},
	{[]string{"datatype mismatch"}, KindDataType},
	{[]string{"division by zero"}, KindDivisionByZero},
	{[]string{"out of range"}, KindOutOfRange},
	{[]string{"violates"}, KindConstraint},
	{[]string{"constraint failed"}, KindConstraint},
	{[]string{"duplicate entry"}, KindConstraint},
	{[]string{"deadlock"}, KindConcurrency},
	{[]string{"could not serialize"}, KindConcurrency},
	{[]string{"serialization failure"}, KindConcurrency},
	{[]string{"database is locked"}, KindConcurrency},
	{[]string{"statement timeout"}, KindTimeout},
	{[]string{"canceling statement"}, KindTimeout},
	{[]string{"connection refused"}, KindConnection},
	{[]string{"no such host"}, KindConnection},
	{[]string{"bad connection"}, KindConnection},
}

// Classify maps err to an explanation and its Kind. Driver error codes
// from lib/pq and go-sql-driver/mysql are preferred over message text.
func Classify(err error) (string, Kind) {
	if err == nil {
		return "", ""
	}
	kind := classifyKind(err)
	return messages[kind], kind
}

// Message returns the explanation for kind
func Message(kind Kind) string {
	if m, ok := messages[kind]; ok {
		return m
	}
	return messages[KindUnknown]
}

func classifyKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if k := fromSQLState(string(pqErr.Code)); k != KindUnknown {
			return k
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if k := fromMySQLNumber(myErr.Number); k != KindUnknown {
			return k
		}
	}

	return fromMessage(err.Error())
}

func fromSQLState(code string) Kind {
	switch code {
	case "42P01":
		return KindUndefinedTable
	case "42703":
		return KindUndefinedColumn
	case "3D000", "3F000":
		return KindMissingDatabase
	case "42601":
		return KindSyntax
	case "42501":
		return KindPrivilege
	case "42702":
		return KindAmbiguous
	case "42804", "42883", "22P02", "22007", "22008":
		return KindDataType
	case "22012":
		return KindDivisionByZero
	case "22003":
		return KindOutOfRange
	case "40001", "40P01", "55P03":
		return KindConcurrency
	case "57014":
		return KindTimeout
	}
	switch {
	case strings.HasPrefix(code, "23"):
		return KindConstraint
	case strings.HasPrefix(code, "08"):
		return KindConnection
	}
	return KindUnknown
}

func fromMySQLNumber(n uint16) Kind {
	switch n {
	case 1146:
		return KindUndefinedTable
	case 1054:
		return KindUndefinedColumn
	case 1049:
		return KindMissingDatabase
	case 1064:
		return KindSyntax
	case 1044, 1045, 1142, 1143:
		return KindPrivilege
	case 1052:
		return KindAmbiguous
	case 1292, 1366:
		return KindDataType
	case 1365:
		return KindDivisionByZero
	case 1264, 1690:
		return KindOutOfRange
	case 1062, 1451, 1452, 3819:
		return KindConstraint
	case 1205, 1213:
		return KindConcurrency
	case 3024:
		return KindTimeout
	}
	return KindUnknown
}

func fromMessage(msg string) Kind {
	msg = strings.ToLower(msg)
next:
	for _, r := range rules {
		for _, n := range r.needles {
			if !strings.Contains(msg, n) {
				continue next
			}
		}
		return r.kind
	}
	return KindUnknown
}
