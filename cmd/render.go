package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kartoza/kartoza-sql-guard/internal/database"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

const maxQueryWidth = 60

func renderResultsText(w io.Writer, catalogLabel string, results []checkResult) {
	_, _ = fmt.Fprintf(w, "Catalog: %s\n\n", catalogLabel)

	for i, res := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "%s  %s\n", verdictLabel(res.Report), res.Query)
		_, _ = fmt.Fprintf(w, "  tables:  %s\n", joinOrDash(res.Tables))
		_, _ = fmt.Fprintf(w, "  columns: %s\n", joinOrDash(res.Columns))
		if res.InvalidColumns.Len() > 0 {
			_, _ = fmt.Fprintf(w, "  invalid columns: %s\n", joinOrDash(res.InvalidColumns))
		}
		if res.UnknownTables.Len() > 0 {
			_, _ = fmt.Fprintf(w, "  unknown tables:  %s\n", joinOrDash(res.UnknownTables))
		}
		renderExecution(w, res)
	}
}

func renderResultsTable(w io.Writer, catalogLabel string, results []checkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Catalog: " + catalogLabel)
	t.AppendHeader(table.Row{"#", "Query", "Tables", "Columns", "Invalid", "Result"})

	for i, res := range results {
		invalid := res.InvalidColumns.Sorted()
		if res.UnknownTables.Len() > 0 {
			for _, tbl := range res.UnknownTables.Sorted() {
				invalid = append(invalid, "table "+tbl)
			}
		}
		t.AppendRow(table.Row{
			i + 1,
			text.Trim(res.Query, maxQueryWidth),
			strings.Join(res.Tables.Sorted(), "\n"),
			strings.Join(res.Columns.Sorted(), "\n"),
			strings.Join(invalid, "\n"),
			verdictLabel(res.Report),
		})
	}
	t.Render()

	for i, res := range results {
		if res.Rows == nil && res.Error == "" {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n#%d\n", i+1)
		renderExecution(w, res)
	}
}

func renderExecution(w io.Writer, res checkResult) {
	if res.Error != "" {
		_, _ = fmt.Fprintf(w, "  execution failed: %s\n", res.Error)
		for _, tip := range res.Tips {
			_, _ = fmt.Fprintf(w, "    - %s\n", tip)
		}
		return
	}
	if res.Rows != nil {
		renderRows(w, res.Rows)
	}
}

// renderRows prints a bounded query result
func renderRows(w io.Writer, rows *database.Rows) {
	if len(rows.Values) == 0 {
		_, _ = fmt.Fprintf(w, "(0 rows, %s)\n", rows.Duration)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rows.Columns))
	for i, col := range rows.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, values := range rows.Values {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()

	suffix := ""
	if rows.Truncated {
		suffix = ", truncated"
	}
	_, _ = fmt.Fprintf(w, "(%d rows, %s%s)\n", len(rows.Values), rows.Duration, suffix)
}

type jsonRows struct {
	Columns   []string   `json:"columns"`
	Values    [][]string `json:"values"`
	Truncated bool       `json:"truncated"`
	Millis    float64    `json:"duration_ms"`
}

func renderResultsJSON(w io.Writer, results []checkResult) error {
	type jsonResult struct {
		checkResult
		Rows *jsonRows `json:"rows,omitempty"`
	}

	out := make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{checkResult: res}
		if res.Rows != nil {
			values := res.Rows.Values
			if values == nil {
				values = [][]string{}
			}
			jr.Rows = &jsonRows{
				Columns:   res.Rows.Columns,
				Values:    values,
				Truncated: res.Rows.Truncated,
				Millis:    float64(res.Rows.Duration.Microseconds()) / 1000,
			}
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func verdictLabel(rep *sqlcheck.Report) string {
	if rep.Passed {
		return "PASS"
	}
	return "FAIL"
}

func joinOrDash(set sqlcheck.IdentifierSet) string {
	if set.Len() == 0 {
		return "-"
	}
	return strings.Join(set.Sorted(), ", ")
}
