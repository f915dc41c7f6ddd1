// Package feedback keeps an append-only CSV log of checked queries and the
// user's verdict on them.
package feedback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

// Verdict is the user's opinion of a check result
type Verdict string

const (
	VerdictNone Verdict = ""
	VerdictUp   Verdict = "up"
	VerdictDown Verdict = "down"
)

var header = []string{"timestamp", "query", "tables", "columns", "valid", "invalid_columns", "feedback"}

// Entry is one row of the log
type Entry struct {
	Timestamp      time.Time
	Query          string
	Tables         []string
	Columns        []string
	Valid          bool
	InvalidColumns []string
	Feedback       Verdict
}

// EntryFromReport builds a log entry from a checker report
func EntryFromReport(rep *sqlcheck.Report, verdict Verdict) Entry {
	return Entry{
		Timestamp:      time.Now().UTC(),
		Query:          rep.Query,
		Tables:         rep.Tables.Sorted(),
		Columns:        rep.Columns.Sorted(),
		Valid:          rep.Valid,
		InvalidColumns: rep.InvalidColumns.Sorted(),
		Feedback:       verdict,
	}
}

// Log appends entries to a CSV file. It is safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
}

// Open returns a log writing to path; the file is created on first append
func Open(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log writes to
func (l *Log) Path() string {
	return l.path
}

// Append writes one entry, adding the header when the file is new
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(e.record()); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// ReadAll returns every entry in file order. A missing file yields no
// entries.
func (l *Log) ReadAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feedback log: %w", err)
		}
		if line == 1 && rec[0] == header[0] {
			continue
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("feedback log line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (e Entry) record() []string {
	return []string{
		e.Timestamp.Format(time.RFC3339),
		e.Query,
		strings.Join(e.Tables, ";"),
		strings.Join(e.Columns, ";"),
		strconv.FormatBool(e.Valid),
		strings.Join(e.InvalidColumns, ";"),
		string(e.Feedback),
	}
}

func parseRecord(rec []string) (Entry, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Entry{}, err
	}
	valid, err := strconv.ParseBool(rec[4])
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Timestamp:      ts,
		Query:          rec[1],
		Tables:         splitList(rec[2]),
		Columns:        splitList(rec[3]),
		Valid:          valid,
		InvalidColumns: splitList(rec[5]),
		Feedback:       Verdict(rec[6]),
	}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}
