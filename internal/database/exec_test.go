package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		limit     int
		rows      func() *sqlmock.Rows
		err       error
		values    [][]string
		truncated bool
		wantErr   bool
	}{
		{
			name:  "all rows",
			limit: 0,
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"id", "name", "seen"}).
					AddRow(1, "alice", ts).
					AddRow(2, nil, nil)
			},
			values: [][]string{
				{"1", "alice", "2024-03-01T12:00:00Z"},
				{"2", "NULL", "NULL"},
			},
		},
		{
			name:  "limited",
			limit: 1,
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows([]string{"id", "name", "seen"}).
					AddRow(1, []byte("alice"), ts).
					AddRow(2, "bob", ts)
			},
			values:    [][]string{{"1", "alice", "2024-03-01T12:00:00Z"}},
			truncated: true,
		},
		{
			name:    "query error",
			err:     errors.New(`relation "ghosts" does not exist`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			expect := mock.ExpectQuery("SELECT")
			if tt.err != nil {
				expect.WillReturnError(tt.err)
			} else {
				expect.WillReturnRows(tt.rows())
			}

			res, err := Execute(context.Background(), db, "SELECT id, name, seen FROM users", tt.limit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "name", "seen"}, res.Columns)
			assert.Equal(t, tt.values, res.Values)
			assert.Equal(t, tt.truncated, res.Truncated)
		})
	}
}
