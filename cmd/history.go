package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-sql-guard/internal/feedback"
)

var historyOpts struct {
	limit    int
	failed   bool
	feedback bool
	clear    bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent checks",
	Long:  `Show the most recent checks, newest first, or the feedback log with --feedback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if historyOpts.clear {
			cfg.CheckHistory = nil
			if err := saveState(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "History cleared")
			return nil
		}

		if historyOpts.feedback {
			return showFeedback(cmd)
		}

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"When", "Service", "Query", "Invalid", "Result"})

		shown := 0
		for _, h := range cfg.CheckHistory {
			if historyOpts.failed && h.Passed {
				continue
			}
			if historyOpts.limit > 0 && shown >= historyOpts.limit {
				break
			}
			result := "PASS"
			if !h.Passed {
				result = "FAIL"
			}
			if h.ErrorMessage != "" {
				result += " (exec error)"
			}
			invalid := append(append([]string{}, h.InvalidColumns...), h.UnknownTables...)
			t.AppendRow(table.Row{
				h.Timestamp.Format("2006-01-02 15:04"),
				h.ServiceName,
				text.Trim(h.Query, maxQueryWidth),
				strings.Join(invalid, ", "),
				result,
			})
			shown++
		}

		if shown == 0 {
			_, _ = fmt.Fprintln(out, "No checks recorded")
			return nil
		}
		t.Render()
		return nil
	},
}

func init() {
	f := historyCmd.Flags()
	f.IntVarP(&historyOpts.limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	f.BoolVar(&historyOpts.failed, "failed", false, "Only show checks that failed")
	f.BoolVar(&historyOpts.feedback, "feedback", false, "Show the feedback log instead")
	f.BoolVar(&historyOpts.clear, "clear", false, "Delete the check history")
}

func showFeedback(cmd *cobra.Command) error {
	log := feedback.Open(cfg.Settings.FeedbackLogPath)
	entries, err := log.ReadAll()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No feedback recorded in %s\n", log.Path())
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Query", "Valid", "Invalid", "Feedback"})

	// Newest first, like the check history
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if historyOpts.failed && e.Valid {
			continue
		}
		t.AppendRow(table.Row{
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			text.Trim(e.Query, maxQueryWidth),
			e.Valid,
			strings.Join(e.InvalidColumns, ", "),
			string(e.Feedback),
		})
	}
	t.Render()
	return nil
}
