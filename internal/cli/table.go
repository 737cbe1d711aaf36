package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"reelpress/internal/scheduler"
)

// summaryTable renders the end-of-run per-group report.
func summaryTable(outcome scheduler.Outcome) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Group", "Path", "Preview", "Final"})

	for _, res := range outcome.Results {
		path := "crop"
		if res.FastPath {
			path = "fast"
		}
		preview := "-"
		if res.Preview != "" {
			preview = "yes"
		}
		final := res.Final
		switch {
		case res.FinalSkipped:
			final = "skipped (not confirmed)"
		case final == "":
			final = "-"
		}
		tw.AppendRow(table.Row{res.Group, path, preview, final})
	}
	for _, failure := range outcome.Failures {
		tw.AppendRow(table.Row{failure.Key, "-", "-", "FAILED: " + failure.Err.Error()})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
