/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"chainguard.dev/evalrunner/results"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// ErrorTable renders the error type distribution of a run as a markdown
// table, most frequent first. It returns "" when nothing failed.
func ErrorTable(s results.Summary) string {
	if len(s.ErrorTypes) == 0 {
		return ""
	}

	type row struct {
		errorType string
		count     int
	}
	rows := make([]row, 0, len(s.ErrorTypes))
	for et, n := range s.ErrorTypes {
		rows = append(rows, row{et, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].errorType < rows[j].errorType
	})

	var buf bytes.Buffer
	table := markdownTable([]string{"Error Type", "Count", "Share of Failures"}, &buf)
	for _, r := range rows {
		_ = table.Append([]string{
			r.errorType,
			fmt.Sprint(r.count),
			fmt.Sprintf("%.1f%%", percent(r.count, s.Failed)),
		})
	}
	_ = table.Render()
	return buf.String()
}

// markdownTable creates a left-aligned markdown table without outer
// top and bottom borders.
func markdownTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
