package main

import (
	"bytes"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// durationDisplayUnits limits how many units formatDuration shows.
const durationDisplayUnits = 2

// renderTable renders rows under headers with rounded borders.
func renderTable(headers []string, rows [][]string) string {
	var buf bytes.Buffer

	t := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
		tablewriter.WithConfig(tablewriter.NewConfigBuilder().
			Row().Formatting().WithAutoWrap(tw.WrapNormal).Build().
			Build().Build()),
	)

	t.Header(headers)

	for _, row := range rows {
		_ = t.Append(row)
	}

	_ = t.Render()

	return strings.TrimRight(buf.String(), "\n") + "\n"
}

// formatDuration renders d with at most durationDisplayUnits units.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "0ms"
	}

	return durafmt.Parse(d).LimitFirstN(durationDisplayUnits).String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
