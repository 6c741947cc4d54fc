package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/RishiKendai/codelens/internal/plagiarism"
)

func renderTable(w io.Writer, title string, headers []string, rows [][]string) {
	if title != "" {
		color.New(color.Bold).Fprintln(w, title)
		fmt.Fprintln(w, strings.Repeat("=", len(title)))
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	fmt.Fprintln(w)
}

func riskColor(level string) string {
	switch level {
	case plagiarism.RiskVeryHigh, plagiarism.RiskHigh:
		return color.RedString(level)
	case plagiarism.RiskMedium:
		return color.YellowString(level)
	default:
		return color.GreenString(level)
	}
}
