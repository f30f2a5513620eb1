// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pdiddy/paper-explorer/pkg/types"
)

const (
	titleWidth   = 60
	authorsWidth = 30
)

// writePaperTable prints records as an aligned table. Widths are measured
// in terminal cells so titles with wide characters stay aligned.
func writePaperTable(w io.Writer, records []types.PaperRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	header := []string{"#", "ID", "Title", "Authors", "Added"}
	rows := make([][]string, len(records))
	for i, r := range records {
		added := ""
		if !r.AddedAt.IsZero() {
			added = r.AddedAt.Local().Format("2006-01-02 15:04")
		}
		rows[i] = []string{
			fmt.Sprint(i + 1),
			r.ID,
			runewidth.Truncate(r.Title, titleWidth, "..."),
			runewidth.Truncate(formatAuthors(r.Authors), authorsWidth, "..."),
			added,
		}
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow(w, header, widths)
	total := 2 * (len(widths) - 1)
	for _, cw := range widths {
		total += cw
	}
	fmt.Fprintln(w, strings.Repeat("-", total))
	for _, row := range rows {
		writeRow(w, row, widths)
	}
}

func writeRow(w io.Writer, cells []string, widths []int) {
	var sb strings.Builder
	for i, cell := range cells {
		if i > 0 {
			sb.WriteString("  ")
		}
		if i == len(cells)-1 {
			sb.WriteString(cell)
			break
		}
		sb.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	fmt.Fprintln(w, sb.String())
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1, 2:
		return strings.Join(authors, ", ")
	default:
		return authors[0] + " et al."
	}
}
