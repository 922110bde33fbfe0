package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	tablePadding = 2
	// maxCellWidth bounds free-text columns such as descriptions.
	maxCellWidth = 60
	emptyCell    = "-"
)

// writeTable prints rows as aligned columns. Blank cells are shown as "-"
// and long cells are cut to maxCellWidth runes.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(out, 0, 0, tablePadding, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = tableCell(cell)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// tableCell flattens a value onto one line. Leading indentation is kept.
func tableCell(value string) string {
	value = strings.NewReplacer("\t", " ", "\r", "", "\n", " ").Replace(value)
	value = strings.TrimRight(value, " ")
	if strings.TrimSpace(value) == "" {
		return emptyCell
	}
	runes := []rune(value)
	if len(runes) > maxCellWidth {
		return string(runes[:maxCellWidth-3]) + "..."
	}
	return value
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
