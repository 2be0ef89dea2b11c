package connectors

import (
	"fmt"
	"strings"

	"eurosom/internal"
	"eurosom/internal/util"
)

// TableFromGrid turns raw sheet cells into a table. The first non-blank row
// holds the headers; blank headers become "UNNAMED: n" and repeated ones get a
// ".n" suffix. Blank cells are nil and fully blank rows are skipped.
func TableFromGrid(grid [][]any) internal.Table {
	start := -1
	for i, row := range grid {
		if !blankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return internal.Table{}
	}

	headers := uniqueHeaders(grid[start])
	table := internal.Table{Headers: headers, Rows: []internal.RawRow{}}
	for _, cells := range grid[start+1:] {
		if blankRow(cells) {
			continue
		}
		row := make(internal.RawRow, len(headers))
		for i, h := range headers {
			var value any
			if i < len(cells) {
				value = cleanCell(cells[i])
			}
			row[h] = value
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func StringGrid(rows [][]string) [][]any {
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, 0, len(row))
		for _, c := range row {
			cells = append(cells, c)
		}
		out = append(out, cells)
	}
	return out
}

// GridFromTable is the inverse of TableFromGrid: header row first, nil cells
// written as "".
func GridFromTable(table internal.Table) [][]any {
	grid := make([][]any, 0, len(table.Rows)+1)
	header := make([]any, 0, len(table.Headers))
	for _, h := range table.Headers {
		header = append(header, h)
	}
	grid = append(grid, header)
	for _, row := range table.Rows {
		cells := make([]any, 0, len(table.Headers))
		for _, h := range table.Headers {
			v := row[h]
			if v == nil {
				v = ""
			}
			cells = append(cells, v)
		}
		grid = append(grid, cells)
	}
	return grid
}

func uniqueHeaders(cells []any) []string {
	seen := map[string]int{}
	out := make([]string, 0, len(cells))
	for i, c := range cells {
		name := util.CellString(c)
		if name == "" {
			name = fmt.Sprintf("UNNAMED: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out = append(out, name)
	}
	return out
}

func cleanCell(cell any) any {
	if s, ok := cell.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return s
	}
	return cell
}

func blankRow(cells []any) bool {
	for _, c := range cells {
		if util.CellString(c) != "" {
			return false
		}
	}
	return true
}
