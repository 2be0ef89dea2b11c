package pipeline

import (
	"strings"

	"eurosom/internal"
	"eurosom/internal/util"
)

// Search keeps rows where any raw cell contains query, ignoring case and
// accents. A blank query keeps everything.
func Search(rows []internal.NormalizedRow, query string) []internal.NormalizedRow {
	needle := strings.TrimSpace(query)
	if needle == "" {
		return rows
	}

	out := make([]internal.NormalizedRow, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row.Raw {
			if util.ContainsFold(util.CellString(cell), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

type Criteria struct {
	Query            string
	Alert            internal.AlertCategory
	FiscalYear       string
	Salesperson      string
	Department       string
	AnticipationOnly bool
}

func Filter(rows []internal.NormalizedRow, c Criteria) []internal.NormalizedRow {
	rows = Search(rows, c.Query)

	out := make([]internal.NormalizedRow, 0, len(rows))
	for _, row := range rows {
		if c.Alert != "" && !row.HasAlert(c.Alert) {
			continue
		}
		if c.FiscalYear != "" && row.FiscalYear != c.FiscalYear {
			continue
		}
		if c.Salesperson != "" && !strings.EqualFold(row.Salesperson, strings.TrimSpace(c.Salesperson)) {
			continue
		}
		if c.Department != "" && row.Department != strings.TrimSpace(c.Department) {
			continue
		}
		if c.AnticipationOnly && !row.AnticipateStock {
			continue
		}
		out = append(out, row)
	}
	return out
}
