package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"eurosom/internal"
	"eurosom/internal/util"
)

var derivedHeaders = []string{
	"montant_num", "heures_num", "date_commande", "date_pose",
	"mois_commande", "mois_pose", "departement", "exercice",
	"alertes", "anticipation_stock",
}

// ExportRowsToXLSX writes the normalized table: the sheet's own columns
// (headers cleaned) followed by the derived ones.
func ExportRowsToXLSX(headers []string, rows []internal.NormalizedRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	all := make([]string, 0, len(headers)+len(derivedHeaders))
	for _, h := range headers {
		all = append(all, util.NormalizeHeader(h))
	}
	all = append(all, derivedHeaders...)
	for i, h := range all {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		for c, h := range headers {
			set(c+1, row.Raw[h])
		}
		base := len(headers)
		set(base+1, row.Amount.InexactFloat64())
		set(base+2, row.Hours.InexactFloat64())
		set(base+3, formatDate(row.OrderDate))
		set(base+4, formatDate(row.InstallDate))
		set(base+5, derefString(row.OrderMonth))
		set(base+6, derefString(row.InstallMonth))
		set(base+7, row.Department)
		set(base+8, row.FiscalYear)
		set(base+9, joinAlerts(row.Alerts))
		set(base+10, row.AnticipateStock)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func joinAlerts(alerts []internal.AlertCategory) string {
	parts := make([]string, 0, len(alerts))
	for _, a := range alerts {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, ",")
}
