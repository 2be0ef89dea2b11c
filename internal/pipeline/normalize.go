package pipeline

import (
	"time"

	"eurosom/internal"
	"eurosom/internal/config"
	"eurosom/internal/util"
)

type Normalized struct {
	Resolution Resolution
	Rows       []internal.NormalizedRow
}

// Normalize resolves the columns once and derives every typed field for
// every row. It reads nothing but its arguments, so the same table and now
// always give the same output.
func Normalize(table internal.Table, rules config.Rules, now time.Time) Normalized {
	res := ResolveAll(table.Headers, rules.Columns, rules.FoldAccents)
	classifier := NewAlertClassifier(rules.Alerts, rules.FoldAccents)
	anticipation := AnticipationRule{Flag: rules.AnticipationFlag, Weeks: rules.AnticipationWeeks}

	rows := make([]internal.NormalizedRow, 0, len(table.Rows))
	for _, raw := range table.Rows {
		dates := DeriveDates(
			res.Cell(raw, internal.FieldOrderDate),
			res.Cell(raw, internal.FieldInstallDate),
			res.Cell(raw, internal.FieldPostalCode),
			rules.FiscalStartMonth,
		)

		row := internal.NormalizedRow{
			Raw:          raw,
			Client:       util.CellString(res.Cell(raw, internal.FieldClient)),
			City:         util.CellString(res.Cell(raw, internal.FieldCity)),
			Status:       util.CellString(res.Cell(raw, internal.FieldStatus)),
			Salesperson:  util.CellString(res.Cell(raw, internal.FieldSalesperson)),
			PostalCode:   util.CellString(res.Cell(raw, internal.FieldPostalCode)),
			Alert:        util.CellString(res.Cell(raw, internal.FieldAlert)),
			Anticipation: util.CellString(res.Cell(raw, internal.FieldAnticipation)),
			DelayType:    util.CellString(res.Cell(raw, internal.FieldDelayType)),
			Amount:       util.ParseAmount(res.Cell(raw, internal.FieldAmount)),
			Hours:        util.ParseAmount(res.Cell(raw, internal.FieldHours)),
			OrderDate:    dates.OrderDate,
			InstallDate:  dates.InstallDate,
			OrderMonth:   dates.OrderMonth,
			InstallMonth: dates.InstallMonth,
			Department:   dates.Department,
			FiscalYear:   dates.FiscalYear,
		}
		row.Alerts = classifier.Classify(row.Alert)
		row.AnticipateStock = anticipation.Qualifies(row.Anticipation, row.InstallDate, now)
		rows = append(rows, row)
	}

	return Normalized{Resolution: res, Rows: rows}
}
