package pipeline

import (
	"fmt"
	"time"
	"unicode/utf8"

	"eurosom/internal/util"
)

const fiscalYearUnknown = "N/A"

type DerivedDates struct {
	OrderDate    *time.Time
	InstallDate  *time.Time
	OrderMonth   *string
	InstallMonth *string
	Department   string
	FiscalYear   string
}

// DeriveDates parses the two date cells day-first and derives the period
// buckets. postalCell feeds the department code.
func DeriveDates(orderCell, installCell, postalCell any, fiscalStartMonth int) DerivedDates {
	order := util.ParseDayFirst(orderCell)
	install := util.ParseDayFirst(installCell)
	return DerivedDates{
		OrderDate:    order,
		InstallDate:  install,
		OrderMonth:   MonthBucket(order),
		InstallMonth: MonthBucket(install),
		Department:   DepartmentCode(postalCell),
		FiscalYear:   FiscalYear(order, fiscalStartMonth),
	}
}

func MonthBucket(d *time.Time) *string {
	if d == nil {
		return nil
	}
	return util.StringPtr(d.Format("2006-01"))
}

// FiscalYear labels the accounting year starting in startMonth:
// with August, 01/09/2024 is "2024-2025" and 01/07/2024 is "2023-2024".
func FiscalYear(d *time.Time, startMonth int) string {
	if d == nil {
		return fiscalYearUnknown
	}
	if startMonth < 1 || startMonth > 12 {
		startMonth = 8
	}
	year := d.Year()
	if int(d.Month()) >= startMonth {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}

// DepartmentCode is the first two characters of the postal code as text.
func DepartmentCode(postalCell any) string {
	code := util.CellString(postalCell)
	if utf8.RuneCountInString(code) <= 2 {
		return code
	}
	return string([]rune(code)[:2])
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return util.FormatDayFirst(*d)
}
