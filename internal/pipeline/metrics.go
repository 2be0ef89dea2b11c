package pipeline

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"eurosom/internal"
	"eurosom/internal/util"
)

type Summary struct {
	OrderCount        int                            `json:"orderCount"`
	Revenue           decimal.Decimal                `json:"revenue"`
	RevenueLabel      string                         `json:"revenueLabel"`
	Hours             decimal.Decimal                `json:"hours"`
	MeanOrder         float64                        `json:"meanOrder"`
	MedianOrder       float64                        `json:"medianOrder"`
	AlertCounts       map[internal.AlertCategory]int `json:"alertCounts"`
	AnticipationCount int                            `json:"anticipationCount"`
}

func Summarize(rows []internal.NormalizedRow) Summary {
	sum := Summary{
		OrderCount:  len(rows),
		Revenue:     decimal.Zero,
		Hours:       decimal.Zero,
		AlertCounts: map[internal.AlertCategory]int{},
	}

	amounts := make([]float64, 0, len(rows))
	for _, row := range rows {
		sum.Revenue = sum.Revenue.Add(row.Amount)
		sum.Hours = sum.Hours.Add(row.Hours)
		amounts = append(amounts, row.Amount.InexactFloat64())
		for _, c := range row.Alerts {
			sum.AlertCounts[c]++
		}
		if row.AnticipateStock {
			sum.AnticipationCount++
		}
	}
	sum.RevenueLabel = util.FormatEuros(sum.Revenue)

	if len(amounts) > 0 {
		if mean, err := stats.Mean(amounts); err == nil {
			sum.MeanOrder, _ = stats.Round(mean, 2)
		}
		if median, err := stats.Median(amounts); err == nil {
			sum.MedianOrder, _ = stats.Round(median, 2)
		}
	}
	return sum
}

type GroupKey string

const (
	GroupOrderMonth   GroupKey = "order_month"
	GroupInstallMonth GroupKey = "install_month"
	GroupFiscalYear   GroupKey = "fiscal_year"
	GroupDepartment   GroupKey = "department"
	GroupSalesperson  GroupKey = "salesperson"
	GroupCity         GroupKey = "city"
	GroupStatus       GroupKey = "status"
	GroupDelayType    GroupKey = "delay_type"
)

var groupKeyFuncs = map[GroupKey]func(internal.NormalizedRow) string{
	GroupOrderMonth:   func(r internal.NormalizedRow) string { return derefString(r.OrderMonth) },
	GroupInstallMonth: func(r internal.NormalizedRow) string { return derefString(r.InstallMonth) },
	GroupFiscalYear: func(r internal.NormalizedRow) string {
		if r.FiscalYear == fiscalYearUnknown {
			return ""
		}
		return r.FiscalYear
	},
	GroupDepartment:  func(r internal.NormalizedRow) string { return r.Department },
	GroupSalesperson: func(r internal.NormalizedRow) string { return r.Salesperson },
	GroupCity:        func(r internal.NormalizedRow) string { return r.City },
	GroupStatus:      func(r internal.NormalizedRow) string { return r.Status },
	GroupDelayType:   func(r internal.NormalizedRow) string { return r.DelayType },
}

func GroupKeys() []GroupKey {
	out := make([]GroupKey, 0, len(groupKeyFuncs))
	for k := range groupKeyFuncs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type Group struct {
	Key     string          `json:"key"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
	Hours   decimal.Decimal `json:"hours"`
}

// GroupBy buckets rows by a derived key, sorted by key. Rows whose key is
// empty (no date, no salesperson, ...) are left out, as a chart would.
func GroupBy(rows []internal.NormalizedRow, key GroupKey) ([]Group, error) {
	keyFn, ok := groupKeyFuncs[key]
	if !ok {
		return nil, fmt.Errorf("unsupported group key: %s", key)
	}

	index := map[string]int{}
	out := []Group{}
	for _, row := range rows {
		k := keyFn(row)
		if k == "" {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, Group{Key: k, Revenue: decimal.Zero, Hours: decimal.Zero})
		}
		out[i].Count++
		out[i].Revenue = out[i].Revenue.Add(row.Amount)
		out[i].Hours = out[i].Hours.Add(row.Hours)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
