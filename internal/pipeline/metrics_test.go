package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"eurosom/internal"
	"eurosom/internal/config"
)

func TestSummarize(t *testing.T) {
	rows := Normalize(fixtureTable(), config.DefaultRules(), fixtureNow).Rows
	sum := Summarize(rows)

	if sum.OrderCount != 3 {
		t.Fatalf("count=%d", sum.OrderCount)
	}
	if !sum.Revenue.Equal(decimal.RequireFromString("3234.5")) {
		t.Fatalf("revenue=%v", sum.Revenue)
	}
	if sum.RevenueLabel != "3 235 €" {
		t.Fatalf("label=%q", sum.RevenueLabel)
	}
	if sum.MedianOrder != 1234.5 {
		t.Fatalf("median=%v", sum.MedianOrder)
	}
	if sum.MeanOrder != 1078.17 {
		t.Fatalf("mean=%v", sum.MeanOrder)
	}
	if sum.AlertCounts[internal.AlertUrgent] != 1 || sum.AlertCounts[internal.AlertLate] != 1 || sum.AlertCounts[internal.AlertNone] != 1 {
		t.Fatalf("alerts=%v", sum.AlertCounts)
	}
	if sum.AnticipationCount != 1 {
		t.Fatalf("anticipation=%d", sum.AnticipationCount)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.OrderCount != 0 || !sum.Revenue.IsZero() || sum.MeanOrder != 0 || sum.RevenueLabel != "0 €" {
		t.Fatalf("empty summary=%+v", sum)
	}
}

func TestGroupBy(t *testing.T) {
	rows := Normalize(fixtureTable(), config.DefaultRules(), fixtureNow).Rows

	bySales, err := GroupBy(rows, GroupSalesperson)
	if err != nil {
		t.Fatal(err)
	}
	if len(bySales) != 2 || bySales[0].Key != "Bernard" || bySales[1].Key != "Martin" {
		t.Fatalf("groups=%+v", bySales)
	}
	if bySales[1].Count != 2 || !bySales[1].Revenue.Equal(decimal.RequireFromString("1234.5")) {
		t.Fatalf("martin=%+v", bySales[1])
	}

	byFiscal, err := GroupBy(rows, GroupFiscalYear)
	if err != nil {
		t.Fatal(err)
	}
	if len(byFiscal) != 2 || byFiscal[0].Key != "2023-2024" || byFiscal[1].Key != "2024-2025" {
		t.Fatalf("fiscal groups=%+v", byFiscal)
	}

	byMonth, err := GroupBy(rows, GroupOrderMonth)
	if err != nil {
		t.Fatal(err)
	}
	if len(byMonth) != 2 {
		t.Fatalf("rows without a date must be left out: %+v", byMonth)
	}

	if _, err := GroupBy(rows, "colour"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestGroupKeysSorted(t *testing.T) {
	keys := GroupKeys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}
