package pipeline

import (
	"testing"
)

func TestDeriveDatesFiscalYear(t *testing.T) {
	cases := []struct {
		order string
		want  string
	}{
		{order: "01/09/2024", want: "2024-2025"},
		{order: "01/08/2024", want: "2024-2025"},
		{order: "31/07/2024", want: "2023-2024"},
		{order: "01/07/2024", want: "2023-2024"},
		{order: "15/01/2025", want: "2024-2025"},
		{order: "", want: "N/A"},
		{order: "n'importe quoi", want: "N/A"},
	}
	for _, tc := range cases {
		t.Run(tc.order, func(t *testing.T) {
			got := DeriveDates(tc.order, nil, nil, 8)
			if got.FiscalYear != tc.want {
				t.Fatalf("got %s want %s", got.FiscalYear, tc.want)
			}
		})
	}
}

func TestDeriveDatesBuckets(t *testing.T) {
	got := DeriveDates("05/03/2024", "20/04/2024", "75001", 8)
	if got.OrderDate == nil || got.OrderDate.Format("2006-01-02") != "2024-03-05" {
		t.Fatalf("order date=%v", got.OrderDate)
	}
	if got.OrderMonth == nil || *got.OrderMonth != "2024-03" {
		t.Fatalf("order month=%v", got.OrderMonth)
	}
	if got.InstallMonth == nil || *got.InstallMonth != "2024-04" {
		t.Fatalf("install month=%v", got.InstallMonth)
	}
	if got.Department != "75" {
		t.Fatalf("department=%q", got.Department)
	}
}

func TestDeriveDatesBlank(t *testing.T) {
	got := DeriveDates("", "  ", nil, 8)
	if got.OrderDate != nil || got.InstallDate != nil {
		t.Fatal("blank dates must be nil")
	}
	if got.OrderMonth != nil || got.InstallMonth != nil {
		t.Fatal("blank months must be nil")
	}
	if got.FiscalYear != "N/A" || got.Department != "" {
		t.Fatalf("fiscal=%q department=%q", got.FiscalYear, got.Department)
	}
}

func TestDepartmentCode(t *testing.T) {
	cases := []struct {
		input any
		want  string
	}{
		{"75001", "75"},
		{"", ""},
		{nil, ""},
		{69003.0, "69"},
		{" 2A004 ", "2A"},
		{"7", "7"},
	}
	for _, tc := range cases {
		if got := DepartmentCode(tc.input); got != tc.want {
			t.Fatalf("DepartmentCode(%v) got %q want %q", tc.input, got, tc.want)
		}
	}
}

func TestFiscalYearCustomStart(t *testing.T) {
	d := DeriveDates("15/01/2025", nil, nil, 1)
	if d.FiscalYear != "2025-2026" {
		t.Fatalf("got %s", d.FiscalYear)
	}
}
