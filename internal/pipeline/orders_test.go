package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"eurosom/internal"
	"eurosom/internal/config"
)

func TestBuildOrderRow(t *testing.T) {
	table := fixtureTable()
	rules := config.DefaultRules()
	res := ResolveAll(table.Headers, rules.Columns, rules.FoldAccents)
	install := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	row, err := BuildOrderRow(table.Headers, res, NewOrder{
		Client:       " Leroy ",
		City:         "Lille",
		PostalCode:   "59000",
		Salesperson:  "Martin",
		Amount:       decimal.RequireFromString("1500.5"),
		OrderDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		InstallDate:  &install,
		Anticipation: true,
	}, rules.AnticipationFlag)
	if err != nil {
		t.Fatal(err)
	}

	checks := map[string]any{
		"Client":             "Leroy",
		"Ville":              "Lille",
		"Code Postal":        "59000",
		"Montant HT":         "1500,50",
		"Date Commande":      "10/03/2025",
		"Date de pose":       "02/04/2025",
		"Anticipation stock": "OUI",
		"Statut":             nil,
		"Alerte":             nil,
		"Heures":             nil,
	}
	for column, want := range checks {
		if got, ok := row[column]; !ok || got != want {
			t.Fatalf("%s got %v want %v", column, got, want)
		}
	}
	if len(row) != len(table.Headers) {
		t.Fatalf("row has %d cells for %d headers", len(row), len(table.Headers))
	}

	normalized := Normalize(AppendRow(table, row), rules, fixtureNow).Rows
	last := normalized[len(normalized)-1]
	if !last.Amount.Equal(decimal.RequireFromString("1500.5")) || last.Department != "59" || !last.AnticipateStock {
		t.Fatalf("appended row does not read back: %+v", last)
	}
	if last.FiscalYear != "2024-2025" {
		t.Fatalf("fiscal=%s", last.FiscalYear)
	}
}

func TestBuildOrderRowValidation(t *testing.T) {
	res := ResolveAll(nil, config.DefaultRules().Columns, true)
	_, err := BuildOrderRow(nil, res, NewOrder{OrderDate: time.Now()}, "OUI")
	if !errors.Is(err, ErrMissingClient) {
		t.Fatalf("err=%v", err)
	}
	_, err = BuildOrderRow(nil, res, NewOrder{Client: "A"}, "OUI")
	if !errors.Is(err, ErrMissingOrderDate) {
		t.Fatalf("err=%v", err)
	}
}

func TestAppendRowAddsFallbackColumns(t *testing.T) {
	table := internal.Table{
		Headers: []string{"Client"},
		Rows:    []internal.RawRow{{"Client": "A"}},
	}
	res := ResolveAll(table.Headers, config.DefaultRules().Columns, true)
	row, err := BuildOrderRow(table.Headers, res, NewOrder{
		Client:    "B",
		City:      "Nantes",
		OrderDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}, "OUI")
	if err != nil {
		t.Fatal(err)
	}

	out := AppendRow(table, row)
	if len(out.Rows) != 2 || len(table.Rows) != 1 {
		t.Fatalf("append must not touch the input: %d/%d", len(out.Rows), len(table.Rows))
	}
	if out.Headers[0] != "Client" || !out.HasHeader("VILLE") || !out.HasHeader("DATE COMMANDE") {
		t.Fatalf("headers=%v", out.Headers)
	}
	for i := 2; i < len(out.Headers); i++ {
		if out.Headers[i-1] > out.Headers[i] {
			t.Fatalf("added headers not sorted: %v", out.Headers)
		}
	}
}

func TestBuildOrderRowUsesUnaccentedDelayHeader(t *testing.T) {
	table := internal.Table{Headers: []string{"CLIENT", "DATE COMMANDE", "ALERTE", "TYPE DELAI"}}
	rules := config.DefaultRules()
	res := ResolveAll(table.Headers, rules.Columns, rules.FoldAccents)

	row, err := BuildOrderRow(table.Headers, res, NewOrder{
		Client:    "Leroy",
		OrderDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DelayType: "Express",
	}, rules.AnticipationFlag)
	if err != nil {
		t.Fatal(err)
	}
	if row["TYPE DELAI"] != "Express" {
		t.Fatalf("row=%v", row)
	}
	if row["ALERTE"] != nil {
		t.Fatalf("alert=%v want blank", row["ALERTE"])
	}
	out := AppendRow(table, row)
	if out.HasHeader("TYPE DÉLAI") {
		t.Fatalf("a second delay column was added: %v", out.Headers)
	}
}
