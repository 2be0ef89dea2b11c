package pipeline

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"eurosom/internal"
	"eurosom/internal/config"
)

var fixtureNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fixtureTable() internal.Table {
	headers := []string{
		"Client", "Ville", "Code Postal", "Montant HT", "Date Commande", "Date de pose",
		"Statut", "Commercial", "Heures", "Alerte", "Anticipation stock", "Type délai",
	}
	return internal.Table{
		Headers: headers,
		Rows: []internal.RawRow{
			{
				"Client": "Dupont", "Ville": "Paris", "Code Postal": "75001", "Montant HT": "1 234,50 €",
				"Date Commande": "01/09/2024", "Date de pose": "31/03/2025", "Statut": "En cours",
				"Commercial": "Martin", "Heures": "7,5", "Alerte": "URGENT - Mesures à prendre",
				"Anticipation stock": "OUI", "Type délai": "Standard",
			},
			{
				"Client": "Durand", "Ville": "Lyon", "Code Postal": 69003.0, "Montant HT": "2 000 €",
				"Date Commande": "01/07/2024", "Date de pose": "19/05/2025", "Statut": "Signé",
				"Commercial": "Bernard", "Heures": nil, "Alerte": "RETARD",
				"Anticipation stock": "OUI", "Type délai": "Express",
			},
			{
				"Client": "Petit", "Ville": "Amiens", "Code Postal": "", "Montant HT": "à définir",
				"Date Commande": "", "Date de pose": "pas encore", "Statut": "",
				"Commercial": "Martin", "Heures": "", "Alerte": "OK",
				"Anticipation stock": "NON", "Type délai": nil,
			},
		},
	}
}

func TestNormalize(t *testing.T) {
	out := Normalize(fixtureTable(), config.DefaultRules(), fixtureNow)
	if len(out.Rows) != 3 {
		t.Fatalf("len=%d", len(out.Rows))
	}

	if out.Resolution.Column(internal.FieldInstallDate) != "Date de pose" {
		t.Fatalf("install column=%q", out.Resolution.Column(internal.FieldInstallDate))
	}

	first := out.Rows[0]
	if !first.Amount.Equal(decimal.RequireFromString("1234.50")) {
		t.Fatalf("amount=%v", first.Amount)
	}
	if !first.Hours.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("hours=%v", first.Hours)
	}
	if first.FiscalYear != "2024-2025" || first.Department != "75" {
		t.Fatalf("fiscal=%s department=%s", first.FiscalYear, first.Department)
	}
	if first.OrderMonth == nil || *first.OrderMonth != "2024-09" {
		t.Fatalf("order month=%v", first.OrderMonth)
	}
	if !reflect.DeepEqual(first.Alerts, []internal.AlertCategory{internal.AlertUrgent}) {
		t.Fatalf("alerts=%v", first.Alerts)
	}
	if !first.AnticipateStock {
		t.Fatal("install in three weeks with OUI must anticipate stock")
	}
	if first.DelayType != "Standard" || first.Salesperson != "Martin" {
		t.Fatalf("text fields: %+v", first)
	}

	second := out.Rows[1]
	if second.FiscalYear != "2023-2024" || second.Department != "69" {
		t.Fatalf("fiscal=%s department=%s", second.FiscalYear, second.Department)
	}
	if second.AnticipateStock {
		t.Fatal("install in ten weeks must not anticipate stock")
	}
	if !second.Hours.IsZero() {
		t.Fatalf("hours=%v", second.Hours)
	}

	third := out.Rows[2]
	if !third.Amount.IsZero() || third.OrderDate != nil || third.InstallDate != nil {
		t.Fatalf("garbage must degrade to defaults: %+v", third)
	}
	if third.FiscalYear != "N/A" || third.OrderMonth != nil || third.Department != "" {
		t.Fatalf("defaults: fiscal=%s month=%v department=%q", third.FiscalYear, third.OrderMonth, third.Department)
	}
	if third.Alerts[0] != internal.AlertNone || third.AnticipateStock {
		t.Fatalf("alerts=%v anticipate=%v", third.Alerts, third.AnticipateStock)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	table := fixtureTable()
	rules := config.DefaultRules()
	a := Normalize(table, rules, fixtureNow)
	b := Normalize(table, rules, fixtureNow)
	if !reflect.DeepEqual(a.Rows, b.Rows) {
		t.Fatal("two runs over the same table differ")
	}
}

func TestNormalizeMissingColumns(t *testing.T) {
	table := internal.Table{
		Headers: []string{"Société", "Prix"},
		Rows:    []internal.RawRow{{"Société": "Acme", "Prix": "10"}},
	}
	out := Normalize(table, config.DefaultRules(), fixtureNow)
	if len(out.Rows) != 1 {
		t.Fatalf("len=%d", len(out.Rows))
	}
	row := out.Rows[0]
	if row.Client != "" || !row.Amount.IsZero() || row.FiscalYear != "N/A" {
		t.Fatalf("unresolved columns must read as no data: %+v", row)
	}
	if out.Resolution.Found(internal.FieldAmount) {
		t.Fatal("amount must not be found")
	}
}

func TestNormalizeEmptyTable(t *testing.T) {
	out := Normalize(internal.Table{}, config.DefaultRules(), fixtureNow)
	if len(out.Rows) != 0 {
		t.Fatalf("len=%d", len(out.Rows))
	}
}
