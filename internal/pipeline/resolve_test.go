package pipeline

import (
	"testing"

	"eurosom/internal"
	"eurosom/internal/config"
)

func TestResolve(t *testing.T) {
	headers := []string{"N° Commande", "Client final", "Montant HT", "Montant TTC", "Date commande"}

	cases := []struct {
		name     string
		keyword  string
		fallback string
		want     string
	}{
		{name: "case insensitive", keyword: "client", fallback: "CLIENT", want: "Client final"},
		{name: "first in sheet order wins", keyword: "MONTANT", fallback: "MONTANT", want: "Montant HT"},
		{name: "not most specific", keyword: "COMMANDE", fallback: "X", want: "N° Commande"},
		{name: "fallback unchanged", keyword: "VILLE", fallback: "VILLE", want: "VILLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(headers, tc.keyword, tc.fallback); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestResolveEmptyHeaders(t *testing.T) {
	if got := Resolve(nil, "CLIENT", "CLIENT"); got != "CLIENT" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveReturnsHeaderOrFallback(t *testing.T) {
	headers := []string{"a", "Ville", "CP", "ville de pose"}
	for _, kw := range []string{"VILLE", "cp", "zz", "", "E"} {
		first := Resolve(headers, kw, "DEFAULT")
		second := Resolve(headers, kw, "DEFAULT")
		if first != second {
			t.Fatalf("not deterministic for %q: %q vs %q", kw, first, second)
		}
		if first != "DEFAULT" && !containsExact(headers, first) {
			t.Fatalf("result %q is neither a header nor the fallback", first)
		}
	}
}

func TestResolveAll(t *testing.T) {
	specs := []internal.ColumnSpec{
		{Key: internal.FieldClient, Keyword: "CLIENT", Default: "CLIENT"},
		{Key: internal.FieldCity, Keyword: "VILLE", Default: "VILLE"},
		{Key: internal.FieldAmount, Keyword: "MONTANT", Default: "MONTANT"},
	}
	res := ResolveAll([]string{"Nom client", "Montant"}, specs, false)

	if res.Column(internal.FieldClient) != "Nom client" || !res.Found(internal.FieldClient) {
		t.Fatalf("client=%q found=%v", res.Column(internal.FieldClient), res.Found(internal.FieldClient))
	}
	if res.Column(internal.FieldCity) != "VILLE" || res.Found(internal.FieldCity) {
		t.Fatalf("city=%q found=%v", res.Column(internal.FieldCity), res.Found(internal.FieldCity))
	}
	if res.Column(internal.FieldHours) != "" {
		t.Fatalf("unspecified key must resolve to empty")
	}
	if keys := res.Keys(); len(keys) != 3 || keys[0] != internal.FieldClient {
		t.Fatalf("keys=%v", keys)
	}

	row := internal.RawRow{"Nom client": "Dupont", "Montant": "10"}
	if res.Cell(row, internal.FieldCity) != nil {
		t.Fatal("unresolved column must read as nil")
	}
	if res.Cell(row, internal.FieldClient) != "Dupont" {
		t.Fatal("client cell")
	}
}

func TestResolveFolded(t *testing.T) {
	headers := []string{"Client", "Type delai", "Date prévue"}

	if got := ResolveFolded(headers, "DÉLAI", "TYPE DÉLAI"); got != "Type delai" {
		t.Fatalf("got %q want %q", got, "Type delai")
	}
	if got := ResolveFolded(headers, "PREVUE", "X"); got != "Date prévue" {
		t.Fatalf("got %q want %q", got, "Date prévue")
	}
	if got := Resolve(headers, "DÉLAI", "TYPE DÉLAI"); got != "TYPE DÉLAI" {
		t.Fatalf("exact match must not fold: got %q", got)
	}
}

func TestResolveAllFoldsAccents(t *testing.T) {
	headers := []string{"CLIENT", "DATE COMMANDE", "TYPE DELAI"}
	specs := config.DefaultRules().Columns

	folded := ResolveAll(headers, specs, true)
	if folded.Column(internal.FieldDelayType) != "TYPE DELAI" || !folded.Found(internal.FieldDelayType) {
		t.Fatalf("delay=%q found=%v", folded.Column(internal.FieldDelayType), folded.Found(internal.FieldDelayType))
	}

	exact := ResolveAll(headers, specs, false)
	if exact.Column(internal.FieldDelayType) != "TYPE DÉLAI" || exact.Found(internal.FieldDelayType) {
		t.Fatalf("delay=%q found=%v", exact.Column(internal.FieldDelayType), exact.Found(internal.FieldDelayType))
	}
}
