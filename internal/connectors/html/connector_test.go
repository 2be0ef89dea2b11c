package html

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"eurosom/internal"
	"eurosom/internal/connectors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const published = `<html><body>
<table class="waffle">
<thead><tr><th></th><th>A</th><th>B</th><th>C</th></tr></thead>
<tbody>
<tr><th>1</th><td>CLIENT</td><td>MONTANT</td><td>DATE COMMANDE</td></tr>
<tr><th>2</th><td>Dupont</td><td>1 234,50 €</td><td>01/09/2024</td></tr>
<tr><th>3</th><td></td><td></td><td></td></tr>
<tr><th>4</th><td>Durand</td><td>2 000 €</td><td></td></tr>
</tbody>
</table>
<table><tr><td>ignored</td></tr></table>
</body></html>`

func TestParseTable(t *testing.T) {
	table, err := ParseTable([]byte(published))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(table.Headers, "|") != "CLIENT|MONTANT|DATE COMMANDE" {
		t.Fatalf("headers=%v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	if table.Rows[1]["DATE COMMANDE"] != nil {
		t.Fatalf("blank cell must be nil: %v", table.Rows[1])
	}
}

func TestParseTableWithoutTable(t *testing.T) {
	table, err := ParseTable([]byte("<p>nothing</p>"))
	if err != nil {
		t.Fatal(err)
	}
	if !table.Empty() {
		t.Fatalf("table=%+v", table)
	}
}

func TestTrimGutter(t *testing.T) {
	got := trimGutter([][]string{{"", "CLIENT"}, {"", "Dupont"}})
	if len(got[0]) != 1 || got[0][0] != "CLIENT" {
		t.Fatalf("got %v", got)
	}
	kept := trimGutter([][]string{{"", "CLIENT"}, {"x", "Dupont"}})
	if len(kept[0]) != 2 {
		t.Fatalf("got %v", kept)
	}
}

func TestRead(t *testing.T) {
	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(published))}, nil
	})}

	conn := NewConnectorWithClient("https://docs.example.test/pubhtml", client, 1000)
	table, err := conn.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(table.Rows) != 2 {
		t.Fatalf("calls=%d rows=%d", calls, len(table.Rows))
	}
}

func TestReadDoesNotRetry(t *testing.T) {
	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: http.StatusServiceUnavailable, Body: io.NopCloser(strings.NewReader(""))}, nil
	})}
	conn := NewConnectorWithClient("https://docs.example.test/pubhtml", client, 1000)
	if _, err := conn.Read(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls=%d want 1", calls)
	}
}

func TestReadFailsOnClientError(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}, nil
	})}
	conn := NewConnectorWithClient("https://docs.example.test/pubhtml", client, 1000)
	if _, err := conn.Read(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteIsReadOnly(t *testing.T) {
	conn := NewConnectorWithClient("https://docs.example.test/pubhtml", http.DefaultClient, 1)
	if err := conn.Write(context.Background(), internal.Table{}); !errors.Is(err, connectors.ErrReadOnly) {
		t.Fatalf("got %v want ErrReadOnly", err)
	}
}
