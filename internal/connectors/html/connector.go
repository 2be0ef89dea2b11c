package html

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"eurosom/internal"
	"eurosom/internal/config"
	"eurosom/internal/connectors"
	"eurosom/internal/util"
)

// Connector reads a sheet published to the web ("publish as HTML"). The
// published page cannot be written back.
type Connector struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("SHEET_HTML_URL", cfg.SheetHTMLURL); err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: time.Duration(cfg.SheetsTimeoutMs) * time.Millisecond}
	return NewConnectorWithClient(cfg.SheetHTMLURL, client, cfg.SheetsRateLimitRPS), nil
}

func NewConnectorWithClient(url string, client *http.Client, requestsPerSecond int) *Connector {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Connector{
		url:        url,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (c *Connector) Name() string {
	return "html"
}

func (c *Connector) Read(ctx context.Context) (internal.Table, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return internal.Table{}, err
	}
	return ParseTable(body)
}

func (c *Connector) Write(context.Context, internal.Table) error {
	return connectors.ErrReadOnly
}

// fetch makes a single attempt; a failed read stays empty until the next
// refresh.
func (c *Connector) fetch(ctx context.Context) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch published sheet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("published sheet error: status=%d", resp.StatusCode)
	}
	return body, nil
}

// ParseTable reads the first table of a published sheet. Row-number gutters
// rendered as <th> are ignored; only <td> cells carry data.
func ParseTable(body []byte) (internal.Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return internal.Table{}, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return internal.Table{}, nil
	}

	grid := [][]string{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := []string{}
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			grid = append(grid, cells)
		}
	})
	return connectors.TableFromGrid(connectors.StringGrid(trimGutter(grid))), nil
}

// Published sheets pad every row with an empty leading cell when frozen
// columns are present; drop it when the whole column is blank.
func trimGutter(grid [][]string) [][]string {
	for _, row := range grid {
		if len(row) == 0 || util.CellString(row[0]) != "" {
			return grid
		}
	}
	out := make([][]string, 0, len(grid))
	for _, row := range grid {
		out = append(out, row[1:])
	}
	return out
}
