package gsheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"eurosom/internal"
	"eurosom/internal/config"
	"eurosom/internal/connectors"
)

type Connector struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	limiter       *rate.Limiter
}

func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	if err := cfg.Require("SHEET_ID", cfg.SheetID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_ID", cfg.GoogleClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}

	base := &http.Client{Timeout: time.Duration(cfg.SheetsTimeoutMs) * time.Millisecond}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, err
	}

	return NewConnectorWithService(svc, cfg.SheetID, cfg.SheetRange, cfg.SheetsRateLimitRPS), nil
}

func NewConnectorWithService(svc *sheets.Service, spreadsheetID, readRange string, requestsPerSecond int) *Connector {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Connector{
		service:       svc,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		limiter:       rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (c *Connector) Name() string {
	return "gsheets"
}

func (c *Connector) Read(ctx context.Context) (internal.Table, error) {
	return c.read(ctx, "FORMATTED_VALUE")
}

// ReadFormulas returns formulas instead of their computed values, and raw
// numbers instead of formatted ones, so a full rewrite puts back what the
// cells held.
func (c *Connector) ReadFormulas(ctx context.Context) (internal.Table, error) {
	return c.read(ctx, "FORMULA")
}

func (c *Connector) read(ctx context.Context, renderOption string) (internal.Table, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return internal.Table{}, err
	}
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).
		ValueRenderOption(renderOption).
		Context(ctx).
		Do()
	if err != nil {
		return internal.Table{}, fmt.Errorf("read sheet %s!%s: %w", c.spreadsheetID, c.readRange, err)
	}
	return connectors.TableFromGrid(resp.Values), nil
}

// Write overwrites the table from A1, then clears the rows left below it.
// A failed update leaves the previous values in place.
func (c *Connector) Write(ctx context.Context, table internal.Table) error {
	grid := connectors.GridFromTable(table)
	sheet := quoteSheet(sheetName(c.readRange))

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	target := sheet + "!A1"
	if _, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, target, &sheets.ValueRange{Values: grid}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("update sheet %s!%s: %w", c.spreadsheetID, target, err)
	}

	// The new table is already in place; leftover rows below it only show up
	// when the sheet shrank, so a failed clear is logged, not returned.
	tail := fmt.Sprintf("%s!A%d:ZZ", sheet, len(grid)+1)
	if err := c.limiter.Wait(ctx); err != nil {
		fmt.Printf("clear below table skipped sheet=%s range=%s: %v\n", c.spreadsheetID, tail, err)
		return nil
	}
	if _, err := c.service.Spreadsheets.Values.Clear(c.spreadsheetID, tail, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		fmt.Printf("clear below table failed sheet=%s range=%s: %v\n", c.spreadsheetID, tail, err)
	}
	return nil
}

// sheetName strips the cell part of an A1 range: "'Feuille 1'!A1:L" gives
// "Feuille 1".
func sheetName(rng string) string {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[:i]
	}
	rng = strings.TrimSpace(rng)
	if len(rng) >= 2 && strings.HasPrefix(rng, "'") && strings.HasSuffix(rng, "'") {
		rng = strings.ReplaceAll(rng[1:len(rng)-1], "''", "'")
	}
	return rng
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
