package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"eurosom/internal"
	"eurosom/internal/config"
	"eurosom/internal/connectors"
)

// Connector backs the order sheet with a local workbook. Reads keep numeric
// cells as float64 so serial dates and plain amounts survive untouched.
type Connector struct {
	path  string
	sheet string
	mu    sync.Mutex
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("SHEET_XLSX_PATH", cfg.SheetXLSXPath); err != nil {
		return nil, err
	}
	return &Connector{path: cfg.SheetXLSXPath, sheet: cfg.SheetXLSXSheet}, nil
}

func (c *Connector) Name() string {
	return "xlsx"
}

func (c *Connector) Read(ctx context.Context) (internal.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return internal.Table{}, err
	}
	f, err := excelize.OpenFile(c.path)
	if err != nil {
		return internal.Table{}, fmt.Errorf("open workbook %s: %w", c.path, err)
	}
	defer f.Close()

	sheet := c.sheetName(f)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return internal.Table{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	grid := make([][]any, 0, len(rows))
	for r, row := range rows {
		cells := make([]any, 0, len(row))
		for col, raw := range row {
			cells = append(cells, typedCell(f, sheet, col+1, r+1, raw))
		}
		grid = append(grid, cells)
	}
	return connectors.TableFromGrid(grid), nil
}

func (c *Connector) Write(ctx context.Context, table internal.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := excelize.OpenFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if c.sheet != "" {
			if err := f.SetSheetName(f.GetSheetName(0), c.sheet); err != nil {
				return err
			}
		}
	} else if err != nil {
		return fmt.Errorf("open workbook %s: %w", c.path, err)
	}
	defer f.Close()

	sheet := c.sheetName(f)
	existing, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for r := len(existing); r >= 1; r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return err
		}
	}

	for r, cells := range connectors.GridFromTable(table) {
		axis, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(c.path)
}

func (c *Connector) sheetName(f *excelize.File) string {
	if c.sheet != "" {
		return c.sheet
	}
	return f.GetSheetName(0)
}

func typedCell(f *excelize.File, sheet string, col, row int, raw string) any {
	if raw == "" {
		return nil
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	kind, err := f.GetCellType(sheet, axis)
	if err != nil {
		return raw
	}
	switch kind {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	case excelize.CellTypeBool:
		return raw == "1" || raw == "TRUE"
	}
	return raw
}
