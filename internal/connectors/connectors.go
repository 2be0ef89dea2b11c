package connectors

import (
	"context"
	"errors"

	"eurosom/internal"
)

var ErrReadOnly = errors.New("sheet source is read-only")

// SheetConnector reads and overwrites the whole shared order sheet. Write
// replaces the full table; there is no partial append at the storage layer.
type SheetConnector interface {
	Name() string
	Read(ctx context.Context) (internal.Table, error)
	Write(ctx context.Context, table internal.Table) error
}

// FormulaReader is implemented by sources whose Read returns computed display
// values. ReadFormulas returns the cell sources so that a full rewrite keeps
// the formulas.
type FormulaReader interface {
	ReadFormulas(ctx context.Context) (internal.Table, error)
}
