package sheets

import (
	"context"
	"fmt"

	"eurosom/internal/config"
	"eurosom/internal/connectors"
	"eurosom/internal/connectors/gsheets"
	"eurosom/internal/connectors/html"
	"eurosom/internal/connectors/xlsx"
)

func NewConnector(ctx context.Context, cfg config.Config) (connectors.SheetConnector, error) {
	switch cfg.SheetSource {
	case "gsheets":
		conn, err := gsheets.NewConnector(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "xlsx":
		conn, err := xlsx.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "html":
		conn, err := html.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported SHEET_SOURCE: %s", cfg.SheetSource)
	}
}
