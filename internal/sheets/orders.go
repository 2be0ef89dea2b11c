package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"eurosom/internal"
	"eurosom/internal/config"
	"eurosom/internal/connectors"
	"eurosom/internal/pipeline"
	"eurosom/internal/storage"
)

const lastWriteKey = "sheet.last_write"

type OrderService struct {
	db    *storage.DB
	conn  connectors.SheetConnector
	rules config.Rules
	now   func() time.Time
	mu    *sync.Mutex
}

// NewOrderService writes through the same connector, rules and lock as loads,
// so a refresh never caches a table read before an append completed.
func NewOrderService(loads *LoadService) *OrderService {
	return &OrderService{db: loads.db, conn: loads.conn, rules: loads.rules, now: time.Now, mu: &loads.mu}
}

// Append reads the current sheet, adds one row and writes the whole table
// back. Last writer wins: edits made between the read and the write are lost.
func (s *OrderService) Append(ctx context.Context, order pipeline.NewOrder) (internal.RawRow, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.conn.Name()
	start := time.Now()
	traceID := uuid.NewString()

	table, err := readForRewrite(ctx, s.conn)
	if err != nil {
		return nil, fmt.Errorf("read sheet before append: %w", err)
	}

	res := pipeline.ResolveAll(table.Headers, s.rules.Columns, s.rules.FoldAccents)
	row, err := pipeline.BuildOrderRow(table.Headers, res, order, s.rules.AnticipationFlag)
	if err != nil {
		return nil, err
	}
	updated := pipeline.AppendRow(table, row)

	if err := s.conn.Write(ctx, updated); err != nil {
		_ = s.db.InsertRun(traceID, source, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"appended": 0}, err)
		return nil, fmt.Errorf("write sheet: %w", err)
	}

	if err := s.db.InvalidateSnapshots(source); err != nil {
		fmt.Printf("snapshot invalidation failed source=%s: %v\n", source, err)
	}
	_ = s.db.SetMetadata(lastWriteKey, s.now().UTC().Format(time.RFC3339))
	_ = s.db.InsertRun(traceID, source, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"appended": 1, "rows": len(updated.Rows)}, nil)
	fmt.Printf("order appended source=%s client=%q rows=%d trace=%s\n", source, order.Client, len(updated.Rows), traceID)

	return row, nil
}

func readForRewrite(ctx context.Context, conn connectors.SheetConnector) (internal.Table, error) {
	if fr, ok := conn.(connectors.FormulaReader); ok {
		return fr.ReadFormulas(ctx)
	}
	return conn.Read(ctx)
}
