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

// LoadResult is what a refresh hands to the presentation. A failed read is an
// empty table with Err set, never a panic or a partial table.
type LoadResult struct {
	Table     internal.Table
	FetchedAt time.Time
	FromCache bool
	Err       error
}

func (r LoadResult) Empty() bool {
	return r.Table.Empty()
}

type View struct {
	LoadResult
	Resolution pipeline.Resolution
	Rows       []internal.NormalizedRow
	Summary    pipeline.Summary
}

type LoadService struct {
	db    *storage.DB
	conn  connectors.SheetConnector
	rules config.Rules
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
}

func NewLoadService(db *storage.DB, conn connectors.SheetConnector, rules config.Rules, ttl time.Duration) *LoadService {
	return &LoadService{db: db, conn: conn, rules: rules, ttl: ttl, now: time.Now}
}

func (s *LoadService) Rules() config.Rules {
	return s.rules
}

// Load returns the raw sheet, reusing the last snapshot while it is younger
// than the TTL. force skips the cache.
func (s *LoadService) Load(ctx context.Context, force bool) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.conn.Name()
	now := s.now()

	if !force && s.ttl > 0 {
		snap, err := s.db.LatestSnapshot(source)
		if err != nil {
			fmt.Printf("snapshot lookup failed source=%s: %v\n", source, err)
		} else if snap != nil && now.Sub(snap.FetchedAt) < s.ttl {
			return LoadResult{Table: snap.Table, FetchedAt: snap.FetchedAt, FromCache: true}
		}
	}

	start := time.Now()
	traceID := uuid.NewString()
	table, err := s.conn.Read(ctx)
	timings := map[string]float64{"readMs": float64(time.Since(start).Milliseconds())}
	if err != nil {
		fmt.Printf("sheet read failed source=%s trace=%s: %v\n", source, traceID, err)
		_ = s.db.InsertRun(traceID, source, timings, map[string]int{"rows": 0}, err)
		return LoadResult{Table: internal.Table{}, FetchedAt: now, Err: err}
	}

	if err := s.db.SaveSnapshot(source, table, now); err != nil {
		fmt.Printf("snapshot save failed source=%s: %v\n", source, err)
	}
	_ = s.db.InsertRun(traceID, source, timings, map[string]int{"rows": len(table.Rows), "columns": len(table.Headers)}, nil)
	fmt.Printf("sheet loaded source=%s rows=%d trace=%s\n", source, len(table.Rows), traceID)

	return LoadResult{Table: table, FetchedAt: now}
}

// View loads and normalizes in one pass; rows are recomputed from scratch on
// every call.
func (s *LoadService) View(ctx context.Context, force bool) View {
	res := s.Load(ctx, force)
	normalized := pipeline.Normalize(res.Table, s.rules, s.now())
	return View{
		LoadResult: res,
		Resolution: normalized.Resolution,
		Rows:       normalized.Rows,
		Summary:    pipeline.Summarize(normalized.Rows),
	}
}
