package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"eurosom/internal"
	"eurosom/internal/pipeline"
	"eurosom/internal/sheets"
	"eurosom/internal/storage"
)

const lastExportKey = "watcher.last_export"

type Viewer interface {
	View(ctx context.Context, force bool) sheets.View
}

type Options struct {
	Interval   time.Duration
	OutputDir  string
	AutoExport bool
}

type Service struct {
	db     *storage.DB
	viewer Viewer
	opts   Options
	now    func() time.Time
}

func NewService(db *storage.DB, viewer Viewer, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Minute
	}
	return &Service{db: db, viewer: viewer, opts: opts, now: time.Now}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if _, err := s.runCycle(ctx); err != nil {
			fmt.Printf("watcher cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.opts.Interval):
		}
	}
}

// runCycle forces a fresh read and returns the exported path, if any.
func (s *Service) runCycle(ctx context.Context) (string, error) {
	view := s.viewer.View(ctx, true)
	if view.Err != nil {
		return "", fmt.Errorf("refresh: %w", view.Err)
	}
	if view.Empty() {
		fmt.Printf("watcher cycle done rows=0 (no data)\n")
		return "", nil
	}

	exported := ""
	if s.opts.AutoExport {
		stamp := s.now().UTC().Format("20060102_150405")
		exported = filepath.Join(s.opts.OutputDir, "watcher", fmt.Sprintf("snapshot_%s.xlsx", stamp))
		if err := pipeline.ExportRowsToXLSX(view.Table.Headers, view.Rows, exported); err != nil {
			return "", err
		}
		_ = s.db.SetMetadata(lastExportKey, exported)
	}

	fmt.Printf("watcher cycle done rows=%d revenue=%s urgent=%d exported=%q\n",
		view.Summary.OrderCount, view.Summary.RevenueLabel, view.Summary.AlertCounts[internal.AlertUrgent], exported)
	return exported, nil
}
