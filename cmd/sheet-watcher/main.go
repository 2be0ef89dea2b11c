package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eurosom/internal/config"
	"eurosom/internal/sheets"
	"eurosom/internal/storage"
	"eurosom/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	rules, err := config.LoadRules(cfg)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := sheets.NewConnector(ctx, cfg)
	must(err)

	loads := sheets.NewLoadService(db, conn, rules, time.Duration(cfg.CacheTTLSec)*time.Second)
	svc := watcher.NewService(db, loads, watcher.Options{
		Interval:   time.Duration(cfg.WatchIntervalSec) * time.Second,
		OutputDir:  cfg.OutputDir,
		AutoExport: cfg.WatchAutoExport,
	})

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
