package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eurosom/internal"
	"eurosom/internal/config"
	"eurosom/internal/pipeline"
	"eurosom/internal/server"
	"eurosom/internal/sheets"
	"eurosom/internal/storage"
	"eurosom/internal/util"
	"eurosom/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

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

	cmd := os.Args[1]
	switch cmd {
	case "sheet:load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		force := fs.Bool("force", false, "skip the snapshot cache")
		_ = fs.Parse(os.Args[2:])
		view := loads.View(ctx, *force)
		must(view.Err)
		fmt.Printf("sheet loaded source=%s rows=%d columns=%d fromCache=%t fetchedAt=%s\n",
			conn.Name(), len(view.Rows), len(view.Table.Headers), view.FromCache, view.FetchedAt.Format(time.RFC3339))
		for _, key := range view.Resolution.Keys() {
			marker := ""
			if !view.Resolution.Found(key) {
				marker = " (missing)"
			}
			fmt.Printf("  %-13s -> %s%s\n", key, view.Resolution.Column(key), marker)
		}
	case "orders:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		criteria := criteriaFlags(fs)
		limit := fs.Int("limit", 50, "max rows printed, 0 for all")
		force := fs.Bool("force", false, "skip the snapshot cache")
		_ = fs.Parse(os.Args[2:])
		view := loads.View(ctx, *force)
		if view.Empty() {
			printNoData(view)
			return
		}
		rows := pipeline.Filter(view.Rows, criteria())
		for i, row := range rows {
			if *limit > 0 && i >= *limit {
				fmt.Printf("... %d more\n", len(rows)-i)
				break
			}
			fmt.Printf("%-28s %-16s %12s  pose=%-10s  %s\n",
				truncate(row.Client, 28), truncate(row.City, 16), util.FormatEuros(row.Amount),
				dateOrDash(row.InstallDate), alertsLabel(row))
		}
		fmt.Printf("orders=%d of %d\n", len(rows), len(view.Rows))
	case "metrics":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		criteria := criteriaFlags(fs)
		by := fs.String("by", "", "group key: "+groupKeysLabel())
		force := fs.Bool("force", false, "skip the snapshot cache")
		_ = fs.Parse(os.Args[2:])
		view := loads.View(ctx, *force)
		if view.Empty() {
			printNoData(view)
			return
		}
		rows := pipeline.Filter(view.Rows, criteria())
		sum := pipeline.Summarize(rows)
		fmt.Printf("orders=%d revenue=%s hours=%s mean=%.2f median=%.2f anticipation=%d\n",
			sum.OrderCount, sum.RevenueLabel, sum.Hours.String(), sum.MeanOrder, sum.MedianOrder, sum.AnticipationCount)
		for _, category := range []internal.AlertCategory{
			internal.AlertUrgent, internal.AlertLate, internal.AlertUpcoming,
			internal.AlertFarHorizon, internal.AlertAwaitingSchedule,
		} {
			fmt.Printf("  %-18s %d\n", category, sum.AlertCounts[category])
		}
		if strings.TrimSpace(*by) != "" {
			groups, err := pipeline.GroupBy(rows, pipeline.GroupKey(*by))
			must(err)
			for _, g := range groups {
				fmt.Printf("  %-20s count=%-4d revenue=%s\n", g.Key, g.Count, util.FormatEuros(g.Revenue))
			}
		}
	case "orders:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		client := fs.String("client", "", "client name")
		city := fs.String("city", "", "city")
		postal := fs.String("postal", "", "postal code")
		salesperson := fs.String("salesperson", "", "salesperson")
		status := fs.String("status", "", "status")
		amount := fs.String("amount", "", "amount, e.g. \"1 234,50\"")
		hours := fs.String("hours", "", "install hours")
		orderDate := fs.String("date", "", "order date DD/MM/YYYY (default today)")
		installDate := fs.String("install", "", "install date DD/MM/YYYY")
		anticipation := fs.Bool("anticipation", false, "flag for stock anticipation")
		delay := fs.String("delay", "", "delay type")
		_ = fs.Parse(os.Args[2:])

		order := pipeline.NewOrder{
			Client:       *client,
			City:         *city,
			PostalCode:   *postal,
			Salesperson:  *salesperson,
			Status:       *status,
			Amount:       util.ParseAmount(*amount),
			Hours:        util.ParseAmount(*hours),
			OrderDate:    util.Today(time.Now()),
			Anticipation: *anticipation,
			DelayType:    *delay,
		}
		if strings.TrimSpace(*orderDate) != "" {
			d := util.ParseDayFirst(*orderDate)
			if d == nil {
				must(fmt.Errorf("invalid --date: %s", *orderDate))
			}
			order.OrderDate = *d
		}
		if strings.TrimSpace(*installDate) != "" {
			d := util.ParseDayFirst(*installDate)
			if d == nil {
				must(fmt.Errorf("invalid --install: %s", *installDate))
			}
			order.InstallDate = d
		}

		orders := sheets.NewOrderService(loads)
		_, err := orders.Append(ctx, order)
		must(err)
		fmt.Printf("order added client=%s amount=%s\n", order.Client, util.FormatEuros(order.Amount))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		criteria := criteriaFlags(fs)
		force := fs.Bool("force", false, "skip the snapshot cache")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		view := loads.View(ctx, *force)
		must(view.Err)
		rows := pipeline.Filter(view.Rows, criteria())
		if len(rows) == 0 {
			must(fmt.Errorf("no rows to export"))
		}
		must(pipeline.ExportRowsToXLSX(view.Table.Headers, rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, run := range runs {
			status := "ok"
			if run.Error != "" {
				status = "error: " + run.Error
			}
			fmt.Printf("%s %-8s trace=%s counts=%v timings=%v %s\n", run.CreatedAt, run.Source, run.TraceID, run.Counts, run.Timings, status)
		}
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		orders := sheets.NewOrderService(loads)
		must(server.New(loads, orders).Run(ctx, *addr))
	case "watch":
		svc := watcher.NewService(db, loads, watcher.Options{
			Interval:   time.Duration(cfg.WatchIntervalSec) * time.Second,
			OutputDir:  cfg.OutputDir,
			AutoExport: cfg.WatchAutoExport,
		})
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func criteriaFlags(fs *flag.FlagSet) func() pipeline.Criteria {
	query := fs.String("q", "", "search text")
	alert := fs.String("alert", "", "URGENT|LATE|UPCOMING|FAR_HORIZON|AWAITING_SCHEDULE|NONE")
	fiscalYear := fs.String("fiscal-year", "", "fiscal year, e.g. 2024-2025")
	salesperson := fs.String("salesperson", "", "salesperson")
	department := fs.String("department", "", "two-digit department")
	anticipation := fs.Bool("anticipation-only", false, "only rows needing stock anticipation")
	return func() pipeline.Criteria {
		return pipeline.Criteria{
			Query:            *query,
			Alert:            internal.AlertCategory(strings.ToUpper(strings.TrimSpace(*alert))),
			FiscalYear:       *fiscalYear,
			Salesperson:      *salesperson,
			Department:       *department,
			AnticipationOnly: *anticipation,
		}
	}
}

func printNoData(view sheets.View) {
	if view.Err != nil {
		fmt.Printf("no data: %v\n", view.Err)
		return
	}
	fmt.Println("no data")
}

func alertsLabel(row internal.NormalizedRow) string {
	parts := []string{}
	for _, a := range row.Alerts {
		if a != internal.AlertNone {
			parts = append(parts, string(a))
		}
	}
	if row.AnticipateStock {
		parts = append(parts, "ANTICIPER")
	}
	return strings.Join(parts, " ")
}

func dateOrDash(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return util.FormatDayFirst(*d)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func groupKeysLabel() string {
	keys := pipeline.GroupKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, "|")
}

func usage() {
	fmt.Println("usage: eurosom <command>")
	fmt.Println("commands:")
	fmt.Println("  sheet:load [--force]")
	fmt.Println("  orders:list [--q=...] [--alert=URGENT] [--fiscal-year=2024-2025] [--salesperson=...] [--anticipation-only] [--limit=50]")
	fmt.Println("  orders:add --client=... --amount=\"1 234,50\" [--date=DD/MM/YYYY] [--install=DD/MM/YYYY] [--anticipation]")
	fmt.Println("  metrics [--by=" + groupKeysLabel() + "]")
	fmt.Println("  export:xlsx --out=./out/orders.xlsx")
	fmt.Println("  runs [--limit=20]")
	fmt.Println("  serve [--addr=:8080]")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
