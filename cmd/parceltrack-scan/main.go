package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joshsymonds/parceltrack/internal/config"
	"github.com/joshsymonds/parceltrack/internal/extract"
	"github.com/joshsymonds/parceltrack/internal/rate"
	"github.com/joshsymonds/parceltrack/internal/runtime"
	"github.com/joshsymonds/parceltrack/internal/scan"
	"github.com/joshsymonds/parceltrack/internal/store"
)

type scanConfig struct {
	cfgDir    string
	query     string
	storePath string
	max       int
	pageSize  int
	rps       int
	dryRun    bool
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("parceltrack-scan failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() scanConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.parceltrack"), "parceltrack config directory")
	query := flag.String("query", "", "override the configured search query")
	storePath := flag.String("store", "", "record store path (default <config>/tracking.jsonl)")
	maxResults := flag.Int("max", 75, "maximum messages to scan per run")
	pageSize := flag.Int("page-size", 100, "provider list page size (<=500)")
	rps := flag.Int("rps", 4, "max requests per second")
	dryRun := flag.Bool("dry-run", false, "extract and report but skip the store append")
	flag.Parse()

	return scanConfig{
		cfgDir:    *cfgDir,
		query:     *query,
		storePath: *storePath,
		max:       *maxResults,
		pageSize:  *pageSize,
		rps:       *rps,
		dryRun:    *dryRun,
	}
}

func run(cfg scanConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fileCfg, err := config.Load(filepath.Join(cfg.cfgDir, "config.json"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	query := fileCfg.Query
	if cfg.query != "" {
		query = cfg.query
	}

	client, err := runtime.NewGmailClient(ctx, cfg.cfgDir)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	storePath := cfg.storePath
	if storePath == "" {
		storePath = filepath.Join(cfg.cfgDir, "tracking.jsonl")
	}

	var limiter rate.Limiter
	if cfg.rps > 0 {
		interval := rate.PerSecond(cfg.rps)
		defer interval.Stop()
		limiter = interval
	}

	svc := scan.NewService(
		client,
		extract.New(nil, fileCfg.Destinations),
		store.NewFileStore(storePath),
		limiter,
		runtime.DefaultLogger(),
	)

	summary, err := svc.Run(ctx, scan.Spec{
		Query:      query,
		PageSize:   cfg.pageSize,
		MaxResults: cfg.max,
		DryRun:     cfg.dryRun,
	})
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	fmt.Print(summary.HumanSummary())
	return nil
}
