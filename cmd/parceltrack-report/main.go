package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joshsymonds/parceltrack/internal/report"
	"github.com/joshsymonds/parceltrack/internal/runtime"
	"github.com/joshsymonds/parceltrack/internal/store"
)

const hoursPerDay = 24

type reportConfig struct {
	cfgDir    string
	storePath string
	days      int
	topN      int
	jsonOut   string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("parceltrack-report failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() reportConfig {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.parceltrack"), "parceltrack config directory")
	storePath := flag.String("store", "", "record store path (default <config>/tracking.jsonl)")
	days := flag.Int("days", 0, "lookback window in days (0 = all records)")
	topN := flag.Int("top", 20, "number of top senders to display")
	jsonOut := flag.String("json", "", "write JSON report to path")
	flag.Parse()

	return reportConfig{
		cfgDir:    *cfgDir,
		storePath: *storePath,
		days:      *days,
		topN:      *topN,
		jsonOut:   *jsonOut,
	}
}

func run(cfg reportConfig) error {
	storePath := cfg.storePath
	if storePath == "" {
		storePath = filepath.Join(cfg.cfgDir, "tracking.jsonl")
	}

	svc := report.NewService(store.NewFileStore(storePath))
	rep, err := svc.Run(report.Options{
		Window: time.Duration(cfg.days) * hoursPerDay * time.Hour,
		TopN:   cfg.topN,
	})
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if cfg.jsonOut != "" {
		return writeJSON(cfg.jsonOut, rep)
	}
	fmt.Print(rep.HumanSummary())
	return nil
}

func writeJSON(path string, rep report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	return f.Close()
}
