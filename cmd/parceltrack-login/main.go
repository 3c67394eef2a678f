package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/parceltrack/internal/runtime"
)

// parceltrack-login forces the interactive consent flow, replacing the
// stored credential. Run it when a scan reports that access was revoked.
func main() {
	cfgDir := flag.String("config", os.ExpandEnv("$HOME/.parceltrack"), "parceltrack config directory")
	flag.Parse()

	if err := run(*cfgDir); err != nil {
		runtime.DefaultLogger().Error("parceltrack-login failed", "error", err)
		os.Exit(1)
	}
}

func run(cfgDir string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := runtime.NewCredentialStore(cfgDir)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	cred, err := store.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	runtime.DefaultLogger().Info("credential stored", "path", store.Path, "expiry", cred.Expiry)
	return nil
}
