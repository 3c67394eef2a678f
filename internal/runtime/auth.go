package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/joshsymonds/parceltrack/internal/auth"
	gc "github.com/joshsymonds/parceltrack/internal/gmail"
)

// NewGmailClient builds an authenticated provider client from the
// credential store in cfgDir. First run walks the consent flow; later
// runs load and, when needed, refresh the persisted token.
func NewGmailClient(ctx context.Context, cfgDir string) (gc.Client, error) {
	store, err := NewCredentialStore(cfgDir)
	if err != nil {
		return nil, err
	}
	cred, err := store.GetValidCredential(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}
	svc, err := gmailv1.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(cred.Token())))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

// NewCredentialStore wires the conventional file layout inside cfgDir:
// credentials.json (OAuth client secret) and token.json (credential).
func NewCredentialStore(cfgDir string) (*auth.Store, error) {
	cfg, err := auth.LoadClientConfig(filepath.Join(cfgDir, "credentials.json"))
	if err != nil {
		return nil, err
	}
	return auth.NewStore(filepath.Join(cfgDir, "token.json"), cfg), nil
}

func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
