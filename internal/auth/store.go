package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrReauthRequired means the stored credential cannot be made valid
// without user interaction. The remedy is parceltrack-login.
var ErrReauthRequired = errors.New("authorization required: run parceltrack-login")

// expirySkew treats tokens about to expire as already expired so a scan
// does not outlive its access token mid-run.
const expirySkew = 30 * time.Second

// Credential is the persisted OAuth token state.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Valid reports whether the access token is usable at now.
func (c Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.Expiry.IsZero() || now.Add(expirySkew).Before(c.Expiry)
}

// Token converts the credential for use with oauth2 transports.
func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// Store loads, refreshes and persists the OAuth credential file.
type Store struct {
	Path   string
	Config *oauth2.Config
	Clock  func() time.Time
	In     io.Reader // consent-flow input, defaults to stdin
	Out    io.Writer // consent-flow prompts, defaults to stderr
}

// NewStore returns a Store persisting to path, authorizing against cfg.
func NewStore(path string, cfg *oauth2.Config) *Store {
	return &Store{Path: path, Config: cfg, Clock: time.Now, In: os.Stdin, Out: os.Stderr}
}

// GetValidCredential returns a usable credential, refreshing and
// persisting it when expired. With no usable credential it falls back to
// the interactive consent flow, or fails with ErrReauthRequired when no
// human can answer the prompt.
func (s *Store) GetValidCredential(ctx context.Context) (Credential, error) {
	cred, err := s.load()
	if err != nil {
		return Credential{}, err
	}
	switch {
	case cred.Valid(s.Clock()):
		return cred, nil
	case cred.RefreshToken != "":
		return s.refresh(ctx, cred)
	case interactive(s.In):
		return s.Authorize(ctx)
	default:
		return Credential{}, ErrReauthRequired
	}
}

func (s *Store) refresh(ctx context.Context, cred Credential) (Credential, error) {
	stale := cred.Token()
	stale.Expiry = time.Unix(1, 0) // force the token source to hit the refresh endpoint
	tok, err := s.Config.TokenSource(ctx, stale).Token()
	if err != nil {
		return Credential{}, fmt.Errorf("refresh rejected (access revoked?): %w: %w", ErrReauthRequired, err)
	}
	next := s.fromToken(tok, cred)
	if err := s.save(next); err != nil {
		return Credential{}, err
	}
	return next, nil
}

// Authorize runs the consent flow unconditionally and persists the
// resulting credential, replacing whatever was stored before.
func (s *Store) Authorize(ctx context.Context) (Credential, error) {
	url := s.Config.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Fprintf(s.Out, "Open the following link in your browser, then paste the authorization code:\n%s\n> ", url)
	code, err := readLine(s.In)
	if err != nil {
		return Credential{}, err
	}
	tok, err := s.Config.Exchange(ctx, code)
	if err != nil {
		return Credential{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	cred := s.fromToken(tok, Credential{})
	if err := s.save(cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// fromToken merges a fresh token with the previous credential. Google
// omits the refresh token on refresh responses, so keep the old one.
func (s *Store) fromToken(tok *oauth2.Token, prev Credential) Credential {
	cred := Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       s.Config.Scopes,
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = prev.RefreshToken
	}
	return cred
}

func (s *Store) load() (Credential, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Credential{}, nil
	}
	if err != nil {
		return Credential{}, fmt.Errorf("read credential file: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(b, &cred); err != nil {
		return Credential{}, fmt.Errorf("parse credential file %s: %w", s.Path, err)
	}
	return cred, nil
}

func (s *Store) save(cred Credential) error {
	b, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(s.Path, append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read authorization code: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// interactive reports whether in can answer a consent prompt. Files must
// be terminals; injected readers are assumed to be scripted answers.
func interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return in != nil
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
