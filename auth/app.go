package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/go-github/v57/github"
)

// AppConfig identifies a GitHub App installation.
type AppConfig struct {
	AppID          int64
	InstallationID int64
	PrivateKeyPEM  []byte
	PrivateKeyPath string // Read when PrivateKeyPEM is empty
	APIURL         string // GitHub Enterprise API URL; empty for github.com
	HTTPClient     *http.Client
}

// Configured reports whether enough fields are set to mint tokens.
func (c AppConfig) Configured() bool {
	return c.AppID > 0 && c.InstallationID > 0 && (len(c.PrivateKeyPEM) > 0 || c.PrivateKeyPath != "")
}

func (c AppConfig) privateKey() ([]byte, error) {
	if len(c.PrivateKeyPEM) > 0 {
		return c.PrivateKeyPEM, nil
	}
	if c.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: private key is required", ErrAppNotConfigured)
	}
	data, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return data, nil
}

// Token is a forge access token.
type Token struct {
	Token     string
	ExpiresAt time.Time // Zero for tokens without a known expiry
	Source    string    // "app", "env"
}

// InstallationToken exchanges an app JWT for an installation token.
func InstallationToken(ctx context.Context, cfg AppConfig) (*Token, error) {
	if cfg.AppID <= 0 || cfg.InstallationID <= 0 {
		return nil, fmt.Errorf("%w: app ID and installation ID are required", ErrAppNotConfigured)
	}

	pemBytes, err := cfg.privateKey()
	if err != nil {
		return nil, err
	}
	key, err := ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}
	appJWT, err := GenerateAppJWT(key, cfg.AppID, time.Now())
	if err != nil {
		return nil, err
	}

	client := github.NewClient(cfg.HTTPClient).WithAuthToken(appJWT)
	if cfg.APIURL != "" {
		client, err = client.WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("configure GitHub API URL: %w", err)
		}
	}

	it, _, err := client.Apps.CreateInstallationToken(ctx, cfg.InstallationID, nil)
	if err != nil {
		return nil, fmt.Errorf("create installation token: %w", err)
	}

	return &Token{
		Token:     it.GetToken(),
		ExpiresAt: it.GetExpiresAt().Time,
		Source:    "app",
	}, nil
}

// AppConfigFromEnv reads GH_APP_ID, GH_APP_INSTALLATION_ID and
// GH_APP_PRIVATE_KEY (PEM contents) or GH_APP_PRIVATE_KEY_PATH.
func AppConfigFromEnv(getenv func(string) string) (AppConfig, error) {
	var cfg AppConfig
	if v := getenv("GH_APP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("parse GH_APP_ID: %w", err)
		}
		cfg.AppID = id
	}
	if v := getenv("GH_APP_INSTALLATION_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("parse GH_APP_INSTALLATION_ID: %w", err)
		}
		cfg.InstallationID = id
	}
	if v := getenv("GH_APP_PRIVATE_KEY"); v != "" {
		cfg.PrivateKeyPEM = []byte(v)
	}
	cfg.PrivateKeyPath = getenv("GH_APP_PRIVATE_KEY_PATH")
	cfg.APIURL = getenv("GITHUB_API_URL")
	if cfg.APIURL == "https://api.github.com" {
		cfg.APIURL = ""
	}
	return cfg, nil
}

// ResolveGitHubToken returns an installation token when app is configured,
// otherwise GITHUB_TOKEN (or GIT_TOKEN) from the environment.
func ResolveGitHubToken(ctx context.Context, app AppConfig, getenv func(string) string) (*Token, error) {
	if app.Configured() {
		return InstallationToken(ctx, app)
	}
	for _, key := range []string{"GITHUB_TOKEN", "GIT_TOKEN"} {
		if v := getenv(key); v != "" {
			return &Token{Token: v, Source: "env"}, nil
		}
	}
	return nil, fmt.Errorf("%w: set GITHUB_TOKEN or configure a GitHub App", ErrNoToken)
}
