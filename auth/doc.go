// Package auth obtains forge credentials for posting PR comments.
//
// The Actions-provided GITHUB_TOKEN is the default. Repositories that need
// comments to come from a dedicated bot identity can configure a GitHub
// App instead; the app's private key signs a short-lived RS256 JWT which is
// exchanged for an installation token:
//
//	cfg := auth.AppConfig{
//	    AppID:          12345,
//	    InstallationID: 67890,
//	    PrivateKeyPEM:  pemBytes,
//	}
//	tok, err := auth.InstallationToken(ctx, cfg)
//	// tok.Token is used like a personal access token
//
// # Token Fingerprints
//
// Fingerprint gives a stable, non-reversible identifier for logging which
// credential was used:
//
//	slog.Info("using token", "fingerprint", auth.Fingerprint(token))
package auth
