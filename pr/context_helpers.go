package pr

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{ name string }

var prProviderKey = &contextKey{"pr-provider"}

// ContextWithProvider adds a PR Provider to a context.Context.
// Use ProviderFromContext to retrieve it.
//
// Example:
//
//	provider, _ := pr.ProviderFromEnv(remoteURL)
//	ctx := pr.ContextWithProvider(context.Background(), provider)
//	// Pipeline nodes read it back with ProviderFromContext
func ContextWithProvider(ctx context.Context, p Provider) context.Context {
	return context.WithValue(ctx, prProviderKey, p)
}

// ProviderFromContext retrieves a PR Provider from a context.Context.
// Returns nil if no Provider is present.
//
// Example:
//
//	func comment(ctx context.Context, id int, body string) error {
//	    provider := pr.ProviderFromContext(ctx)
//	    if provider == nil {
//	        return pr.ErrNoProvider
//	    }
//	    _, err := provider.AddComment(ctx, id, body)
//	    return err
//	}
func ProviderFromContext(ctx context.Context) Provider {
	if p, ok := ctx.Value(prProviderKey).(Provider); ok {
		return p
	}
	return nil
}
