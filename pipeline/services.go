package pipeline

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/prdeploy/artifact"
	"github.com/randalmurphal/prdeploy/build"
	"github.com/randalmurphal/prdeploy/demo"
	"github.com/randalmurphal/prdeploy/deploy"
	"github.com/randalmurphal/prdeploy/git"
	"github.com/randalmurphal/prdeploy/notify"
	"github.com/randalmurphal/prdeploy/pr"
	"github.com/randalmurphal/prdeploy/storage"
	"github.com/randalmurphal/prdeploy/version"
)

// Services wraps everything the steps talk to.
type Services struct {
	Builder   *build.Builder
	Version   version.Source
	Store     storage.Store
	Assembler *demo.Assembler
	Deployer  deploy.Deployer
	Provider  pr.Provider       // Optional in dry runs
	Notifier  notify.Notifier   // Optional
	Artifacts *artifact.Manager // Optional run records
	Git       *git.Context      // Optional
	Logger    *slog.Logger
}

type serviceContextKey string

const servicesKey serviceContextKey = "prdeploy.services"

// InjectAll adds all configured services to the context.
func (s *Services) InjectAll(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, servicesKey, s)
	if s.Provider != nil {
		ctx = pr.ContextWithProvider(ctx, s.Provider)
	}
	if s.Git != nil {
		ctx = git.ContextWithGit(ctx, s.Git)
	}
	if s.Notifier != nil {
		ctx = notify.WithNotifier(ctx, s.Notifier)
	}
	return ctx
}

// ServicesFromContext extracts Services from context.
// Returns nil if none were injected.
func ServicesFromContext(ctx context.Context) *Services {
	if s, ok := ctx.Value(servicesKey).(*Services); ok {
		return s
	}
	return nil
}

func servicesFrom(ctx context.Context) (*Services, error) {
	s := ServicesFromContext(ctx)
	if s == nil {
		return nil, ErrNoServices
	}
	return s, nil
}

func (s *Services) logger() *slog.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
