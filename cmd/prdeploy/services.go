package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/randalmurphal/prdeploy/artifact"
	"github.com/randalmurphal/prdeploy/auth"
	"github.com/randalmurphal/prdeploy/build"
	"github.com/randalmurphal/prdeploy/config"
	"github.com/randalmurphal/prdeploy/demo"
	"github.com/randalmurphal/prdeploy/deploy"
	clierrors "github.com/randalmurphal/prdeploy/errors"
	"github.com/randalmurphal/prdeploy/git"
	prhttp "github.com/randalmurphal/prdeploy/http"
	"github.com/randalmurphal/prdeploy/notify"
	"github.com/randalmurphal/prdeploy/pipeline"
	"github.com/randalmurphal/prdeploy/pr"
	"github.com/randalmurphal/prdeploy/storage"
	"github.com/randalmurphal/prdeploy/version"
)

// services wires every pipeline dependency from settings. Dry runs use a
// local store and deployer and never talk to the forge.
func (a *app) services(ctx context.Context, s *config.Settings, repository string, dryRun bool) (*pipeline.Services, error) {
	svc := &pipeline.Services{
		Builder: build.NewBuilder(a.runner, s.Root,
			build.WithStepTimeout(s.BuildTimeout),
			build.WithLogger(a.logger),
		),
		Version:   a.versionSource(s),
		Assembler: a.assembler(s),
		Notifier:  a.notifier(s),
		Artifacts: a.artifacts(s),
		Logger:    a.logger,
	}

	if g, err := git.NewContext(ctx, s.Root, git.WithRunner(a.runner)); err == nil {
		svc.Git = g
	}

	if dryRun {
		svc.Store = storage.NewDirStore(filepath.Join(svc.Artifacts.BaseDir(), "bucket"), s.PublicURL)
		svc.Deployer = &deploy.DryRunDeployer{BaseURL: s.HubURL, Logger: a.logger}
		return svc, nil
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          s.Bucket,
		Region:          a.region(s),
		AccessKeyID:     a.getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: a.getenv("AWS_SECRET_ACCESS_KEY"),
		Endpoint:        s.S3Endpoint,
		PublicURL:       s.PublicURL,
	})
	if err != nil {
		return nil, err
	}
	svc.Store = store

	deployer, err := a.deployer(s)
	if err != nil {
		return nil, err
	}
	svc.Deployer = deployer

	provider, err := a.provider(ctx, s, repository)
	if err != nil {
		return nil, err
	}
	svc.Provider = provider

	return svc, nil
}

// region prefers AWS_DEFAULT_REGION over the configured region.
func (a *app) region(s *config.Settings) string {
	if r := a.getenv("AWS_DEFAULT_REGION"); r != "" {
		return r
	}
	return s.Region
}

func (a *app) versionSource(s *config.Settings) version.Source {
	if s.VersionFile != "" {
		return version.FileSource{Path: s.Path(s.VersionFile)}
	}
	url := s.RegistryURL
	if url == "" {
		url = version.PyPIURL(s.Package)
	}
	client := prhttp.NewClient(prhttp.ClientConfig{
		Client:      a.httpClient,
		ServiceName: "registry",
		MaxRetries:  1, // one GET, no retry
		Logger:      a.logger,
	})
	return version.NewRegistrySource(client, url, s.VersionField)
}

func (a *app) assembler(s *config.Settings) *demo.Assembler {
	return demo.NewAssembler(s.Path(s.DemoDir),
		demo.WithInclude(s.DemoInclude...),
		demo.WithExclude(s.DemoExclude...),
		demo.WithWorkers(s.Workers),
		demo.WithLoader(demo.NewLoader(s.Root)),
		demo.WithLogger(a.logger),
	)
}

func (a *app) artifacts(s *config.Settings) *artifact.Manager {
	return artifact.NewManager(artifact.Config{BaseDir: s.Path(s.ArtifactDir)})
}

func (a *app) notifier(s *config.Settings) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(a.logger)}
	if s.SlackWebhook != "" {
		var opts []notify.SlackOption
		if s.SlackChannel != "" {
			opts = append(opts, notify.WithSlackChannel(s.SlackChannel))
		}
		notifiers = append(notifiers, notify.NewSlackNotifier(s.SlackWebhook, opts...))
	}
	if s.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(s.WebhookURL, nil))
	}
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return notify.NewMultiNotifier(notifiers...)
}

func (a *app) deployer(s *config.Settings) (deploy.Deployer, error) {
	token := a.getenv("HF_TOKEN")
	if token == "" {
		return nil, clierrors.NewMissingSecretError("HF_TOKEN")
	}
	return deploy.NewSpacesDeployer(deploy.SpacesConfig{
		BaseURL: s.HubURL,
		Token:   token,
		SDK:     s.SpaceSDK,
		Private: s.SpacePrivate,
		Client:  a.httpClient,
		Logger:  a.logger,
	})
}

func (a *app) provider(ctx context.Context, s *config.Settings, repository string) (pr.Provider, error) {
	platform := s.Platform
	if platform == "" {
		platform = "github"
	}

	switch platform {
	case "github":
		appCfg, err := auth.AppConfigFromEnv(a.getenv)
		if err != nil {
			return nil, err
		}
		tok, err := auth.ResolveGitHubToken(ctx, appCfg, a.getenv)
		if err != nil {
			if appCfg.Configured() {
				return nil, explain(err, "GitHub", appCfg.APIURL)
			}
			return nil, clierrors.NewMissingSecretError("GITHUB_TOKEN")
		}
		a.logger.Debug("resolved GitHub token", "source", tok.Source, "fingerprint", auth.Fingerprint(tok.Token))
		return pr.ProviderForRepository(platform, tok.Token, repository, a.getenv("GITHUB_API_URL"))
	case "gitlab":
		token, err := pr.TokenFromEnv(platform, a.getenv)
		if err != nil {
			return nil, clierrors.NewMissingSecretError("GITLAB_TOKEN")
		}
		return pr.ProviderForRepository(platform, token, repository, a.getenv("CI_API_V4_URL"))
	default:
		return nil, fmt.Errorf("%w: %s", pr.ErrUnknownProvider, platform)
	}
}
