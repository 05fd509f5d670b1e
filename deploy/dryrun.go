package deploy

import (
	"context"
	"log/slog"
)

// DryRunDeployer reports what would be deployed without network calls.
type DryRunDeployer struct {
	BaseURL string
	Logger  *slog.Logger
}

// Deploy implements Deployer.
func (d *DryRunDeployer) Deploy(_ context.Context, target Target, bundleDir string) (*Deployment, error) {
	if err := ValidateName(target.Name); err != nil {
		return nil, err
	}
	files, err := collectFiles(bundleDir)
	if err != nil {
		return nil, err
	}
	d.logger().Info("dry run: skipping deploy", "space", target.ID(), "files", len(files))
	return &Deployment{Target: target, URL: SpaceURL(d.BaseURL, target), Files: len(files)}, nil
}

// Teardown implements Deployer.
func (d *DryRunDeployer) Teardown(_ context.Context, target Target) error {
	d.logger().Info("dry run: skipping teardown", "space", target.ID())
	return nil
}

func (d *DryRunDeployer) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
