package build

import (
	"context"

	"github.com/dxtoolkit/dxbuild/internal/applet"
	"github.com/dxtoolkit/dxbuild/internal/destination"
	"github.com/dxtoolkit/dxbuild/internal/logging"
	"github.com/dxtoolkit/dxbuild/internal/workflow"
)

// Platform is everything a build may ask of the API server.
type Platform interface {
	workflow.Platform
	applet.Platform
	destination.ProjectFinder
}

// Output is the result of one dispatched build.
type Output struct {
	ID       string                    `json:"id,omitempty"`
	Kind     Kind                      `json:"kind"`
	Dry      bool                      `json:"dryRun,omitempty"`
	Requests map[string]map[string]any `json:"requests,omitempty"` // keyed by route; filled on dry run
	Warnings []string                  `json:"warnings,omitempty"`
}

// Dispatcher routes a source directory to the workflow or applet builder.
type Dispatcher struct {
	workspace string
	platform  Platform
	resolver  *destination.Resolver
}

// NewDispatcher returns a Dispatcher that builds against platform, using
// workspace as the ambient project.
func NewDispatcher(workspace string, platform Platform) *Dispatcher {
	return &Dispatcher{
		workspace: workspace,
		platform:  platform,
		resolver:  destination.NewResolver(destination.NewPathParser(platform)),
	}
}

// Run builds srcDir. Argument and destination problems surface as
// *ConfigurationError before any object is created.
func (d *Dispatcher) Run(ctx context.Context, srcDir string, a Args) (*Output, error) {
	kind, err := DetectMode(srcDir, a.CreateApp)
	if err != nil {
		return nil, err
	}
	if err := CheckArgs(kind, a); err != nil {
		return nil, err
	}

	var dest destination.Destination
	if a.Destination != "" {
		dest, err = d.resolver.Resolve(ctx, a.Destination)
		if err != nil {
			return nil, &ConfigurationError{Msg: "resolving destination " + a.Destination, Err: err}
		}
	}

	log := logging.WithModule("build")
	log.Debug("dispatching build", "kind", kind, "src", srcDir, "project", dest.Project, "folder", dest.Folder)

	if kind == KindWorkflow {
		return d.buildWorkflow(ctx, srcDir, dest, a)
	}
	return d.buildApplet(ctx, srcDir, kind, dest, a)
}

func (d *Dispatcher) buildWorkflow(ctx context.Context, srcDir string, dest destination.Destination, a Args) (*Output, error) {
	b := workflow.NewBuilder(workflow.NewValidator(d.workspace), d.platform)
	res, err := b.Build(ctx, workflow.Options{SrcDir: srcDir, Destination: dest, DryRun: a.DryRun})
	if err != nil {
		return nil, err
	}
	out := &Output{ID: res.ID, Kind: KindWorkflow, Dry: a.DryRun, Warnings: res.Warnings}
	if a.DryRun {
		out.Requests = map[string]map[string]any{"/workflow/new": res.Request}
	}
	return out, nil
}

func (d *Dispatcher) buildApplet(ctx context.Context, srcDir string, kind Kind, dest destination.Destination, a Args) (*Output, error) {
	b := applet.NewBuilder(d.workspace, d.platform)
	res, err := b.Build(ctx, applet.Options{
		SrcDir:          srcDir,
		Destination:     dest,
		CreateApp:       kind == KindApp,
		Publish:         a.Publish,
		Regions:         a.Regions,
		Overwrite:       a.Overwrite,
		Archive:         a.Archive,
		VersionOverride: a.Version,
		DryRun:          a.DryRun,
	})
	if err != nil {
		return nil, err
	}
	out := &Output{ID: res.ID, Kind: kind, Dry: a.DryRun}
	if a.DryRun {
		out.Requests = map[string]map[string]any{"/applet/new": res.Request}
		if res.AppRequest != nil {
			out.Requests["/app/new"] = res.AppRequest
		}
	}
	return out, nil
}
