package workflow

import (
	"context"

	"github.com/dxtoolkit/dxbuild/internal/destination"
	"github.com/dxtoolkit/dxbuild/internal/logging"
	"github.com/dxtoolkit/dxbuild/internal/manifest"
)

// Platform is the part of the API client the builder needs.
type Platform interface {
	WorkflowNew(ctx context.Context, input map[string]any) (string, error)
	WorkflowClose(ctx context.Context, workflowID string) error
}

// Options configure one workflow build.
type Options struct {
	SrcDir      string
	Destination destination.Destination
	DryRun      bool
}

// Output describes a finished (or dry-run) build.
type Output struct {
	ID       string         // empty on dry run
	Request  map[string]any // body of the workflow/new call
	Warnings []string
}

// Builder validates a workflow source directory and creates the workflow.
type Builder struct {
	validator *Validator
	platform  Platform
}

// NewBuilder returns a Builder. platform may be nil for dry runs.
func NewBuilder(v *Validator, platform Platform) *Builder {
	return &Builder{validator: v, platform: platform}
}

// Build reads dxworkflow.json from opts.SrcDir, validates it, then creates
// and closes the workflow. API errors are returned unchanged.
func (b *Builder) Build(ctx context.Context, opts Options) (*Output, error) {
	raw, err := manifest.ReadFile(opts.SrcDir, manifest.WorkflowFile)
	if err != nil {
		return nil, err
	}

	res, err := b.validator.Validate(raw, opts.SrcDir, opts.Destination)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, manifest.Errorf(manifest.WorkflowFile, "does not contain a workflow")
	}

	out := &Output{
		Request:  NewRequest(res.Manifest, opts.Destination),
		Warnings: res.Warnings,
	}
	if opts.DryRun {
		return out, nil
	}

	log := logging.WithModule("workflow")
	id, err := b.platform.WorkflowNew(ctx, out.Request)
	if err != nil {
		return nil, err
	}
	if err := b.platform.WorkflowClose(ctx, id); err != nil {
		log.Warn("workflow created but not closed", "workflow", id)
		return nil, err
	}
	log.Debug("created workflow", "workflow", id, "project", out.Request["project"])

	out.ID = id
	return out, nil
}

// NewRequest builds the workflow/new body: the manifest fields plus the
// destination folder (default "/") and, when given, the destination name.
func NewRequest(w *manifest.Workflow, dest destination.Destination) map[string]any {
	req := w.Fields()
	req["folder"] = "/"
	if dest.Folder != "" {
		req["folder"] = dest.Folder
	}
	if dest.Name != "" {
		req["name"] = dest.Name
	}
	return req
}
