package applet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/dxtoolkit/dxbuild/internal/api"
	"github.com/dxtoolkit/dxbuild/internal/destination"
	"github.com/dxtoolkit/dxbuild/internal/logging"
	"github.com/dxtoolkit/dxbuild/internal/manifest"
)

// ArchiveFolder receives applets replaced with --archive.
const ArchiveFolder = "/.Applet_archive"

// DefaultDXAPI is sent when dxapp.json does not pin an API version.
const DefaultDXAPI = "1.0.0"

// appOnlyKeys are dxapp.json fields that belong to app/new, not applet/new.
var appOnlyKeys = []string{
	"version",
	"categories",
	"regionalOptions",
	"authorizedUsers",
	"developers",
	"openSource",
	"billTo",
}

// appMetadataKeys are copied from dxapp.json into app/new.
var appMetadataKeys = []string{
	"title",
	"summary",
	"description",
	"developerNotes",
	"categories",
	"authorizedUsers",
	"developers",
	"openSource",
	"billTo",
}

// Platform is the part of the API client the builder needs.
type Platform interface {
	AppletNew(ctx context.Context, input map[string]any) (string, error)
	AppNew(ctx context.Context, input map[string]any) (string, error)
	AppPublish(ctx context.Context, appID string, makeDefault bool) error
	FindDataObjects(ctx context.Context, q api.FindDataObjectsInput) ([]api.DataObject, error)
	RemoveObjects(ctx context.Context, project string, ids []string) error
	NewFolder(ctx context.Context, project, folder string, parents bool) error
	Move(ctx context.Context, project string, ids []string, destination string) error
}

// Options configure one applet or app build.
type Options struct {
	SrcDir          string
	Destination     destination.Destination
	CreateApp       bool
	Publish         bool
	Regions         []string
	Overwrite       bool
	Archive         bool
	VersionOverride string
	DryRun          bool
}

// Output describes a finished (or dry-run) build.
type Output struct {
	ID         string         // app ID in app mode, applet ID otherwise; empty on dry run
	AppletID   string         // applet the app was created from (app mode)
	Request    map[string]any // applet/new body
	AppRequest map[string]any // app/new body; nil in applet mode
}

// Builder validates a dxapp.json source directory and creates the applet or app.
type Builder struct {
	workspace string
	platform  Platform
}

// NewBuilder returns a Builder. platform may be nil for dry runs.
func NewBuilder(workspace string, platform Platform) *Builder {
	return &Builder{workspace: workspace, platform: platform}
}

// Build reads and validates dxapp.json, then creates the applet (and app).
func (b *Builder) Build(ctx context.Context, opts Options) (*Output, error) {
	a, err := b.load(opts)
	if err != nil {
		return nil, err
	}

	project := opts.Destination.Project
	if opts.CreateApp || project == "" {
		project = b.workspace
	}
	if project == "" {
		return nil, manifest.Errorf(manifest.AppletFile, "destination project not set")
	}

	folder, name := "/", a.Name()
	if !opts.CreateApp {
		if opts.Destination.Folder != "" {
			folder = opts.Destination.Folder
		}
		if opts.Destination.Name != "" {
			name = opts.Destination.Name
		}
	}

	out := &Output{Request: appletRequest(a, project, folder, name)}
	if opts.CreateApp {
		out.AppRequest = appRequest(a, opts.Regions)
	}
	if opts.DryRun {
		return out, nil
	}

	log := logging.WithModule("applet")
	if !opts.CreateApp && (opts.Overwrite || opts.Archive) {
		if err := b.replaceExisting(ctx, project, folder, name, opts.Archive); err != nil {
			return nil, err
		}
	}

	appletID, err := b.platform.AppletNew(ctx, out.Request)
	if err != nil {
		return nil, err
	}
	log.Debug("created applet", "applet", appletID, "project", project, "folder", folder)

	if !opts.CreateApp {
		out.ID = appletID
		return out, nil
	}

	out.AppletID = appletID
	out.AppRequest["applet"] = appletID
	appID, err := b.platform.AppNew(ctx, out.AppRequest)
	if err != nil {
		return nil, err
	}
	log.Debug("created app", "app", appID, "version", a.Version())

	if opts.Publish {
		if err := b.platform.AppPublish(ctx, appID, true); err != nil {
			return nil, err
		}
	}
	out.ID = appID
	return out, nil
}

// load reads, validates, and enriches dxapp.json.
func (b *Builder) load(opts Options) (*manifest.Applet, error) {
	raw, err := manifest.ReadFile(opts.SrcDir, manifest.AppletFile)
	if err != nil {
		return nil, err
	}
	if manifest.IsEmpty(raw) {
		return nil, manifest.Errorf(manifest.AppletFile, "does not contain an applet")
	}

	a, err := manifest.ParseApplet(raw)
	if err != nil {
		return nil, err
	}

	if opts.VersionOverride != "" {
		a.SetVersion(opts.VersionOverride)
	}
	if v := a.Version(); v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return nil, &manifest.Error{
				File: manifest.AppletFile,
				Msg:  fmt.Sprintf("version %q is not a valid semantic version", v),
				Err:  err,
			}
		}
	} else if opts.CreateApp {
		return nil, manifest.Errorf(manifest.AppletFile, "version is required to create an app")
	}

	if err := inlineCode(a, opts.SrcDir); err != nil {
		return nil, err
	}
	if _, err := manifest.InlineDocs(a, opts.SrcDir); err != nil {
		return nil, err
	}
	return a, nil
}

// inlineCode replaces runSpec.file with the file's contents in runSpec.code.
func inlineCode(a *manifest.Applet, srcDir string) error {
	runSpec, ok := a.Fields["runSpec"].(map[string]any)
	if !ok {
		return nil
	}
	file, ok := runSpec["file"].(string)
	if !ok || file == "" {
		return nil
	}
	if _, hasCode := runSpec["code"]; hasCode {
		return manifest.Errorf(manifest.AppletFile, "runSpec cannot contain both file and code")
	}

	code, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(file)))
	if err != nil {
		return &manifest.Error{
			File: manifest.AppletFile,
			Msg:  fmt.Sprintf("reading runSpec.file %s", file),
			Err:  err,
		}
	}
	runSpec["code"] = string(code)
	delete(runSpec, "file")
	return nil
}

// replaceExisting removes or archives applets named name directly in folder.
func (b *Builder) replaceExisting(ctx context.Context, project, folder, name string, archive bool) error {
	existing, err := b.platform.FindDataObjects(ctx, api.FindDataObjectsInput{
		Class:   "applet",
		Name:    name,
		Project: project,
		Folder:  folder,
	})
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	ids := make([]string, 0, len(existing))
	for _, obj := range existing {
		ids = append(ids, obj.ID)
	}

	log := logging.WithModule("applet")
	if archive {
		if err := b.platform.NewFolder(ctx, project, ArchiveFolder, true); err != nil {
			return err
		}
		log.Info("archiving existing applets", "applets", ids, "folder", ArchiveFolder)
		return b.platform.Move(ctx, project, ids, ArchiveFolder)
	}
	log.Info("removing existing applets", "applets", ids)
	return b.platform.RemoveObjects(ctx, project, ids)
}

// appletRequest builds the applet/new body from the manifest.
func appletRequest(a *manifest.Applet, project, folder, name string) map[string]any {
	req := make(map[string]any, len(a.Fields)+4)
	for k, v := range a.Fields {
		req[k] = v
	}
	for _, k := range appOnlyKeys {
		delete(req, k)
	}
	if _, ok := req["dxapi"]; !ok {
		req["dxapi"] = DefaultDXAPI
	}
	req["project"] = project
	req["folder"] = folder
	req["name"] = name
	req["parents"] = true
	return req
}

// appRequest builds the app/new body. The applet ID is added once the applet exists.
func appRequest(a *manifest.Applet, regions []string) map[string]any {
	req := map[string]any{
		"name":    a.Name(),
		"version": a.Version(),
	}
	for _, k := range appMetadataKeys {
		if v, ok := a.Fields[k]; ok {
			req[k] = v
		}
	}
	if len(regions) > 0 {
		opts := make(map[string]any, len(regions))
		for _, r := range regions {
			opts[r] = map[string]any{}
		}
		req["regionalOptions"] = opts
	} else if v, ok := a.Fields["regionalOptions"]; ok {
		req["regionalOptions"] = v
	}
	return req
}
