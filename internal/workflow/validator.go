package workflow

import (
	"fmt"
	"strings"

	"github.com/dxtoolkit/dxbuild/internal/destination"
	"github.com/dxtoolkit/dxbuild/internal/logging"
	"github.com/dxtoolkit/dxbuild/internal/manifest"
)

// Validator checks and enriches workflow manifests.
type Validator struct {
	workspace string
}

// NewValidator returns a Validator that falls back to workspace when neither
// the command line nor the manifest names a project.
func NewValidator(workspace string) *Validator {
	return &Validator{workspace: workspace}
}

// Result is a validated manifest plus the warnings raised on the way.
type Result struct {
	Manifest *manifest.Workflow
	Warnings []string
	Inlined  []string // readme files copied into the manifest
}

// Validate parses raw and returns the enriched manifest. An empty document
// yields (nil, nil). Every failure is a *manifest.Error except readme read
// errors, which are returned wrapped.
func (v *Validator) Validate(raw []byte, srcDir string, dest destination.Destination) (*Result, error) {
	if manifest.IsEmpty(raw) {
		return nil, nil
	}

	w, err := manifest.ParseWorkflow(raw)
	if err != nil {
		return nil, err
	}
	res := &Result{Manifest: w}

	if keys := w.UnsupportedKeys(); len(keys) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"the following root level fields are not supported and will be ignored: %s",
			strings.Join(keys, ",")))
		w.DropUnsupported()
	}

	// Resolved before touching the filesystem so the outcome does not depend on it.
	project, err := ResolveProject(dest.Project, w.Project, v.workspace)
	if err != nil {
		return nil, err
	}
	w.Project = &project

	warnings, err := validateStages(w.Stages)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)

	inlined, err := manifest.InlineDocs(w, srcDir)
	if err != nil {
		return nil, err
	}
	res.Inlined = inlined

	logging.WithModule("workflow").Debug("validated workflow manifest",
		"project", project,
		"stages", len(w.Stages),
		"inlined", inlined,
	)
	return res, nil
}

// ResolveProject picks the destination project: the command-line destination,
// then the manifest's project field, then the workspace.
func ResolveProject(cliProject string, manifestProject *string, workspace string) (string, error) {
	if cliProject != "" {
		return cliProject, nil
	}
	if manifestProject != nil && *manifestProject != "" {
		return *manifestProject, nil
	}
	if workspace != "" {
		return workspace, nil
	}
	return "", manifest.Errorf(manifest.WorkflowFile, "destination project not set")
}

// validateStages requires an executable on every stage and drops unsupported
// stage keys, returning one warning per stage that had any.
func validateStages(stages []manifest.Stage) ([]string, error) {
	var warnings []string
	for i := range stages {
		s := &stages[i]
		if s.Executable == nil || *s.Executable == "" {
			return nil, manifest.Errorf(manifest.WorkflowFile,
				"executable is not specified for stage with index %d", i)
		}
		if keys := s.UnsupportedKeys(); len(keys) > 0 {
			warnings = append(warnings, fmt.Sprintf(
				"the following fields of stage %d are not supported and will be ignored: %s",
				i, strings.Join(keys, ",")))
			s.Extra = nil
		}
	}
	return warnings, nil
}
