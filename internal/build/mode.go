package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dxtoolkit/dxbuild/internal/manifest"
)

// Kind is what a source directory builds into.
type Kind string

const (
	KindApplet   Kind = "applet"
	KindApp      Kind = "app"
	KindWorkflow Kind = "workflow"
)

// DetectMode inspects srcDir for a manifest. dxapp.json wins over
// dxworkflow.json; createApp turns an applet build into an app build.
func DetectMode(srcDir string, createApp bool) (Kind, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return "", &ConfigurationError{Msg: fmt.Sprintf("source directory %s", srcDir), Err: err}
	}
	if !info.IsDir() {
		return "", configErrorf("%s is not a directory", srcDir)
	}

	switch {
	case isFile(filepath.Join(srcDir, manifest.AppletFile)):
		if createApp {
			return KindApp, nil
		}
		return KindApplet, nil
	case isFile(filepath.Join(srcDir, manifest.WorkflowFile)):
		return KindWorkflow, nil
	}
	return "", configErrorf("%s is not a valid source directory: neither %s nor %s found",
		srcDir, manifest.AppletFile, manifest.WorkflowFile)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
