package build

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Args are the build flags as given on the command line.
type Args struct {
	Destination string
	DryRun      bool
	CreateApp   bool
	Publish     bool
	Regions     []string
	Overwrite   bool
	Archive     bool
	Version     string
}

// CheckArgs rejects flag combinations that make no sense for kind.
func CheckArgs(kind Kind, a Args) error {
	if a.Archive && a.Overwrite {
		return configErrorf("--archive and --overwrite cannot be used together")
	}
	if a.Version != "" {
		if _, err := semver.NewVersion(a.Version); err != nil {
			return &ConfigurationError{Msg: "--version " + a.Version + " is not a valid semantic version", Err: err}
		}
	}

	switch kind {
	case KindWorkflow:
		var bad []string
		if a.Publish {
			bad = append(bad, "--publish")
		}
		if len(a.Regions) > 0 {
			bad = append(bad, "--region")
		}
		if a.Version != "" {
			bad = append(bad, "--version")
		}
		if a.Archive {
			bad = append(bad, "--archive")
		}
		if a.Overwrite {
			bad = append(bad, "--overwrite")
		}
		if a.CreateApp {
			bad = append(bad, "--create-app")
		}
		if len(bad) > 0 {
			return configErrorf("%s cannot be used when building a workflow", strings.Join(bad, ", "))
		}
	case KindApp:
		if a.Destination != "" {
			return configErrorf("--destination cannot be used when creating an app")
		}
		if a.Archive || a.Overwrite {
			return configErrorf("--archive and --overwrite apply to applets only")
		}
	case KindApplet:
		if a.Publish {
			return configErrorf("--publish requires --create-app")
		}
		if len(a.Regions) > 0 {
			return configErrorf("--region requires --create-app")
		}
	}
	return nil
}
