package cli

import (
	"errors"

	"github.com/dxtoolkit/dxbuild/internal/build"
	"github.com/dxtoolkit/dxbuild/internal/manifest"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitManifest      = 3
)

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var merr *manifest.Error
	if errors.As(err, &merr) {
		return ExitManifest
	}
	var cerr *build.ConfigurationError
	if errors.As(err, &cerr) {
		return ExitConfiguration
	}
	return ExitFailure
}
