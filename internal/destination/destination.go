package destination

import (
	"context"
	"regexp"
)

// Destination is where a built object is placed. Empty fields are unset.
type Destination struct {
	Project string
	Folder  string
	Name    string
}

var containerIDPattern = regexp.MustCompile(`^(project|container)-[0-9A-Za-z]{24}$`)

// IsContainerID reports whether s is a bare project or container identifier.
func IsContainerID(s string) bool {
	return containerIDPattern.MatchString(s)
}

// PathResolver resolves the path forms of a destination string.
type PathResolver interface {
	ResolvePath(ctx context.Context, path string) (Destination, error)
}

// PathResolverFunc adapts a function to PathResolver.
type PathResolverFunc func(ctx context.Context, path string) (Destination, error)

func (f PathResolverFunc) ResolvePath(ctx context.Context, path string) (Destination, error) {
	return f(ctx, path)
}

// Resolver dispatches between container identifiers and paths.
type Resolver struct {
	paths PathResolver
}

// NewResolver returns a Resolver that delegates path forms to paths.
func NewResolver(paths PathResolver) *Resolver {
	return &Resolver{paths: paths}
}

// Resolve parses dest. A bare container identifier becomes the project with
// no folder or name; any other string is delegated and the delegate's result
// and error are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, dest string) (Destination, error) {
	// "project-XXXX" without a colon would otherwise read as an object name.
	if IsContainerID(dest) {
		return Destination{Project: dest}, nil
	}
	return r.paths.ResolvePath(ctx, dest)
}
