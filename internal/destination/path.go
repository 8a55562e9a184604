package destination

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// ProjectFinder looks up project IDs by project name.
type ProjectFinder interface {
	FindProjectsByName(ctx context.Context, name string) ([]string, error)
}

// PathParser is the default PathResolver. It understands
//
//	/FOLDER/
//	/NAME
//	/FOLDER/NAME
//	PROJECT:
//	PROJECT:/FOLDER/
//	PROJECT:/NAME
//	PROJECT:/FOLDER/NAME
//
// PROJECT may be an ID or a name; names are looked up through a ProjectFinder.
// Paths without a project leave Project empty.
type PathParser struct {
	finder ProjectFinder
}

// NewPathParser returns a PathParser. finder may be nil, in which case only
// project IDs are accepted before the colon.
func NewPathParser(finder ProjectFinder) *PathParser {
	return &PathParser{finder: finder}
}

// ResolvePath implements PathResolver.
func (p *PathParser) ResolvePath(ctx context.Context, dest string) (Destination, error) {
	if strings.TrimSpace(dest) == "" {
		return Destination{}, fmt.Errorf("destination is empty")
	}

	projectPart, pathPart, hasProject := strings.Cut(dest, ":")
	if strings.Contains(pathPart, ":") {
		return Destination{}, fmt.Errorf("invalid destination %q: more than one ':'", dest)
	}

	var d Destination
	if hasProject {
		if projectPart == "" {
			return Destination{}, fmt.Errorf("invalid destination %q: missing project before ':'", dest)
		}
		id, err := p.resolveProject(ctx, projectPart)
		if err != nil {
			return Destination{}, err
		}
		d.Project = id
		if pathPart == "" {
			d.Folder = "/"
			return d, nil
		}
	} else {
		pathPart = dest
	}

	d.Folder, d.Name = splitPath(pathPart)
	return d, nil
}

func (p *PathParser) resolveProject(ctx context.Context, project string) (string, error) {
	if IsContainerID(project) {
		return project, nil
	}
	if p.finder == nil {
		return "", fmt.Errorf("could not resolve project %q: project names are not supported here", project)
	}

	ids, err := p.finder.FindProjectsByName(ctx, project)
	if err != nil {
		return "", fmt.Errorf("looking up project %q: %w", project, err)
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("could not find a project named %q", project)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("found multiple projects named %q (%s); use a project ID", project, strings.Join(ids, ", "))
	}
}

// splitPath returns the folder and object name of p. A trailing slash means
// p names a folder. Relative paths are taken from the root folder.
func splitPath(p string) (folder, name string) {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.HasSuffix(p, "/") {
		return path.Clean(p), ""
	}
	clean := path.Clean(p)
	if clean == "/" {
		return "/", ""
	}
	return path.Dir(clean), path.Base(clean)
}
