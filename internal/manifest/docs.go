package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// Readme file names, checked in order.
var (
	ReadmeFiles          = []string{"README.md", "Readme.md", "readme.md"}
	DeveloperReadmeFiles = []string{"README.developer.md", "Readme.developer.md", "readme.developer.md"}
)

// Documented is a manifest with description and developerNotes fields.
type Documented interface {
	HasDescription() bool
	SetDescription(string)
	HasDeveloperNotes() bool
	SetDeveloperNotes(string)
}

// InlineDocs fills a missing description from the first readme found in
// srcDir and a missing developerNotes from the first developer readme.
// Present fields are never overwritten. It returns the files it inlined.
func InlineDocs(d Documented, srcDir string) ([]string, error) {
	var inlined []string

	if !d.HasDescription() {
		path, ok := findFirst(srcDir, ReadmeFiles)
		if ok {
			contents, err := os.ReadFile(path)
			if err != nil {
				return inlined, fmt.Errorf("reading readme %s: %w", path, err)
			}
			d.SetDescription(string(contents))
			inlined = append(inlined, path)
		}
	}

	if !d.HasDeveloperNotes() {
		path, ok := findFirst(srcDir, DeveloperReadmeFiles)
		if ok {
			contents, err := os.ReadFile(path)
			if err != nil {
				return inlined, fmt.Errorf("reading developer readme %s: %w", path, err)
			}
			d.SetDeveloperNotes(string(contents))
			inlined = append(inlined, path)
		}
	}

	return inlined, nil
}

// findFirst returns the first name in names that exists as a regular file in dir.
func findFirst(dir string, names []string) (string, bool) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
