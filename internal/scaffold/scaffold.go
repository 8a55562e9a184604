package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dxtoolkit/dxbuild/internal/manifest"
)

//go:embed templates
var templateFS embed.FS

// Kinds that can be scaffolded.
const (
	KindWorkflow = "workflow"
	KindApplet   = "applet"
)

// placeholderExecutable is the stage executable written into new workflows.
const placeholderExecutable = "applet-xxxxxxxxxxxxxxxxxxxxxxxx"

// Data holds all template variables available to scaffold templates.
type Data struct {
	Name        string // e.g., "bwa_mem"
	Title       string // defaults to Name
	Summary     string
	Version     string // applets only
	Interpreter string // applets only, e.g. "bash"
	Executable  string // first stage executable (workflows only)
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// NewData creates Data for kind with defaults filled in.
func NewData(kind, name string) *Data {
	d := &Data{
		Name:        name,
		Title:       name,
		Summary:     fmt.Sprintf("A new %s.", kind),
		Version:     "0.1.0",
		Interpreter: "bash",
		Executable:  placeholderExecutable,
	}
	return d
}

// Generate writes the template set for kind into outputDir, which must be
// empty or missing.
func Generate(kind string, data *Data, outputDir string) (*Result, error) {
	root := path.Join("templates", kind)
	if _, err := fs.Stat(templateFS, root); err != nil {
		return nil, fmt.Errorf("unknown kind %q: expected %s or %s", kind, KindWorkflow, KindApplet)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Check for existing files to prevent accidental overwrites.
	existing, err := os.ReadDir(outputDir)
	if err == nil && len(existing) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{OutputDir: outputDir}
	err = fs.WalkDir(templateFS, root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel := outputName(strings.TrimPrefix(p, root+"/"), data)
		if err := render(p, filepath.Join(outputDir, filepath.FromSlash(rel)), data); err != nil {
			return err
		}
		result.Files = append(result.Files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Warnings = check(kind, outputDir)
	return result, nil
}

// outputName strips .tmpl and names the applet script after the applet.
func outputName(rel string, data *Data) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	if rel == "src/code.sh" {
		return "src/" + data.Name + ".sh"
	}
	return rel
}

func render(tmplPath, outPath string, data *Data) error {
	tmplBytes, err := fs.ReadFile(templateFS, tmplPath)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", tmplPath, err)
	}

	tmpl, err := template.New(path.Base(tmplPath)).Parse(string(tmplBytes))
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", tmplPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing template %s: %w", tmplPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", outPath, err)
	}
	mode := os.FileMode(0644)
	if strings.HasSuffix(outPath, ".sh") {
		mode = 0755
	}
	if err := os.WriteFile(outPath, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

// check parses the generated manifest and reports problems as warnings.
func check(kind, outputDir string) []string {
	file, parse := manifest.WorkflowFile, func(b []byte) error { _, err := manifest.ParseWorkflow(b); return err }
	if kind == KindApplet {
		file, parse = manifest.AppletFile, func(b []byte) error { _, err := manifest.ParseApplet(b); return err }
	}

	raw, err := manifest.ReadFile(outputDir, file)
	if err != nil {
		return []string{fmt.Sprintf("could not read generated manifest: %v", err)}
	}
	if err := parse(raw); err != nil {
		var merr *manifest.Error
		if errors.As(err, &merr) && len(merr.Issues) > 0 {
			warnings := make([]string, 0, len(merr.Issues))
			for _, issue := range merr.Issues {
				warnings = append(warnings, issue.String())
			}
			return warnings
		}
		return []string{err.Error()}
	}
	return nil
}
