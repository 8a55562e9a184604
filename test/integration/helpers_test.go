//go:build integration

package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dxtoolkit/dxbuild/internal/api"
	"github.com/dxtoolkit/dxbuild/internal/config"
)

const (
	workspaceID = "project-WWWWWWWWWWWWWWWWWWWWWWWW"
	researchID  = "project-RRRRRRRRRRRRRRRRRRRRRRRR"
)

// object is a data object held by the fake platform.
type object struct {
	ID      string
	Class   string
	Name    string
	Project string
	Folder  string
	Closed  bool
	Body    map[string]any
}

// platform is an in-memory stand-in for the API server. It keeps just
// enough state for builds to observe their own side effects.
type platform struct {
	mu       sync.Mutex
	projects map[string]string // name -> ID
	objects  map[string]*object
	folders  map[string]bool // "project:folder"
	routes   []string
	nextID   int
}

// testEnv holds an isolated home directory and a running fake platform.
type testEnv struct {
	HomeDir  string
	Platform *platform
	Client   *api.Client
}

// setupTestEnv points the config at a temp home and starts a fake platform.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir: t.TempDir(),
		Platform: &platform{
			projects: map[string]string{"research": researchID, "sandbox": workspaceID},
			objects:  map[string]*object{},
			folders:  map[string]bool{workspaceID + ":/": true, researchID + ":/": true},
		},
	}
	t.Setenv("HOME", env.HomeDir)
	t.Setenv("DX_WORKSPACE_ID", workspaceID)
	t.Setenv("DX_SECURITY_CONTEXT", `{"auth_token_type":"Bearer","auth_token":"integration"}`)

	srv := httptest.NewServer(env.Platform)
	t.Cleanup(srv.Close)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	env.Client = api.New(cfg, api.WithBaseURL(srv.URL), api.WithHTTPClient(srv.Client()))
	return env
}

func (p *platform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	p.routes = append(p.routes, r.URL.Path)

	resp, status := p.handle(r.URL.Path, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (p *platform) handle(route string, body map[string]any) (any, int) {
	str := func(k string) string { s, _ := body[k].(string); return s }
	parts := strings.Split(strings.TrimPrefix(route, "/"), "/")

	switch {
	case route == "/system/findProjects":
		var results []map[string]string
		if id, ok := p.projects[str("name")]; ok {
			results = append(results, map[string]string{"id": id})
		}
		return map[string]any{"results": results}, http.StatusOK

	case route == "/system/findDataObjects":
		scope, _ := body["scope"].(map[string]any)
		project, _ := scope["project"].(string)
		folder, _ := scope["folder"].(string)
		var results []map[string]string
		for _, o := range p.objects {
			if o.Class == str("class") && o.Name == str("name") && o.Project == project && o.Folder == folder {
				results = append(results, map[string]string{"project": o.Project, "id": o.ID})
			}
		}
		return map[string]any{"results": results}, http.StatusOK

	case route == "/workflow/new", route == "/applet/new", route == "/app/new":
		if str("nonce") == "" {
			return apiError("InvalidInput", "nonce is required"), http.StatusUnprocessableEntity
		}
		class := parts[0]
		project, folder := str("project"), str("folder")
		if class != "app" {
			p.folders[project+":"+folder] = true
		}
		p.nextID++
		o := &object{
			ID:      fmt.Sprintf("%s-%024d", class, p.nextID),
			Class:   class,
			Name:    str("name"),
			Project: project,
			Folder:  folder,
			Body:    body,
		}
		p.objects[o.ID] = o
		return map[string]string{"id": o.ID}, http.StatusOK

	case len(parts) == 2:
		return p.handleObjectRoute(parts[0], parts[1], body)
	}
	return apiError("ResourceNotFound", "unknown route "+route), http.StatusNotFound
}

func (p *platform) handleObjectRoute(id, method string, body map[string]any) (any, int) {
	switch method {
	case "close", "publish":
		o, ok := p.objects[id]
		if !ok {
			return apiError("ResourceNotFound", id+" not found"), http.StatusNotFound
		}
		o.Closed = true
		return map[string]string{"id": id}, http.StatusOK
	case "newFolder":
		folder, _ := body["folder"].(string)
		p.folders[id+":"+folder] = true
		return map[string]string{"id": id}, http.StatusOK
	case "removeObjects", "move":
		ids, _ := body["objects"].([]any)
		dest, _ := body["destination"].(string)
		for _, raw := range ids {
			oid, _ := raw.(string)
			if method == "removeObjects" {
				delete(p.objects, oid)
			} else if o, ok := p.objects[oid]; ok {
				o.Folder = dest
			}
		}
		return map[string]string{"id": id}, http.StatusOK
	}
	return apiError("ResourceNotFound", "unknown method "+method), http.StatusNotFound
}

func apiError(typ, msg string) map[string]any {
	return map[string]any{"error": map[string]string{"type": typ, "message": msg}}
}

// objectsNamed returns the objects with the given class and name.
func (p *platform) objectsNamed(class, name string) []*object {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*object
	for _, o := range p.objects {
		if o.Class == class && o.Name == name {
			out = append(out, o)
		}
	}
	return out
}

// writeFile creates a file with the given content, creating parent dirs as needed.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// setupWorkflowSource creates a workflow source directory with a readme.
func setupWorkflowSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dxworkflow.json"), `{
  "name": "variant-calling",
  "title": "Variant calling",
  "outputFolder": "/results",
  "instanceType": "mem1_ssd1_x4",
  "stages": [
    {"id": "align", "executable": "applet-AAAAAAAAAAAAAAAAAAAAAAAA"},
    {"id": "call", "executable": "applet-BBBBBBBBBBBBBBBBBBBBBBBB", "input": {"bam": {"$dnanexus_link": {"stage": "align", "outputField": "bam"}}}}
  ]
}`)
	writeFile(t, filepath.Join(dir, "Readme.md"), "# Variant calling\n")
	return dir
}

// setupAppletSource creates an applet source directory with its entry point.
func setupAppletSource(t *testing.T, version string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dxapp.json"), `{
  "name": "bwa_mem",
  "title": "BWA-MEM",
  "summary": "Aligns reads",
  "version": "`+version+`",
  "runSpec": {"interpreter": "bash", "file": "src/bwa_mem.sh", "distribution": "Ubuntu", "release": "20.04"},
  "inputSpec": [{"name": "reads", "class": "file"}],
  "outputSpec": [{"name": "bam", "class": "file"}]
}`)
	writeFile(t, filepath.Join(dir, "src", "bwa_mem.sh"), "main() {\n  bwa mem ref.fa reads.fq > out.bam\n}\n")
	writeFile(t, filepath.Join(dir, "README.developer.md"), "Build notes.\n")
	return dir
}
