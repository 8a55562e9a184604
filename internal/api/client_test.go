package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dxtoolkit/dxbuild/internal/config"
)

type recorded struct {
	Path string
	Auth string
	Body map[string]any
}

// newTestServer serves handler and records every request.
func newTestServer(t *testing.T, handler func(path string, body map[string]any) (int, string)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, recorded{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})

		status, resp := handler(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{AuthTokenType: "Bearer", AuthToken: "secret"}
	return New(cfg, WithBaseURL(srv.URL), WithHTTPClient(srv.Client())), &calls
}

func TestWorkflowNew_SendsNonceAndAuth(t *testing.T) {
	c, calls := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusOK, `{"id":"workflow-1"}`
	})

	input := map[string]any{"project": "project-1"}
	id, err := c.WorkflowNew(context.Background(), input)
	if err != nil {
		t.Fatalf("WorkflowNew error: %v", err)
	}
	if id != "workflow-1" {
		t.Errorf("id = %q, want workflow-1", id)
	}
	if _, ok := input["nonce"]; ok {
		t.Error("caller input was modified")
	}

	got := (*calls)[0]
	if got.Path != "/workflow/new" {
		t.Errorf("path = %q", got.Path)
	}
	if got.Auth != "Bearer secret" {
		t.Errorf("Authorization = %q", got.Auth)
	}
	nonce, _ := got.Body["nonce"].(string)
	if nonce == "" {
		t.Error("request has no nonce")
	}
	if got.Body["project"] != "project-1" {
		t.Errorf("project = %v", got.Body["project"])
	}
}

func TestCreate_KeepsCallerNonce(t *testing.T) {
	c, calls := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusOK, `{"id":"applet-1"}`
	})
	if _, err := c.AppletNew(context.Background(), map[string]any{"nonce": "fixed"}); err != nil {
		t.Fatal(err)
	}
	if (*calls)[0].Body["nonce"] != "fixed" {
		t.Errorf("nonce = %v, want fixed", (*calls)[0].Body["nonce"])
	}
}

func TestCreate_MissingID(t *testing.T) {
	c, _ := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusOK, `{}`
	})
	if _, err := c.AppNew(context.Background(), nil); err == nil {
		t.Fatal("expected error for response without id")
	}
}

func TestCall_RemoteError(t *testing.T) {
	c, _ := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusUnprocessableEntity, `{"error":{"type":"InvalidInput","message":"stage executable not found"}}`
	})

	_, err := c.WorkflowNew(context.Background(), map[string]any{})
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if rerr.StatusCode != 422 || rerr.Type != "InvalidInput" {
		t.Errorf("RemoteError = %+v", rerr)
	}
	if !strings.Contains(err.Error(), "code 422") {
		t.Errorf("Error() = %q, want status code", err)
	}
}

func TestCall_RemoteErrorPlainBody(t *testing.T) {
	c, _ := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusBadGateway, ``
	})
	err := c.WorkflowClose(context.Background(), "workflow-1")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if rerr.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want status text", rerr.Message)
	}
	if rerr.Route != "/workflow-1/close" {
		t.Errorf("Route = %q", rerr.Route)
	}
}

func TestFindProjectsByName(t *testing.T) {
	c, calls := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusOK, `{"results":[{"id":"project-1","level":"ADMINISTER"},{"id":"project-2"}]}`
	})
	ids, err := c.FindProjectsByName(context.Background(), "shared")
	if err != nil {
		t.Fatalf("FindProjectsByName error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "project-1" {
		t.Errorf("ids = %v", ids)
	}
	if (*calls)[0].Path != "/system/findProjects" || (*calls)[0].Body["name"] != "shared" {
		t.Errorf("request = %+v", (*calls)[0])
	}
}

func TestFindDataObjects(t *testing.T) {
	c, calls := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusOK, `{"results":[{"project":"project-1","id":"applet-9"}]}`
	})
	objs, err := c.FindDataObjects(context.Background(), FindDataObjectsInput{
		Class: "applet", Name: "bwa", Project: "project-1", Folder: "/tools",
	})
	if err != nil {
		t.Fatalf("FindDataObjects error: %v", err)
	}
	if len(objs) != 1 || objs[0].ID != "applet-9" {
		t.Errorf("objs = %+v", objs)
	}
	scope, _ := (*calls)[0].Body["scope"].(map[string]any)
	if scope["folder"] != "/tools" || scope["recurse"] != false {
		t.Errorf("scope = %v", scope)
	}
}

func TestProjectRoutes(t *testing.T) {
	c, calls := newTestServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusOK, `{"id":"project-1"}`
	})
	ctx := context.Background()
	if err := c.NewFolder(ctx, "project-1", "/.Applet_archive", true); err != nil {
		t.Fatal(err)
	}
	if err := c.Move(ctx, "project-1", []string{"applet-1"}, "/.Applet_archive"); err != nil {
		t.Fatal(err)
	}
	if err := c.RemoveObjects(ctx, "project-1", []string{"applet-2"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AppPublish(ctx, "app-1", true); err != nil {
		t.Fatal(err)
	}

	want := []string{"/project-1/newFolder", "/project-1/move", "/project-1/removeObjects", "/app-1/publish"}
	for i, path := range want {
		if (*calls)[i].Path != path {
			t.Errorf("call %d path = %q, want %q", i, (*calls)[i].Path, path)
		}
	}
}

func TestNew_NoTokenNoAuthHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(&config.Config{}, WithBaseURL(srv.URL+"/"))
	if err := c.Call(context.Background(), "system/whoami", nil, nil); err != nil {
		t.Fatal(err)
	}
	if auth != "" {
		t.Errorf("Authorization = %q, want empty", auth)
	}
}
