package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type idResponse struct {
	ID string `json:"id"`
}

// WorkflowNew creates a workflow and returns its ID.
func (c *Client) WorkflowNew(ctx context.Context, input map[string]any) (string, error) {
	return c.create(ctx, "/workflow/new", input)
}

// WorkflowClose closes a workflow so it can be run.
func (c *Client) WorkflowClose(ctx context.Context, workflowID string) error {
	return c.Call(ctx, "/"+workflowID+"/close", nil, nil)
}

// AppletNew creates an applet and returns its ID.
func (c *Client) AppletNew(ctx context.Context, input map[string]any) (string, error) {
	return c.create(ctx, "/applet/new", input)
}

// AppNew creates an app version and returns its ID.
func (c *Client) AppNew(ctx context.Context, input map[string]any) (string, error) {
	return c.create(ctx, "/app/new", input)
}

// AppPublish publishes an app version, optionally making it the default.
func (c *Client) AppPublish(ctx context.Context, appID string, makeDefault bool) error {
	return c.Call(ctx, "/"+appID+"/publish", map[string]any{"makeDefault": makeDefault}, nil)
}

// create calls a */new route with a fresh nonce so a retried request cannot
// create two objects. The caller's map is not modified.
func (c *Client) create(ctx context.Context, route string, input map[string]any) (string, error) {
	body := make(map[string]any, len(input)+1)
	for k, v := range input {
		body[k] = v
	}
	if _, ok := body["nonce"]; !ok {
		body["nonce"] = uuid.NewString()
	}

	var out idResponse
	if err := c.Call(ctx, route, body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%s: response did not contain an id", route)
	}
	return out.ID, nil
}

// FindProjectsByName returns the IDs of projects the caller can contribute to
// whose name is exactly name.
func (c *Client) FindProjectsByName(ctx context.Context, name string) ([]string, error) {
	in := map[string]any{
		"name":     name,
		"level":    "CONTRIBUTE",
		"describe": false,
	}
	var out struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := c.Call(ctx, "/system/findProjects", in, &out); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// DataObject identifies a data object in a project.
type DataObject struct {
	Project string `json:"project"`
	ID      string `json:"id"`
}

// FindDataObjectsInput narrows a data object search to one folder.
type FindDataObjectsInput struct {
	Class   string
	Name    string
	Project string
	Folder  string
}

// FindDataObjects lists objects of a class with an exact name directly in a folder.
func (c *Client) FindDataObjects(ctx context.Context, q FindDataObjectsInput) ([]DataObject, error) {
	in := map[string]any{
		"class": q.Class,
		"name":  q.Name,
		"scope": map[string]any{
			"project": q.Project,
			"folder":  q.Folder,
			"recurse": false,
		},
	}
	var out struct {
		Results []DataObject `json:"results"`
	}
	if err := c.Call(ctx, "/system/findDataObjects", in, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// RemoveObjects removes objects from a project.
func (c *Client) RemoveObjects(ctx context.Context, project string, ids []string) error {
	return c.Call(ctx, "/"+project+"/removeObjects", map[string]any{"objects": ids}, nil)
}

// NewFolder creates a folder in a project.
func (c *Client) NewFolder(ctx context.Context, project, folder string, parents bool) error {
	return c.Call(ctx, "/"+project+"/newFolder", map[string]any{"folder": folder, "parents": parents}, nil)
}

// Move moves objects into a folder of the same project.
func (c *Client) Move(ctx context.Context, project string, ids []string, destination string) error {
	return c.Call(ctx, "/"+project+"/move", map[string]any{"objects": ids, "destination": destination}, nil)
}
